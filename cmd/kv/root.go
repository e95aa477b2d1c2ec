package kv

import (
	"github.com/spf13/cobra"
	"github.com/stashkv/stash/cmd/util"
	"github.com/stashkv/stash/lib/store"
)

var (
	cliStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVStore,
		PersistentPostRunE: teardownKVStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common backend flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(setxCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(incrCmd)
	KeyValueCommands.AddCommand(decrCmd)
	KeyValueCommands.AddCommand(expireCmd)
	KeyValueCommands.AddCommand(persistCmd)
	KeyValueCommands.AddCommand(keysCmd)
}

// setupKVStore starts a store over the configured backend
func setupKVStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	cliStore, err = util.GetStore()
	return err
}

// teardownKVStore closes the store once the subcommand finished
func teardownKVStore(_ *cobra.Command, _ []string) error {
	if cliStore == nil {
		return nil
	}
	return cliStore.Close()
}
