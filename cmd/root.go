package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stashkv/stash/cmd/kv"
	"github.com/stashkv/stash/cmd/lock"
	"github.com/stashkv/stash/cmd/util"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "stash",
		Short: "uniform key-value access layer",
		Long: fmt.Sprintf(`stash (v%s)

A key-value access layer written in Go that derives a rich operation
set from three backend primitives and adds per-key expiry on top.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of stash",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stash v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level to use (critical, error, warning, info, debug)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
