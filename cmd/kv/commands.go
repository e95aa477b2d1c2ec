package kv

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/stashkv/stash/lib/store"
)

// parseAmount converts a bump amount argument. A non-integer argument is
// surfaced as the same NotIntegral condition the store raises for bad values.
func parseAmount(arg string) (int64, error) {
	amount, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, store.NewCondition(store.RetCNotIntegral, "bump amount is not an integer")
	}
	return amount, nil
}

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := cliStore.Put(key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
			}
			return nil
		},
	}
	setxCmd = &cobra.Command{
		Use:   "setx [key] [value] [ttl]",
		Short: "Sets the value for a key with a time-to-live",
		Long:  "Sets the value for a key and installs an expiry deadline in the same request. The ttl is a duration like 30s or 5m; 0 falls back to the store-wide default.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			ttl, err := time.ParseDuration(args[2])
			if err != nil {
				return fmt.Errorf("ttl must be a duration: %w", err)
			}
			if err := cliStore.PutTTL(key, []byte(value), ttl); err != nil {
				return err
			} else {
				fmt.Println("setx successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := cliStore.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := cliStore.Delete(key); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if found, err := cliStore.Has(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%t\n", key, found)
			}
			return nil
		},
	}
	incrCmd = &cobra.Command{
		Use:   "incr [key] [amount]",
		Short: "Adds an amount to the integer value stored at a key",
		Long:  "Adds an amount to the integer value stored at a key, initializing an absent key to zero first. Fails if the stored value is not an integer.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if err := cliStore.IncrementStrict(key, amount); err != nil {
				return err
			}
			if resp, err := cliStore.GetStrict(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, value=%s\n", key, resp)
			}
			return nil
		},
	}
	decrCmd = &cobra.Command{
		Use:   "decr [key] [amount]",
		Short: "Subtracts an amount from the integer value stored at a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if err := cliStore.DecrementStrict(key, amount); err != nil {
				return err
			}
			if resp, err := cliStore.GetStrict(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, value=%s\n", key, resp)
			}
			return nil
		},
	}
	expireCmd = &cobra.Command{
		Use:   "expire [key] [ttl]",
		Short: "Installs or replaces the expiry deadline for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			ttl, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("ttl must be a duration: %w", err)
			}
			if err := cliStore.Expire(key, ttl); err != nil {
				return err
			} else {
				fmt.Println("expire successfully")
			}
			return nil
		},
	}
	persistCmd = &cobra.Command{
		Use:   "persist [key]",
		Short: "Cancels a pending expiry deadline for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := cliStore.Persist(key); err != nil {
				return err
			} else {
				fmt.Println("persist successfully")
			}
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists every key in the store",
		Long:  "Lists every key in the store. Fails if the configured backend cannot enumerate its contents (e.g. memcache).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := cliStore.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			fmt.Printf("%d key(s)\n", len(keys))
			return nil
		},
	}
)
