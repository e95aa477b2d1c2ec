package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stashkv/stash/lib/adapter"
	"github.com/stashkv/stash/lib/adapter/memcache"
	"github.com/stashkv/stash/lib/adapter/memory"
	"github.com/stashkv/stash/lib/adapter/sqlite"
	"github.com/stashkv/stash/lib/logging"
	"github.com/stashkv/stash/lib/store"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds common backend selection flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "backend"
	cmd.PersistentFlags().String(key, "sqlite", WrapString("storage backend to use (sqlite, memory, memcache)"))

	key = "sqlite-path"
	cmd.PersistentFlags().String(key, "stash.db", WrapString("database file for the sqlite backend"))

	key = "sqlite-table"
	cmd.PersistentFlags().String(key, "stash", WrapString("table holding the key-value pairs (sqlite backend only)"))

	key = "memcache-endpoints"
	cmd.PersistentFlags().String(key, "localhost:11211", WrapString("memcached server addresses as a comma-separated list (memcache backend only)"))

	key = "default-ttl"
	cmd.PersistentFlags().Duration(key, 0, WrapString("store-wide default time-to-live applied when an operation omits its own (0 = never expire)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("stash")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if level, err := logging.ParseLogLevel(viper.GetString("log-level")); err == nil {
		logging.SetGlobalLevel(level)
	}
}

// GetAdapter creates the backend adapter selected by configuration
func GetAdapter() (adapter.Adapter, error) {
	switch viper.GetString("backend") {
	case "sqlite":
		return sqlite.New(sqlite.Options{
			Path:  viper.GetString("sqlite-path"),
			Table: viper.GetString("sqlite-table"),
		}), nil
	case "memory":
		return memory.New(nil), nil
	case "memcache":
		return memcache.New(memcache.Options{
			Endpoints: strings.Split(viper.GetString("memcache-endpoints"), ","),
		}), nil
	default:
		return nil, fmt.Errorf("invalid backend %s", viper.GetString("backend"))
	}
}

// GetStore creates a store over the configured backend
func GetStore() (store.IStore, error) {
	adp, err := GetAdapter()
	if err != nil {
		return nil, err
	}
	return store.NewStore(adp, store.Options{
		Name: "cli",
		TTL:  GetDefaultTTL(),
	})
}

// GetDefaultTTL retrieves the configured store-wide default TTL
func GetDefaultTTL() time.Duration {
	return viper.GetDuration("default-ttl")
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
