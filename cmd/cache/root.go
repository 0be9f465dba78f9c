package cache

import (
	"github.com/ValentinKolb/kvcache/cmd/util"
	"github.com/ValentinKolb/kvcache/lib/cache"
	"github.com/ValentinKolb/kvcache/lib/instrument"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/spf13/cobra"
	"io"
)

var (
	backend    store.IStore
	recordOpts []instrument.Option

	// CacheCommands represents the cache command group
	CacheCommands = &cobra.Command{
		Use:                "cache",
		Short:              "Store, read and replay cached values",
		PersistentPreRunE:  setupBackend,
		PersistentPostRunE: closeBackend,
	}
)

func init() {
	// Add backend flags to the cache command
	util.SetupBackendFlags(CacheCommands)

	// Add subcommands
	CacheCommands.AddCommand(storeCmd)
	CacheCommands.AddCommand(getCmd)
	CacheCommands.AddCommand(replayCmd)
	CacheCommands.AddCommand(benchCmd)
}

// setupBackend connects to the configured store
func setupBackend(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.InitLogging(); err != nil {
		return err
	}

	var err error
	if backend, err = util.GetStore(); err != nil {
		return err
	}
	recordOpts, err = util.GetRecorderOptions(backend)
	return err
}

func closeBackend(_ *cobra.Command, _ []string) error {
	if closer, ok := backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// newCache creates a cache on the backend with the recording flags applied
func newCache(opts ...cache.Option) (*cache.Cache, error) {
	opts = append(opts, cache.WithRecorderOptions(recordOpts...))
	return cache.New(backend, opts...)
}
