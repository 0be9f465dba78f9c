package cmd

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/cmd/cache"
	"github.com/ValentinKolb/kvcache/cmd/serve"
	"github.com/ValentinKolb/kvcache/cmd/util"
	"github.com/ValentinKolb/kvcache/rpc/serializer"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvcache",
		Short: "key-value cache with recorded, replayable calls",
		Long: fmt.Sprintf(`kvcache (v%s)

A key-value cache on top of a pluggable store (in-memory, redis or a kvcache
server). Every call of an instrumented operation is counted and its arguments
and results are recorded in the store, so the history can be replayed later.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvcache",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvcache v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(cache.CacheCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, serializer.NameBinary, util.WrapString("serializer to use (json, gob, binary)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
