package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/kvcache/cmd/util"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/serializer"
	"github.com/ValentinKolb/kvcache/rpc/server"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"github.com/ValentinKolb/kvcache/rpc/transport/http"
	"github.com/ValentinKolb/kvcache/rpc/transport/tcp"
	"github.com/ValentinKolb/kvcache/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the kvcache server",
		Long:    `Start the kvcache server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is KVCACHE_<flag> (e.g. KVCACHE_ENDPOINT=0.0.0.0:9090)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "shards"
	ServeCmd.Flags().String(key, "100=lstore", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is: lstore"))

	key = "engine-shards"
	ServeCmd.Flags().Int(key, 0, cmdUtil.WrapString("Number of internal shards of each in-memory store (0 = number of cpus)"))

	key = "timeout"
	ServeCmd.Flags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reading and writing requests"))

	key = "endpoint"
	ServeCmd.Flags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, or a socket path for transport=unix)"))

	key = "transport"
	ServeCmd.Flags().String(key, "http", cmdUtil.WrapString("The transport to serve (http, tcp, unix). Only http serves /metrics"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse shards
	shards, err := common.ParseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.EngineShards = viper.GetInt("engine-shards")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the kvcache server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	s, err := serializer.FromName(viper.GetString("serializer"))
	if err != nil {
		return err
	}

	// parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHttpServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s (expected one of: http, tcp, unix)", viper.GetString("transport"))
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serv.Serve(ctx)
}
