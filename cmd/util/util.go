package util

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/db/engines/maple"
	"github.com/ValentinKolb/kvcache/lib/instrument"
	"github.com/ValentinKolb/kvcache/lib/lockmgr"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/ValentinKolb/kvcache/lib/store/lstore"
	"github.com/ValentinKolb/kvcache/lib/store/rstore"
	"github.com/ValentinKolb/kvcache/rpc/client"
	"github.com/ValentinKolb/kvcache/rpc/common"
	"github.com/ValentinKolb/kvcache/rpc/serializer"
	"github.com/ValentinKolb/kvcache/rpc/transport"
	"github.com/ValentinKolb/kvcache/rpc/transport/http"
	"github.com/ValentinKolb/kvcache/rpc/transport/tcp"
	"github.com/ValentinKolb/kvcache/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendRPC    = "rpc"
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

// InitConfig loads .env files and makes viper read KVCACHE_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("kvcache")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// InitLogging applies the configured log level to all loggers
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// --------------------------------------------------------------------------
// Backend
// --------------------------------------------------------------------------

// SetupBackendFlags adds the flags that select and configure the store backend
func SetupBackendFlags(cmd *cobra.Command) {
	key := "backend"
	cmd.PersistentFlags().String(key, BackendRPC, WrapString("The store backend to use (memory, redis, rpc). The memory backend only lives as long as the command"))

	// redis
	key = "redis-addr"
	cmd.PersistentFlags().String(key, "localhost:6379", WrapString("Address of the redis server (backend=redis)"))
	key = "redis-password"
	cmd.PersistentFlags().String(key, "", WrapString("Password of the redis server (backend=redis)"))
	key = "redis-db"
	cmd.PersistentFlags().Int(key, 0, WrapString("Logical database of the redis server (backend=redis)"))

	// rpc
	key = "transport"
	cmd.PersistentFlags().String(key, "http", WrapString("The transport to reach the kvcache server (http, tcp, unix, backend=rpc)"))
	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of a single request (backend=rpc)"))
	key = "endpoints"
	cmd.PersistentFlags().String(key, "http://localhost:8080", WrapString("Comma-separated list of kvcache server addresses (backend=rpc). The servers do not share data: all requests go to the first reachable one, the others are only used if it can not be connected. Format: http://host:port (http), host:port (tcp), socket path (unix)"))
	key = "retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to try a request (backend=rpc)"))
	key = "shard"
	cmd.PersistentFlags().Int(key, 100, WrapString("ID of the shard to connect to (backend=rpc)"))

	// recording
	key = "failure-policy"
	cmd.PersistentFlags().String(key, instrument.FailureKeepPartial.String(), WrapString("What is recorded when a call fails (keep-partial, record-error)"))
	key = "distributed-lock"
	cmd.PersistentFlags().Bool(key, true, WrapString("Guard recording with a lock in the store, needed when several processes record the same operation (ignored for backend=memory)"))
}

// GetClientConfig reads the rpc client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoints:     strings.Split(viper.GetString("endpoints"), ","),
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("retries"),
	}
}

// GetStore creates the store of the configured backend
func GetStore() (store.IStore, error) {
	switch backend := viper.GetString("backend"); backend {
	case BackendMemory:
		return lstore.NewLocalStore(func() db.KVDB {
			return maple.NewMapleDB(maple.DefaultOptions())
		}), nil
	case BackendRedis:
		return rstore.NewRedisStore(rstore.Config{
			Addr:     viper.GetString("redis-addr"),
			Password: viper.GetString("redis-password"),
			DB:       viper.GetInt("redis-db"),
		})
	case BackendRPC:
		s, err := serializer.FromName(viper.GetString("serializer"))
		if err != nil {
			return nil, err
		}
		t, err := GetTransport()
		if err != nil {
			return nil, err
		}
		return client.NewRPCStore(
			uint64(viper.GetInt("shard")),
			*GetClientConfig(),
			t,
			s,
		)
	default:
		return nil, fmt.Errorf("invalid backend %s (expected one of: memory, redis, rpc)", backend)
	}
}

// GetTransport creates the client transport of the configured kind
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s (expected one of: http, tcp, unix)", viper.GetString("transport"))
	}
}

// GetRecorderOptions converts the recording flags to instrument options
func GetRecorderOptions(s store.IStore) ([]instrument.Option, error) {
	policy, err := instrument.ParseFailurePolicy(viper.GetString("failure-policy"))
	if err != nil {
		return nil, err
	}
	opts := []instrument.Option{instrument.WithFailurePolicy(policy)}
	// a memory store lives in this process only, the process local locks suffice
	if viper.GetBool("distributed-lock") && viper.GetString("backend") != BackendMemory {
		opts = append(opts, instrument.WithDistributedLock(lockmgr.NewLockManager(s), 30*time.Second))
	}
	return opts, nil
}
