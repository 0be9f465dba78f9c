package cache

import (
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/cache"
	"github.com/ValentinKolb/kvcache/lib/replay"
	"github.com/spf13/cobra"
	"os"
	"strconv"
)

var (
	storeParse bool
	getAs      string

	storeCmd = &cobra.Command{
		Use:   "store [value...]",
		Short: "Starts a new session, stores the values and replays Cache.store",
		Long:  "Starts a new session (the store is flushed), stores every value under a new key, prints the keys and finally replays all recorded calls of Cache.store.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache()
			if err != nil {
				return err
			}
			for _, arg := range args {
				key, err := c.Store(parseValue(arg))
				if err != nil {
					return err
				}
				fmt.Println(key)
			}
			fmt.Println()
			return replay.Replay(c.StoreOp(), os.Stdout)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCache(cache.WithoutReset())
			if err != nil {
				return err
			}
			key := args[0]

			var value any
			switch getAs {
			case "raw":
				value, err = c.Get(key, nil)
				if raw, ok := value.([]byte); ok {
					value = fmt.Sprintf("%q", raw)
				}
			case "str":
				value, err = c.GetStr(key)
			case "int":
				value, err = c.GetInt(key)
			case "float":
				value, err = c.GetFloat(key)
			default:
				return fmt.Errorf("invalid --as %s (expected one of: raw, str, int, float)", getAs)
			}
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, value=%v\n", key, value)
			return nil
		},
	}
	replayCmd = &cobra.Command{
		Use:   "replay [name]",
		Short: "Prints all recorded calls of an operation (default Cache.store)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cache.StoreOpName
			if len(args) == 1 {
				name = args[0]
			}
			return replay.ReplayName(backend, name, os.Stdout)
		},
	}
)

func init() {
	storeCmd.Flags().BoolVar(&storeParse, "parse", false, "Store values that look like numbers as int or float instead of string")
	getCmd.Flags().StringVar(&getAs, "as", "raw", "How to interpret the value (raw, str, int, float)")
}

// parseValue converts arg to an int64 or float64 if --parse is set and arg is a number
func parseValue(arg string) any {
	if !storeParse {
		return arg
	}
	if i, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return f
	}
	return arg
}
