// Package rstore implements store.IStore on top of a Redis server using
// github.com/redis/go-redis/v9. Each IStore method maps onto exactly one Redis
// command (SET, GET, INCR, RPUSH, LRANGE, FLUSHDB, SET NX PX, DEL), so all
// atomicity guarantees are those of the server.
//
// Error Mapping:
//   - a missing key (redis.Nil) is not an error: Get reports loaded=false
//   - network failures, timeouts and a closed client → store.RetCUnreachable
//   - WRONGTYPE replies → store.RetCWrongType
//   - INCR on non integer values → store.RetCInvalidOperation
//
// Timeouts:
//
//	Every operation runs with a context bounded by Config.OpTimeout. Connection
//	pooling and retries are left to the redis client.
//
// Usage Example:
//
//	s, err := rstore.NewRedisStore(rstore.Config{Addr: "localhost:6379"})
//	if err != nil {
//	    // store.IsUnreachable(err) == true if no server is listening
//	}
//	defer s.(io.Closer).Close()
package rstore
