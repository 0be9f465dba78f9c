// Package serializer converts common.Message values to bytes and back.
// Client and server must use the same serializer, select one by name with FromName
// ("binary", "json" or "gob").
//
// Formats:
//
//   - binary: a type byte and a flag byte, followed by only the fields the flags
//     announce (uint32 length prefixed strings and byte slices, fixed width
//     big endian numbers).
//     Smallest payloads and fastest, the default of the CLI.
//
//   - json: encoding/json. Byte slices are base64 encoded, readable with curl
//     and therefore handy when debugging a server.
//
//   - gob: encoding/gob with a fresh encoder per message. Kept for comparison,
//     every payload carries the type description and is the largest.
//
// The sizes of typical messages (the four requests of one recorded Cache.store
// call, lock requests, replay responses) are reported by the benchmarks of this package:
//
//	go test -bench . ./rpc/serializer
//
// Deserialize always starts from a zero Message, so a Message can be reused
// across calls. All implementations are stateless and safe for concurrent use.
package serializer
