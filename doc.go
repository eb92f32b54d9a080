// Package gopals runs self-verifying tables of encoding and XOR challenges
// over the byte codecs in package codec.
//
// A Scenario names an Op, its hex inputs and either the exact expected output
// or the kind of codec error the op must fail with. Runner evaluates a table
// on a small worker pool and returns one Result per row in table order.
//
// Components:
//   - codec: hex decode/encode, unpadded base64 encode, fixed XOR.
//   - xorcrack: single-byte XOR key search and detection over many lines.
//   - Provider: optional byte store with TTL (Ristretto, BigCache, Redis)
//     that keeps the latest result of every scenario.
//   - GenStore: per-scenario run counters. Local by default; Redis when
//     several processes share one store.
//   - serde: result record formats (JSON, msgpack, CBOR, protobuf).
//
// Keys:
//
//	result:<ns>:<scenario> - latest result of one scenario
//	run:<ns>:<hash>        - the whole run (hash over sorted scenario names)
//
// A stored result is returned only while its run number matches the
// scenario's counter; anything else is deleted on read.
package gopals
