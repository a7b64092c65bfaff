// Package tabular converts delimited text (optionally quoted, optionally
// irregular) into structured records and back, at two scales: whole-document
// and streaming with bounded memory.
//
// Design goals:
//
//   - No whole-file buffering on the streaming paths; rows flow via bounded
//     channels and backpressure is the only flow control.
//   - Explicit configuration structs validated once up front; malformed
//     options fail fast with a configuration-kind error instead of being
//     re-checked ad hoc.
//   - Best-effort recovery for damaged input is opt-in and isolated behind
//     the RepairStrategy interface, never baked into the tokenizer.
//   - Injection-safe output: serialization can neutralize spreadsheet
//     formula values and always produces re-parseable RFC4180 quoting.
//
// The synchronous entry points are Parse and Serialize; StreamRows,
// ParseChunks, and StreamEncode are their chunk-oriented counterparts.
// DetectDelimiter guesses a delimiter from a sample. Subpackages: records
// (the ordered record model), hooks (caller-owned extension pipeline), pool
// (parallel task execution), source and sink (byte sources and record
// sinks), and metrics (operational counters).
package tabular
