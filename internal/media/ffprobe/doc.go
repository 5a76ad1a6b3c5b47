// Package ffprobe wraps the ffprobe CLI.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: duration probe bound to a binary and timeout
//
// Entry points:
//   - Duration: runs the single-value duration query and parses exactly one number
//   - Inspect: executes a full JSON probe and returns a Result for diagnostics
//
// Duration never estimates from size or bitrate; any failure to obtain a
// number is reported as a probe error carrying the tool output.
package ffprobe
