// Package services defines shared utilities consumed by the pipeline
// controller and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp operation names, operation run IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's error taxonomy (precondition vs tool failure).
//   - ToolError, which carries an external tool's diagnostic text verbatim so
//     operators always see what ffmpeg, ffprobe, or whisper actually printed.
//
// Use these helpers when wiring new pipeline logic so error reporting stays
// uniform across the CLI and the HTTP boundary.
package services
