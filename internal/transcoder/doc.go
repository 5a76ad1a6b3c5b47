// Package transcoder builds and runs ffmpeg invocations.
//
// Every external process in the pipeline goes through the Runner interface:
// ExecRunner in production, spies in tests. A run that exceeds its timeout is
// killed and reported as a timeout; a non-zero exit is a process failure
// carrying the tool's stderr verbatim. Successful runs are only trusted once
// the declared output exists and is non-empty.
package transcoder
