// Package api is the thin JSON boundary over the pipeline controller. It
// routes HTTP requests to controller operations with gorilla/mux and
// translates controller results into transport-friendly DTOs.
//
// # Key Types
//
// OperationResult: wire form of a pipeline.Result with durations, attempts,
// and the error breakdown.
//
// Status: daemon runtime information including dependency and preflight
// checks.
//
// HistoryEntry/HistoryResponse: recorded operation results.
//
// LogsResponse: a window of the log file plus the byte offset to resume from.
// GET /api/logs answers 404 when Options.LogPath is empty and supports a
// bounded long-poll through the wait parameter.
//
// # Status Mapping
//
// Completed operations answer 200. A no_action outcome also answers 200
// with success=false. Precondition failures (input_not_found,
// insufficient_inputs, invalid_platform, size_limit_exceeded, validation)
// answer 400 and everything else 500.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Every response carries an X-Request-ID header, echoing the caller's value
// when one was sent. When a bearer token is configured every route except
// /healthz and /metrics requires it.
package api
