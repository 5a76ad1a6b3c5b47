// Package notifications delivers pipeline events via ntfy.
//
// NewService publishes to the topic URL configured under [notifications] and
// degrades to a no-op when no topic is set. Completed and failed operations
// can be toggled independently; rejected requests never notify.
package notifications
