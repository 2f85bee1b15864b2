// Package task runs background work outside of HTTP request handling.
// It provides a persisted queue and worker pool used for long-running
// operations such as sealing daily audit snapshots, with recovery of
// unfinished tasks after application restarts.
package task
