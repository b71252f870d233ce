// Package snapshot provides cache.Snapshots backends: Memory for tests and
// short-lived agents, SQLite for an agent that must survive restarts.
package snapshot
