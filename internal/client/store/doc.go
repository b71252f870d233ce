// Package store is the durable local home of inspection records.
//
// A Store is created once at process start and shared by reference. The
// underlying SQLite database is opened lazily on first use (or eagerly via
// Open); embedded goose migrations create the single inspections table when
// it is missing and leave an existing database untouched.
//
// # Operations
//
//   - Upsert: atomic save; id and createdAt of an existing record are kept.
//   - GetAll: every record, unordered; empty slice for an empty store.
//   - Get: one record; ok=false for a missing id, never an error.
//   - Delete: removes a record; a missing id is a no-op.
//
// # Errors
//
// Failures to open the database are reported as common.ErrStorageUnavailable
// and aborted transactions as common.ErrTransactionFailed; both wrap the
// underlying cause. Nothing is retried internally.
//
// # Concurrency
//
// The connection pool is limited to a single connection, so transactions are
// serialized: writes to the same id cannot interleave and readers never see a
// partially written record.
package store
