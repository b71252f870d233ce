// Package inspections provides the persistence layer for inspection records.
//
// # Overview
//
// The package defines a Repository interface for CRUD operations on
// models.Inspection. A SQLite-backed implementation (SQLiteRepository)
// persists data using a dbx.DBTX (either *sql.DB or *sql.Tx), so the same
// repository works inside and outside a transaction.
//
// # Data Model
//
// Each record is stored as a single JSON document keyed by id, next to the
// immutable created_at column and an updated_at timestamp (Unix millis).
// Writing the whole document in one statement keeps saves all-or-nothing.
//
// # Not Found
//
// GetByID and CreatedAt return common.ErrorNotFound for a missing id.
// DeleteByID on a missing id succeeds.
//
// Typical Usage
//
//	repo := inspections.NewSQLiteRepository(tx)
//	_ = repo.CreateOrUpdate(ctx, &rec)
//	list, _ := repo.GetAll(ctx)
//	one, _ := repo.GetByID(ctx, id)
//	_ = repo.DeleteByID(ctx, id)
package inspections
