package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/agent/cache"
	"github.com/dmitrijs2005/manholepro/internal/agent/migrations"
	"github.com/dmitrijs2005/manholepro/internal/agent/repositories/metadata"
	"github.com/dmitrijs2005/manholepro/internal/dbx"
	"github.com/dmitrijs2005/manholepro/internal/filex"

	_ "modernc.org/sqlite"
)

var _ cache.Snapshots = (*SQLite)(nil)

// SQLite keeps snapshots in a SQLite database so that the active version
// survives restarts.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the snapshot database at dsn and
// applies its migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if path, ok := dbx.FilePath(dsn); ok {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := dbx.Migrate(ctx, db, migrations.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Versions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT version FROM assets ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLite) PutAll(ctx context.Context, version string, assets []cache.Asset) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE version = ?`, version); err != nil {
			return fmt.Errorf("failed to clear version %s: %w", version, err)
		}
		for _, a := range assets {
			if err := putAsset(ctx, tx, version, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) Put(ctx context.Context, version string, asset cache.Asset) error {
	return putAsset(ctx, s.db, version, asset)
}

func putAsset(ctx context.Context, db dbx.DBTX, version string, a cache.Asset) error {
	header, err := json.Marshal(a.Header)
	if err != nil {
		return fmt.Errorf("failed to encode header of %s: %w", a.Key, err)
	}
	body := a.Body
	if body == nil {
		body = []byte{}
	}

	// SQLite integers are signed; the hash keeps its bits through int64.
	_, err = db.ExecContext(ctx, `
		INSERT INTO assets (version, key, status, header, body, hash, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(version, key) DO UPDATE SET status = excluded.status,
			header = excluded.header, body = excluded.body,
			hash = excluded.hash, stored_at = excluded.stored_at
	`, version, a.Key, a.Status, header, body, int64(a.Hash), a.StoredAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store %s@%s: %w", a.Key, version, err)
	}
	return nil
}

func (s *SQLite) Match(ctx context.Context, version, key string) (cache.Asset, bool, error) {
	var (
		a        = cache.Asset{Key: key}
		header   []byte
		hash     int64
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status, header, body, hash, stored_at FROM assets WHERE version = ? AND key = ?
	`, version, key).Scan(&a.Status, &header, &a.Body, &hash, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Asset{}, false, nil
	}
	if err != nil {
		return cache.Asset{}, false, fmt.Errorf("failed to read %s@%s: %w", key, version, err)
	}

	a.Header = http.Header{}
	if err := json.Unmarshal(header, &a.Header); err != nil {
		return cache.Asset{}, false, fmt.Errorf("failed to decode header of %s: %w", key, err)
	}
	a.Hash = uint64(hash)
	a.StoredAt = time.UnixMilli(storedAt).UTC()
	return a, true, nil
}

func (s *SQLite) Keys(ctx context.Context, version string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM assets WHERE version = ? ORDER BY key`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of %s: %w", version, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, version string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE version = ?`, version); err != nil {
		return fmt.Errorf("failed to delete version %s: %w", version, err)
	}
	return nil
}

func (s *SQLite) ActiveVersion(ctx context.Context) (string, error) {
	v, _, err := metadata.NewSQLiteRepository(s.db).Get(ctx, metadata.ActiveVersionKey)
	return v, err
}

// SetActiveVersion records version; the empty string clears it.
func (s *SQLite) SetActiveVersion(ctx context.Context, version string) error {
	repo := metadata.NewSQLiteRepository(s.db)
	if version == "" {
		return repo.Delete(ctx, metadata.ActiveVersionKey)
	}
	return repo.Set(ctx, metadata.ActiveVersionKey, version)
}
