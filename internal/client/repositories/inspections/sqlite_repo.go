package inspections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/dmitrijs2005/manholepro/internal/dbx"
)

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// CreateOrUpdate upserts a record by id. On conflict only the document and
// updated_at are replaced.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, rec *models.Inspection) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode inspection: %w", err)
	}

	query := `INSERT INTO inspections (id, created_at, updated_at, document)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at,
				document = excluded.document
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano), r.now().UTC().UnixMilli(), doc)
	if err != nil {
		return fmt.Errorf("failed to upsert inspection: %w", err)
	}
	return nil
}

// CreatedAt returns the created_at column of id.
func (r *SQLiteRepository) CreatedAt(ctx context.Context, id string) (time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT created_at FROM inspections WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, common.ErrorNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query row scan failed: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad created_at for %s: %w", id, err)
	}
	return t, nil
}

// GetAll lists all records. The result is empty, not nil, for an empty table.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Inspection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, document FROM inspections`)
	if err != nil {
		return nil, fmt.Errorf("failed to select inspections: %w", err)
	}
	defer rows.Close()

	result := make([]models.Inspection, 0)
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var item models.Inspection
		if err := json.Unmarshal(doc, &item); err != nil {
			return nil, fmt.Errorf("failed to decode inspection %s: %w", id, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the record for id or common.ErrorNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Inspection, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM inspections WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	rec := &models.Inspection{}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("failed to decode inspection %s: %w", id, err)
	}
	return rec, nil
}

// DeleteByID removes id. Zero affected rows is not an error.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inspections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete inspection: %w", err)
	}
	return nil
}
