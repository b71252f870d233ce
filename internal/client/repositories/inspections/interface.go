package inspections

import (
	"context"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
)

// Repository describes CRUD operations for inspection records.
type Repository interface {
	// CreateOrUpdate inserts a record or replaces the document of an existing
	// one. The stored created_at column is never changed by an update.
	CreateOrUpdate(ctx context.Context, rec *models.Inspection) error

	// CreatedAt returns the stored creation time of id.
	CreatedAt(ctx context.Context, id string) (time.Time, error)

	// GetAll returns every stored record in no particular order.
	GetAll(ctx context.Context) ([]models.Inspection, error)

	// GetByID returns a single record.
	GetByID(ctx context.Context, id string) (*models.Inspection, error)

	// DeleteByID removes the record if present.
	DeleteByID(ctx context.Context, id string) error
}
