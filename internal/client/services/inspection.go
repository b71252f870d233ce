package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/google/uuid"
)

// Records is the subset of store.Store the service needs.
type Records interface {
	Upsert(ctx context.Context, rec models.Inspection) (models.Inspection, error)
	GetAll(ctx context.Context) ([]models.Inspection, error)
	Get(ctx context.Context, id string) (models.Inspection, bool, error)
	Delete(ctx context.Context, id string) error
}

type InspectionService interface {
	New() models.Inspection
	Save(ctx context.Context, rec models.Inspection) (models.Inspection, error)
	List(ctx context.Context) ([]models.Inspection, error)
	Get(ctx context.Context, id string) (models.Inspection, bool, error)
	Delete(ctx context.Context, id string) error
}

type inspectionService struct {
	records Records
	newID   func() string
	now     func() time.Time
}

func NewInspectionService(records Records) InspectionService {
	return &inspectionService{records: records, newID: uuid.NewString, now: time.Now}
}

// New returns a draft with a fresh id. Nothing is stored until Save.
func (s *inspectionService) New() models.Inspection {
	return models.NewInspection(s.newID(), s.now())
}

func (s *inspectionService) Save(ctx context.Context, rec models.Inspection) (models.Inspection, error) {
	saved, err := s.records.Upsert(ctx, rec)
	if err != nil {
		return models.Inspection{}, fmt.Errorf("saving error: %w", err)
	}
	return saved, nil
}

// List returns all records, newest first.
func (s *inspectionService) List(ctx context.Context) ([]models.Inspection, error) {
	items, err := s.records.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing inspections: %w", err)
	}
	models.SortNewestFirst(items)
	return items, nil
}

func (s *inspectionService) Get(ctx context.Context, id string) (models.Inspection, bool, error) {
	rec, ok, err := s.records.Get(ctx, id)
	if err != nil {
		return models.Inspection{}, false, fmt.Errorf("error retrieving inspection: %w", err)
	}
	return rec, ok, nil
}

func (s *inspectionService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting inspection: %w", err)
	}
	return nil
}
