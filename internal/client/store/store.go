package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/client/migrations"
	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/dmitrijs2005/manholepro/internal/client/repositories/inspections"
	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/dmitrijs2005/manholepro/internal/dbx"
	"github.com/dmitrijs2005/manholepro/internal/filex"
	"github.com/dmitrijs2005/manholepro/internal/logging"
	"github.com/dmitrijs2005/manholepro/internal/observability"

	_ "modernc.org/sqlite"
)

// FileDSN builds the connection string for an inspection database file.
func FileDSN(path string) string {
	return dbx.FileDSN(path)
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithMetrics(m observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the time source used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithOpener replaces sql.Open. Tests use it to inject failing databases.
func WithOpener(open func(driver, dsn string) (*sql.DB, error)) Option {
	return func(s *Store) { s.open = open }
}

// Store owns the inspection database.
type Store struct {
	dsn     string
	logger  logging.Logger
	metrics observability.Metrics
	now     func() time.Time
	open    func(driver, dsn string) (*sql.DB, error)

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// New returns a Store for dsn. No I/O happens until the first operation.
func New(dsn string, opts ...Option) *Store {
	s := &Store{
		dsn:     dsn,
		logger:  logging.Discard(),
		metrics: observability.NopMetrics{},
		now:     time.Now,
		open:    sql.Open,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open initializes the database now instead of on first use.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.handle(ctx)
	return err
}

// handle returns the shared *sql.DB, opening it on first call. A failed open
// leaves the store uninitialized so that a later call can try again.
func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%w: store is closed", common.ErrStorageUnavailable)
	}
	if s.db != nil {
		return s.db, nil
	}

	db, err := s.initDatabase(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to open inspection database", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	s.db = db
	s.logger.Info(ctx, "inspection database ready")
	return db, nil
}

func (s *Store) initDatabase(ctx context.Context) (*sql.DB, error) {
	if path, ok := dbx.FilePath(s.dsn); ok {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := s.open("sqlite", s.dsn)
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
	return db, nil
}

// Close releases the database. Further operations fail with
// common.ErrStorageUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Upsert saves rec atomically and returns it as persisted. When a record
// with the same id exists, its CreatedAt wins over the incoming one.
func (s *Store) Upsert(ctx context.Context, rec models.Inspection) (saved models.Inspection, err error) {
	defer func() { s.metrics.StoreOp("upsert", err) }()

	if err := rec.Validate(); err != nil {
		return models.Inspection{}, err
	}

	db, err := s.handle(ctx)
	if err != nil {
		return models.Inspection{}, err
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := inspections.NewSQLiteRepository(tx)

		created, err := repo.CreatedAt(ctx, rec.ID)
		switch {
		case err == nil:
			rec.CreatedAt = created
		case errors.Is(err, common.ErrorNotFound):
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
			}
		default:
			return err
		}

		return repo.CreateOrUpdate(ctx, &rec)
	})
	if err != nil {
		s.logger.Warn(ctx, "inspection save failed", "id", rec.ID, "error", err)
		return models.Inspection{}, fmt.Errorf("%w: upsert %s: %w", common.ErrTransactionFailed, rec.ID, err)
	}

	s.logger.Debug(ctx, "inspection saved", "id", rec.ID)
	return rec, nil
}

// GetAll returns every stored record in no particular order.
func (s *Store) GetAll(ctx context.Context) (items []models.Inspection, err error) {
	defer func() { s.metrics.StoreOp("get_all", err) }()

	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	items, err = inspections.NewSQLiteRepository(db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", common.ErrTransactionFailed, err)
	}
	return items, nil
}

// Get returns the record for id. A missing id yields ok == false and a nil
// error.
func (s *Store) Get(ctx context.Context, id string) (rec models.Inspection, ok bool, err error) {
	defer func() { s.metrics.StoreOp("get", err) }()

	db, err := s.handle(ctx)
	if err != nil {
		return models.Inspection{}, false, err
	}

	found, err := inspections.NewSQLiteRepository(db).GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return models.Inspection{}, false, nil
	}
	if err != nil {
		return models.Inspection{}, false, fmt.Errorf("%w: get %s: %w", common.ErrTransactionFailed, id, err)
	}
	return *found, true, nil
}

// Delete removes id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.StoreOp("delete", err) }()

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return inspections.NewSQLiteRepository(tx).DeleteByID(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", common.ErrTransactionFailed, id, err)
	}
	s.logger.Debug(ctx, "inspection deleted", "id", id)
	return nil
}
