package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// newMemStore returns a store over a private in-memory database and the raw
// handle it opened, for tests that need to tamper with the schema.
func newMemStore(t *testing.T, opts ...Option) (*Store, func() *sql.DB) {
	t.Helper()
	var (
		mu     sync.Mutex
		opened *sql.DB
	)
	opener := func(driver, dsn string) (*sql.DB, error) {
		db, err := sql.Open(driver, dsn)
		mu.Lock()
		opened = db
		mu.Unlock()
		return db, err
	}
	s := New(":memory:", append([]Option{WithOpener(opener)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s, func() *sql.DB {
		mu.Lock()
		defer mu.Unlock()
		return opened
	}
}

func sampleRecord() models.Inspection {
	return models.Inspection{
		ID:        "r1",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ManholeID: "MH-12",
		Connections: []models.PipeConnection{
			{PositionDeg: ptr(90.0), DepthInvertM: ptr(1.2), PipeDiameterMM: ptr(225.0), Notes: ptr("ok")},
		},
	}
}

func TestStore_ConcreteScenario(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	_, err := s.Upsert(ctx, rec)
	require.NoError(t, err)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, cmp.Diff(rec, all[0]))

	require.NoError(t, s.Delete(ctx, "r1"))

	all, err = s.GetAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestStore_UpsertThenGetRoundTrips(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	full := models.Inspection{
		ID:                  "full",
		CreatedAt:           time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Date:                "2024-05-06",
		Time:                "07:08",
		Inspector:           "J. Doe",
		SiteCode:            "SW-023",
		ManholeID:           "MH-7",
		SystemType:          "road drainage",
		Location:            &models.Location{Lat: ptr(51.5), Lon: ptr(-0.12), Acc: nil},
		AccessCoverSize:     "600x600",
		AccessType:          models.AccessStepIrons,
		DepthChamberInvertM: ptr(2.35),
		Connections: []models.PipeConnection{
			{PositionDeg: ptr(0.0), Notes: ptr("")},
			{PipeDiameterMM: ptr(300.0)},
		},
		Features:      models.Features{Penstock: true, Other: "flow meter"},
		Observations:  "silt at invert",
		Photos:        models.Photos{Cover: ptr("data:image/jpeg;base64,AAAA")},
		SketchDataURL: ptr("data:image/png;base64,BBBB"),
	}
	draft := models.Inspection{ID: "draft", CreatedAt: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)}
	// A blank form starts with an empty connection list, which must not come
	// back as nil.
	blank := models.Inspection{
		ID:          "blank",
		CreatedAt:   time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
		AccessType:  models.AccessNone,
		Connections: []models.PipeConnection{},
	}

	for _, rec := range []models.Inspection{full, draft, blank} {
		saved, err := s.Upsert(ctx, rec)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(rec, saved))

		got, ok, err := s.Get(ctx, rec.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, cmp.Diff(rec, got))
	}
}

func TestStore_GetMissingIsNotAnError(t *testing.T) {
	s, _ := newMemStore(t)

	got, ok, err := s.Get(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.Inspection{}, got)
}

func TestStore_UpsertKeepsIDAndCreatedAt(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	first := sampleRecord()
	_, err := s.Upsert(ctx, first)
	require.NoError(t, err)

	second := first
	second.CreatedAt = first.CreatedAt.Add(48 * time.Hour)
	second.ManholeID = "MH-13"
	second.Connections = nil
	second.Observations = "re-inspected"

	saved, err := s.Upsert(ctx, second)
	require.NoError(t, err)
	assert.True(t, saved.CreatedAt.Equal(first.CreatedAt))

	got, ok, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r1", got.ID)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt))
	assert.Equal(t, "MH-13", got.ManholeID)
	assert.Equal(t, "re-inspected", got.Observations)
	assert.Nil(t, got.Connections)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_UpsertStampsMissingCreatedAt(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 789_000_000, time.UTC)
	s, _ := newMemStore(t, WithClock(func() time.Time { return now }))

	saved, err := s.Upsert(context.Background(), models.Inspection{ID: "stamp"})
	require.NoError(t, err)
	assert.True(t, saved.CreatedAt.Equal(now))
}

func TestStore_UpsertRejectsInvalid(t *testing.T) {
	s, _ := newMemStore(t)

	_, err := s.Upsert(context.Background(), models.Inspection{})
	require.ErrorIs(t, err, common.ErrInvalidInspection)
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "ghost"))

	_, err := s.Upsert(ctx, sampleRecord())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "r1"))

	_, ok, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_GetAllReturnsExactlyN(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Upsert(ctx, models.Inspection{ID: fmt.Sprintf("id-%02d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)

	seen := make(map[string]bool, n)
	for _, rec := range all {
		assert.False(t, seen[rec.ID], "duplicate %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestStore_SameIDWritesAreLinearized(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Upsert(ctx, models.Inspection{
				ID:        "same",
				CreatedAt: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
				Inspector: fmt.Sprintf("writer-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, ok, err := s.Get(ctx, "same")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, got.Inspector, "writer-")

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// whichever writer was first fixed createdAt for everyone after it
	var created string
	require.NoError(t, s.db.QueryRow(`SELECT created_at FROM inspections WHERE id = 'same'`).Scan(&created))
	assert.Equal(t, got.CreatedAt.Format(time.RFC3339Nano), created)
}

func TestStore_FailedUpsertLeavesPriorState(t *testing.T) {
	s, raw := newMemStore(t)
	ctx := context.Background()

	orig := sampleRecord()
	_, err := s.Upsert(ctx, orig)
	require.NoError(t, err)

	_, err = raw().Exec(`CREATE TRIGGER quota BEFORE UPDATE ON inspections
		BEGIN SELECT RAISE(ABORT, 'quota exceeded'); END;`)
	require.NoError(t, err)

	changed := orig
	changed.ManholeID = "MH-99"
	_, err = s.Upsert(ctx, changed)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransactionFailed)

	got, ok, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MH-12", got.ManholeID)
}

func TestStore_ReadFailureIsTransactionFailed(t *testing.T) {
	s, raw := newMemStore(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	_, err := raw().Exec(`DROP TABLE inspections`)
	require.NoError(t, err)

	_, err = s.GetAll(ctx)
	assert.ErrorIs(t, err, common.ErrTransactionFailed)

	_, _, err = s.Get(ctx, "x")
	assert.ErrorIs(t, err, common.ErrTransactionFailed)

	assert.ErrorIs(t, s.Delete(ctx, "x"), common.ErrTransactionFailed)
}

func TestStore_StorageUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("opener fails", func(t *testing.T) {
		calls := 0
		s := New(":memory:", WithOpener(func(string, string) (*sql.DB, error) {
			calls++
			return nil, errors.New("permission denied")
		}))

		_, err := s.Upsert(ctx, sampleRecord())
		assert.ErrorIs(t, err, common.ErrStorageUnavailable)
		_, err = s.GetAll(ctx)
		assert.ErrorIs(t, err, common.ErrStorageUnavailable)
		_, _, err = s.Get(ctx, "r1")
		assert.ErrorIs(t, err, common.ErrStorageUnavailable)
		assert.ErrorIs(t, s.Delete(ctx, "r1"), common.ErrStorageUnavailable)
		assert.Equal(t, 4, calls, "each call tries once, no internal retries")
	})

	t.Run("parent is a file", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		s := New(FileDSN(filepath.Join(blocker, "manhole.db")))
		err := s.Open(ctx)
		assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	})

	t.Run("closed store", func(t *testing.T) {
		s, _ := newMemStore(t)
		require.NoError(t, s.Open(ctx))
		require.NoError(t, s.Close())

		_, err := s.GetAll(ctx)
		assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	})
}

func TestStore_OpensOnceAndSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "manhole.db")

	opens := 0
	opener := func(driver, dsn string) (*sql.DB, error) {
		opens++
		return sql.Open(driver, dsn)
	}

	s1 := New(FileDSN(path), WithOpener(opener))
	for i := 0; i < 3; i++ {
		require.NoError(t, s1.Open(ctx))
	}
	_, err := s1.Upsert(ctx, sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 1, opens)
	require.NoError(t, s1.Close())

	// reopening runs migrations again; existing data must survive
	for i := 0; i < 2; i++ {
		s := New(FileDSN(path))
		got, ok, err := s.Get(ctx, "r1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, cmp.Diff(sampleRecord(), got))
		require.NoError(t, s.Close())
	}
}
