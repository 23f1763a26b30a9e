package model

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aristath/loom/internal/database"
	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryRegisterAndGet(t *testing.T) {
	repo := NewMemoryRepository(zerolog.Nop())
	require.NoError(t, repo.Register(directModel()))

	got, err := repo.Get("growth-equity")
	require.NoError(t, err)
	assert.Equal(t, "growth-equity", got.ID)
	assert.InDelta(t, 0.25, got.Securities["AAPL"], 1e-12)

	// The repository hands out copies.
	got.Securities["AAPL"] = 0.99
	again, err := repo.Get("growth-equity")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, again.Securities["AAPL"], 1e-12)
}

func TestMemoryRepositoryGetUnknown(t *testing.T) {
	repo := NewMemoryRepository(zerolog.Nop())

	_, err := repo.Get("missing")
	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.ID)
}

func TestMemoryRepositoryRejectsInvalidModel(t *testing.T) {
	repo := NewMemoryRepository(zerolog.Nop())
	bad := directModel()
	bad.Securities["AAPL"] = 0.5

	require.Error(t, repo.Register(bad))
	_, err := repo.Get(bad.ID)
	assert.Error(t, err)
}

func TestMemoryRepositoryRejectsCycles(t *testing.T) {
	repo := NewMemoryRepository(zerolog.Nop())
	require.NoError(t, repo.Register(directModel()))

	a := &domain.ModelPortfolio{
		ID:          "model-a",
		ModelType:   domain.ModelTypeComposite,
		ChildModels: map[string]float64{"model-b": 1.0},
	}
	// Forward reference to model-b is allowed.
	require.NoError(t, repo.Register(a))

	b := &domain.ModelPortfolio{
		ID:          "model-b",
		ModelType:   domain.ModelTypeComposite,
		ChildModels: map[string]float64{"model-a": 1.0},
	}
	err := repo.Register(b)
	require.Error(t, err)

	var modelErr *domain.ModelPortfolioError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, domain.ModelErrorInvalidStructure, modelErr.Kind)

	t.Run("self reference rejected", func(t *testing.T) {
		selfRef := &domain.ModelPortfolio{
			ID:          "model-self",
			ModelType:   domain.ModelTypeComposite,
			ChildModels: map[string]float64{"model-self": 1.0},
		}
		require.Error(t, repo.Register(selfRef))
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		left := &domain.ModelPortfolio{
			ID:          "diamond-left",
			ModelType:   domain.ModelTypeComposite,
			ChildModels: map[string]float64{"growth-equity": 1.0},
		}
		right := &domain.ModelPortfolio{
			ID:          "diamond-right",
			ModelType:   domain.ModelTypeComposite,
			ChildModels: map[string]float64{"growth-equity": 1.0},
		}
		top := &domain.ModelPortfolio{
			ID:        "diamond-top",
			ModelType: domain.ModelTypeComposite,
			ChildModels: map[string]float64{
				"diamond-left":  0.5,
				"diamond-right": 0.5,
			},
		}
		require.NoError(t, repo.Register(left))
		require.NoError(t, repo.Register(right))
		require.NoError(t, repo.Register(top))
	})
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "models.db"),
		Name: "models-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo, err := NewSQLiteRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, err)

	m := directModel()
	m.AssetAllocation = map[string]float64{"Equity": 1.0}
	m.SectorAllocation = map[string]float64{"Technology": 0.75, "Communication Services": 0.25}
	require.NoError(t, repo.Save(m))

	got, err := repo.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, domain.ModelTypeDirect, got.ModelType)
	assert.InDelta(t, 0.25, got.Securities["GOOGL"], 1e-12)
	assert.InDelta(t, 1.0, got.AssetAllocation["Equity"], 1e-12)
	assert.NoError(t, Validate(got))
}

func TestSQLiteRepositorySaveIsUpsert(t *testing.T) {
	db := newTestDB(t)
	repo, err := NewSQLiteRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, err)

	m := directModel()
	require.NoError(t, repo.Save(m))

	m.Securities = map[string]float64{"AAPL": 0.5, "MSFT": 0.5}
	require.NoError(t, repo.Save(m))

	got, err := repo.Get(m.ID)
	require.NoError(t, err)
	assert.Len(t, got.Securities, 2)
	assert.InDelta(t, 0.5, got.Securities["MSFT"], 1e-12)
}

func TestSQLiteRepositoryGetUnknown(t *testing.T) {
	db := newTestDB(t)
	repo, err := NewSQLiteRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, err)

	_, err = repo.Get("missing")
	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestSQLiteRepositoryDeleteAndList(t *testing.T) {
	db := newTestDB(t)
	repo, err := NewSQLiteRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, repo.Save(directModel()))
	ids, err := repo.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"growth-equity"}, ids)

	require.NoError(t, repo.Delete("growth-equity"))
	require.NoError(t, repo.Delete("growth-equity"), "delete is idempotent")

	ids, err = repo.ListIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
