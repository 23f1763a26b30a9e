package model

import (
	"errors"
	"testing"

	"github.com/aristath/loom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directModel() *domain.ModelPortfolio {
	return &domain.ModelPortfolio{
		ID:        "growth-equity",
		Name:      "Growth Equity",
		ModelType: domain.ModelTypeDirect,
		Securities: map[string]float64{
			"AAPL": 0.25, "MSFT": 0.25, "AMZN": 0.25, "GOOGL": 0.25,
		},
	}
}

func TestValidateDirectModel(t *testing.T) {
	assert.NoError(t, Validate(directModel()))
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	m := directModel()
	m.Securities["AAPL"] = 0.30

	err := Validate(m)
	require.Error(t, err)

	var modelErr *domain.ModelPortfolioError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, domain.ModelErrorInvalidWeights, modelErr.Kind)
}

func TestValidateAcceptsWeightSumWithinTolerance(t *testing.T) {
	m := directModel()
	m.Securities["AAPL"] = 0.25 + 5e-5

	assert.NoError(t, Validate(m))
}

func TestValidateDirectModelStructure(t *testing.T) {
	t.Run("rejects child models", func(t *testing.T) {
		m := directModel()
		m.ChildModels = map[string]float64{"bond-core": 1.0}

		err := Validate(m)
		var modelErr *domain.ModelPortfolioError
		require.True(t, errors.As(err, &modelErr))
		assert.Equal(t, domain.ModelErrorInvalidStructure, modelErr.Kind)
	})

	t.Run("rejects empty securities", func(t *testing.T) {
		m := directModel()
		m.Securities = map[string]float64{}

		err := Validate(m)
		var modelErr *domain.ModelPortfolioError
		require.True(t, errors.As(err, &modelErr))
		assert.Equal(t, domain.ModelErrorInvalidStructure, modelErr.Kind)
	})
}

func TestValidateCompositeModel(t *testing.T) {
	m := &domain.ModelPortfolio{
		ID:        "balanced",
		ModelType: domain.ModelTypeComposite,
		ChildModels: map[string]float64{
			"growth-equity": 0.6,
			"bond-core":     0.4,
		},
	}
	assert.NoError(t, Validate(m))

	t.Run("rejects direct securities", func(t *testing.T) {
		bad := m.Clone()
		bad.Securities = map[string]float64{"AAPL": 0.1}

		err := Validate(bad)
		var modelErr *domain.ModelPortfolioError
		require.True(t, errors.As(err, &modelErr))
		assert.Equal(t, domain.ModelErrorInvalidStructure, modelErr.Kind)
	})

	t.Run("rejects empty children", func(t *testing.T) {
		bad := m.Clone()
		bad.ChildModels = nil

		require.Error(t, Validate(bad))
	})
}

func TestValidateHybridModel(t *testing.T) {
	m := &domain.ModelPortfolio{
		ID:          "core-satellite",
		ModelType:   domain.ModelTypeHybrid,
		Securities:  map[string]float64{"AAPL": 0.2, "MSFT": 0.2},
		ChildModels: map[string]float64{"bond-core": 0.6},
	}
	assert.NoError(t, Validate(m))

	t.Run("rejects combined sum off by more than tolerance", func(t *testing.T) {
		bad := m.Clone()
		bad.ChildModels["bond-core"] = 0.7

		err := Validate(bad)
		var modelErr *domain.ModelPortfolioError
		require.True(t, errors.As(err, &modelErr))
		assert.Equal(t, domain.ModelErrorInvalidWeights, modelErr.Kind)
	})

	t.Run("rejects missing side", func(t *testing.T) {
		bad := m.Clone()
		bad.Securities = nil

		err := Validate(bad)
		var modelErr *domain.ModelPortfolioError
		require.True(t, errors.As(err, &modelErr))
		assert.Equal(t, domain.ModelErrorInvalidStructure, modelErr.Kind)
	})
}

func TestValidateUnknownModelType(t *testing.T) {
	m := directModel()
	m.ModelType = domain.ModelType("SLICED")

	err := Validate(m)
	var modelErr *domain.ModelPortfolioError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, domain.ModelErrorInvalidStructure, modelErr.Kind)
}
