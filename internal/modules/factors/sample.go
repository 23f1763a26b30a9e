package factors

import (
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// WithSampleData returns a factor model loaded with the six style/risk
// factors, sample returns, a symmetric positive definite covariance matrix,
// and exposures for the demo portfolio and benchmark.
func WithSampleData(log zerolog.Logger) *Model {
	factors := []Factor{
		{ID: "momentum", Name: "Momentum", Category: "Style"},
		{ID: "value", Name: "Value", Category: "Style"},
		{ID: "size", Name: "Size", Category: "Style"},
		{ID: "quality", Name: "Quality", Category: "Style"},
		{ID: "volatility", Name: "Volatility", Category: "Risk"},
		{ID: "growth", Name: "Growth", Category: "Style"},
	}

	returns := map[string]float64{
		"momentum":   0.02,
		"value":      0.01,
		"size":       -0.01,
		"quality":    0.03,
		"volatility": -0.02,
		"growth":     0.015,
	}

	covariance := mat.NewSymDense(6, []float64{
		0.04, 0.01, 0.00, 0.01, -0.02, 0.01,
		0.01, 0.02, 0.00, 0.00, -0.01, 0.00,
		0.00, 0.00, 0.03, 0.00, 0.01, 0.00,
		0.01, 0.00, 0.00, 0.01, 0.00, 0.01,
		-0.02, -0.01, 0.01, 0.00, 0.05, -0.01,
		0.01, 0.00, 0.00, 0.01, -0.01, 0.02,
	})

	m := NewModel(factors, returns, covariance, log)
	m.SetExposures("portfolio-123", map[string]float64{
		"momentum":   0.3,
		"value":      0.5,
		"size":       -0.2,
		"quality":    0.7,
		"volatility": -0.4,
		"growth":     0.1,
	})
	m.SetExposures("benchmark-sp500", map[string]float64{
		"momentum":   0.1,
		"value":      0.0,
		"size":       0.0,
		"quality":    0.2,
		"volatility": 0.0,
		"growth":     0.3,
	})
	return m
}
