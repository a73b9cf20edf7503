package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastConstantSeriesFastPath(t *testing.T) {
	history := []float64{5, 5, 5, 5, 5}
	out, err := Forecast(history, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5}, out)
}

func TestForecastRepeatingPatternFastPath(t *testing.T) {
	history := []float64{1, 2, 3, 1, 2, 3, 1, 2, 3}
	out, err := Forecast(history, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestForecastEmptyHistoryErrors(t *testing.T) {
	_, err := Forecast(nil, 5, 0)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestForecastZeroHorizonReturnsNil(t *testing.T) {
	out, err := Forecast([]float64{1, 2, 3}, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestForecastIsAlwaysNonNegativeInteger(t *testing.T) {
	history := []float64{10, 12, 9, 14, 8, 15, 7, 16, 6, 17, 5, 18}
	out, err := Forecast(history, 5, 0)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Equal(t, v, float64(int64(v)))
	}
}

func TestForecastTrendingSeriesStaysPlausible(t *testing.T) {
	history := make([]float64, 24)
	for i := range history {
		history[i] = float64(100 + i*2)
	}
	out, err := Forecast(history, MonthlyForecastHorizon, MonthlySeasonality)
	require.NoError(t, err)
	require.Len(t, out, MonthlyForecastHorizon)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestDetectSeasonalityFindsKnownPeriod(t *testing.T) {
	history := make([]float64, 36)
	for i := range history {
		history[i] = float64(i % 12)
	}
	assert.Equal(t, 12, DetectSeasonality(history))
}

func TestDetectSeasonalityReturnsZeroForNoise(t *testing.T) {
	history := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	assert.Equal(t, 0, DetectSeasonality(history))
}
