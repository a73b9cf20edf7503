// Package forecast implements the forecasting driver contract spec.md
// §4.4 names: forecast(history, horizon, seasonality) -> []float64,
// with fast paths for degenerate series, a candidate model zoo spanning
// a regression family and a time-series family, RMSE/MAE combined
// scoring, and a guaranteed non-negative integer result.
package forecast

import (
	"errors"
	"math"
)

// ErrEmptyHistory is returned when Forecast is called with no
// observations to learn from.
var ErrEmptyHistory = errors.New("forecast: history must not be empty")

type candidate struct {
	name     string
	forecast func(history []float64, steps int) []float64
}

// Forecast produces `horizon` future values following `history`. When
// seasonality > 1 the time-series candidate zoo includes seasonal
// models tuned to that period. The result is always non-negative and
// integer-valued, per spec.md §4.4.
func Forecast(history []float64, horizon, seasonality int) ([]float64, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	if horizon <= 0 {
		return nil, nil
	}

	if IsConstant(history) {
		return clampNonNegativeInt(repeatLast(history, horizon)), nil
	}

	if seasonality > 1 && RepeatingPrefix(history, seasonality) {
		return clampNonNegativeInt(continuePattern(history, seasonality, horizon)), nil
	}

	candidates := buildCandidates(seasonality)

	best, ok := selectBest(history, candidates)
	if !ok {
		// Total degeneracy: every candidate failed to produce a usable
		// backtest. Fall back to a plain AR(1) fit on the full history.
		fallback := arModel{name: "ar1_fallback", order: 1}
		return clampNonNegativeInt(fallback.forecast(history, horizon)), nil
	}

	return clampNonNegativeInt(best.forecast(history, horizon)), nil
}

func buildCandidates(seasonality int) []candidate {
	var candidates []candidate
	for _, m := range regressionZoo() {
		m := m
		candidates = append(candidates, candidate{name: m.name, forecast: m.forecast})
	}
	for _, m := range timeSeriesZoo(seasonality) {
		m := m
		candidates = append(candidates, candidate{name: m.name, forecast: m.forecast})
	}
	return candidates
}

// selectBest backtests every candidate against a held-out tail of
// history and returns the one with the lowest combined score
// (0.25*RMSE + 0.75*MAE), grounded on original_source/sarima.py's model
// selection loop.
func selectBest(history []float64, candidates []candidate) (candidate, bool) {
	testLen := len(history) / 4
	if testLen < 1 {
		testLen = 1
	}
	if testLen >= len(history) {
		testLen = len(history) - 1
	}
	if testLen <= 0 {
		return candidate{}, false
	}

	train := history[:len(history)-testLen]
	actual := history[len(history)-testLen:]

	var best candidate
	bestScore := math.Inf(1)
	found := false

	for _, c := range candidates {
		predicted := safeForecast(c, train, len(actual))
		if predicted == nil {
			continue
		}
		score := combinedScore(actual, predicted)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		if score < bestScore {
			bestScore = score
			best = c
			found = true
		}
	}

	return best, found
}

// safeForecast guards against a candidate panicking on a pathological
// input (e.g. an AR order larger than the training window); any
// recovered panic is treated the same as "this candidate can't score".
func safeForecast(c candidate, train []float64, steps int) (result []float64) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	if len(train) == 0 {
		return nil
	}
	return c.forecast(train, steps)
}

func combinedScore(actual, predicted []float64) float64 {
	rmse := rootMeanSquaredError(actual, predicted)
	mae := meanAbsoluteError(actual, predicted)
	return 0.25*rmse + 0.75*mae
}

func rootMeanSquaredError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.Inf(1)
	}
	var sumSq float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(actual)))
}

func meanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.Inf(1)
	}
	var sumAbs float64
	for i := range actual {
		sumAbs += math.Abs(actual[i] - predicted[i])
	}
	return sumAbs / float64(len(actual))
}

// continuePattern extends a repeating-prefix series by cycling through
// its period, the fast path for inputs that already look like an exact
// repeating pattern.
func continuePattern(history []float64, period, steps int) []float64 {
	out := make([]float64, steps)
	n := len(history)
	for i := 0; i < steps; i++ {
		out[i] = history[(n+i)%period]
	}
	return out
}

func clampNonNegativeInt(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		rounded := math.Round(v)
		if rounded < 0 {
			rounded = 0
		}
		out[i] = rounded
	}
	return out
}
