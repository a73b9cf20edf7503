package forecast

import "gonum.org/v1/gonum/stat"

// DetectSeasonality estimates a repeating period in history using the
// autocorrelation function: it returns the lag with the highest
// autocorrelation among lags 2..len(history)/2, provided that
// autocorrelation clears a noise floor. Returns 0 when no lag looks
// seasonal, grounded on original_source/sarima.py's detect_seasonality
// ACF-peak approach.
func DetectSeasonality(history []float64) int {
	n := len(history)
	if n < 8 {
		return 0
	}

	maxLag := n / 2
	bestLag := 0
	bestCorr := 0.3 // noise floor: below this, nothing looks seasonal

	for lag := 2; lag <= maxLag; lag++ {
		a := history[:n-lag]
		b := history[lag:]
		corr := stat.Correlation(a, b, nil)
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	return bestLag
}

// IsConstant reports whether every value in history is equal, the
// fastest fast-path forecast.Forecast takes.
func IsConstant(history []float64) bool {
	if len(history) == 0 {
		return false
	}
	first := history[0]
	for _, v := range history[1:] {
		if v != first {
			return false
		}
	}
	return true
}

// RepeatingPrefix reports whether history is entirely made up of whole
// repetitions of its own prefix of length period (period > 0 and
// period < len(history)). Used for the repeating-pattern fast path.
func RepeatingPrefix(history []float64, period int) bool {
	if period <= 0 || period >= len(history) {
		return false
	}
	for i := period; i < len(history); i++ {
		if history[i] != history[i%period] {
			return false
		}
	}
	return true
}
