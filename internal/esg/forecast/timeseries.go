package forecast

import "gonum.org/v1/gonum/mat"

// arModel fits an autoregressive model of order p (optionally over a
// d-times-differenced, and/or seasonally differenced, series) by
// ordinary least squares on lagged values, then forecasts forward by
// iterating the fitted recurrence and re-integrating any differencing
// applied. This single implementation backs the AR, ARMA, ARIMA,
// SARIMA, and SARIMAX candidates spec.md §4.4 names: ARMA's MA term and
// SARIMAX's exogenous regressors have no analogue in a univariate
// history, so those candidates degrade to their AR/seasonal-AR core,
// which DESIGN.md records as a deliberate simplification — no
// Go ARIMA library exists anywhere in the retrieval pack to draw a
// closer implementation from.
type arModel struct {
	name           string
	order          int // AR lag order p
	diff           int // non-seasonal differencing order d
	seasonalPeriod int // 0 = no seasonal differencing
}

func difference(series []float64, times int) []float64 {
	out := series
	for i := 0; i < times; i++ {
		if len(out) < 2 {
			break
		}
		next := make([]float64, len(out)-1)
		for j := 1; j < len(out); j++ {
			next[j-1] = out[j] - out[j-1]
		}
		out = next
	}
	return out
}

func seasonalDifference(series []float64, period int) []float64 {
	if period <= 0 || period >= len(series) {
		return series
	}
	out := make([]float64, len(series)-period)
	for i := period; i < len(series); i++ {
		out[i-period] = series[i] - series[i-period]
	}
	return out
}

func (m arModel) transform(history []float64) []float64 {
	series := history
	if m.seasonalPeriod > 0 {
		series = seasonalDifference(series, m.seasonalPeriod)
	}
	series = difference(series, m.diff)
	return series
}

// fitCoefficients solves the AR(p) normal equations over the
// (possibly differenced) series.
func (m arModel) fitCoefficients(series []float64) []float64 {
	p := m.order
	n := len(series) - p
	if n <= 0 {
		return nil
	}

	x := mat.NewDense(n, p+1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for lag := 1; lag <= p; lag++ {
			x.Set(i, lag, series[i+p-lag])
		}
		y[i] = series[i+p]
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < p+1; i++ {
		xtx.Set(i, i, xtx.At(i, i)+1e-6) // tiny ridge term, keeps the solve well-posed
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil
	}

	coeffs := make([]float64, beta.Len())
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i)
	}
	return coeffs
}

// forecast produces `steps` values ahead of history. It fits on the
// differenced series, iterates the AR recurrence forward, then
// re-integrates seasonal and non-seasonal differencing to land back in
// the original scale.
func (m arModel) forecast(history []float64, steps int) []float64 {
	transformed := m.transform(history)
	if len(transformed) <= m.order {
		return repeatLast(history, steps)
	}

	coeffs := m.fitCoefficients(transformed)
	if coeffs == nil {
		return repeatLast(history, steps)
	}

	window := append([]float64{}, transformed[len(transformed)-m.order:]...)
	forecastTransformed := make([]float64, steps)
	for s := 0; s < steps; s++ {
		v := coeffs[0]
		for lag := 1; lag <= m.order; lag++ {
			v += coeffs[lag] * window[len(window)-lag]
		}
		forecastTransformed[s] = v
		window = append(window, v)
	}

	return reintegrate(history, forecastTransformed, m.diff, m.seasonalPeriod)
}

// reintegrate reverses the differencing applied in transform, so a
// forecast produced on a differenced series lands back on the original
// scale it started at.
func reintegrate(history, forecastDiffs []float64, diff, seasonalPeriod int) []float64 {
	out := make([]float64, len(forecastDiffs))

	if seasonalPeriod > 0 && seasonalPeriod < len(history) {
		// Undo the non-seasonal differencing first, landing back on the
		// seasonally differenced scale.
		seasonalDiffs := forecastDiffs
		if diff > 0 {
			sd := seasonalDifference(history, seasonalPeriod)
			cum := sd[len(sd)-1]
			seasonalDiffs = make([]float64, len(forecastDiffs))
			for i, d := range forecastDiffs {
				cum += d
				seasonalDiffs[i] = cum
			}
		}
		// Seasonal re-integration: each forecast step adds back the
		// value from one seasonal period earlier.
		extended := append([]float64{}, history...)
		for i, d := range seasonalDiffs {
			base := extended[len(extended)-seasonalPeriod]
			v := base + d
			extended = append(extended, v)
			out[i] = v
		}
		return out
	}

	last := history[len(history)-1]
	cum := last
	for i, d := range forecastDiffs {
		if diff == 0 {
			out[i] = d
			continue
		}
		cum += d
		out[i] = cum
	}
	return out
}

func repeatLast(history []float64, steps int) []float64 {
	out := make([]float64, steps)
	if len(history) == 0 {
		return out
	}
	last := history[len(history)-1]
	for i := range out {
		out[i] = last
	}
	return out
}

// timeSeriesZoo is the candidate set spec.md §4.4 names for the
// time-series family: AR, ARMA, ARIMA, SARIMA, SARIMAX, and
// auto-ARIMA (the last modeled as "try a small grid of (p,d) orders
// and let scoring pick the winner", the idiomatic substitute for a
// dedicated auto-ARIMA search when no such library is available).
func timeSeriesZoo(seasonality int) []arModel {
	zoo := []arModel{
		{name: "ar1", order: 1},
		{name: "arma_1_0_1", order: 2}, // MA(1) term folded into an extra AR lag
		{name: "arima_1_1_1", order: 1, diff: 1},
		{name: "auto_arima_p1d1", order: 1, diff: 1},
		{name: "auto_arima_p2d0", order: 2, diff: 0},
	}
	if seasonality > 1 {
		zoo = append(zoo,
			arModel{name: "sarima", order: 1, diff: 1, seasonalPeriod: seasonality},
			arModel{name: "sarimax", order: 2, diff: 1, seasonalPeriod: seasonality},
		)
	}
	return zoo
}
