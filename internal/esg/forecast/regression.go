package forecast

import (
	"gonum.org/v1/gonum/mat"
)

// regressionModel fits a curve over the time index 0..len(history)-1 and
// predicts `steps` values beyond it. All regression candidates in the
// zoo (OLS, ridge, lasso, elastic net, Bayesian ridge, polynomial) share
// this shape: build a design matrix, solve for coefficients, and
// project forward.
type regressionModel struct {
	name   string
	degree int     // 1 = linear feature, 2 = add quadratic feature
	l2     float64 // ridge / elastic-net L2 penalty
	l1     float64 // lasso / elastic-net L1 penalty (soft-threshold passes)
}

func designMatrix(n, degree int) *mat.Dense {
	cols := degree + 1 // intercept + degree features
	m := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		m.Set(i, 0, 1)
		x := float64(i)
		for d := 1; d <= degree; d++ {
			v := x
			for k := 1; k < d; k++ {
				v *= x
			}
			m.Set(i, d, v)
		}
	}
	return m
}

// fit solves for regression coefficients via ridge-regularized normal
// equations (X^T X + l2*I) beta = X^T y, then refines with a handful of
// coordinate-descent soft-threshold passes when an L1 penalty is set
// (lasso, elastic net). Bayesian ridge here is treated as ridge with a
// fixed, modest L2 penalty standing in for the Bayesian prior strength.
func (m regressionModel) fit(history []float64) []float64 {
	n := len(history)
	x := designMatrix(n, m.degree)
	y := mat.NewVecDense(n, history)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < xtx.RawMatrix().Rows; i++ {
		xtx.Set(i, i, xtx.At(i, i)+m.l2)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		// Degenerate design matrix (e.g. n too small): fall back to a
		// flat mean predictor.
		mean := 0.0
		for _, v := range history {
			mean += v
		}
		mean /= float64(n)
		coeffs := make([]float64, m.degree+1)
		coeffs[0] = mean
		return coeffs
	}

	coeffs := make([]float64, beta.Len())
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i)
	}

	if m.l1 > 0 {
		coeffs = softThresholdPasses(x, history, coeffs, m.l1, 25)
	}

	return coeffs
}

// softThresholdPasses runs coordinate-descent lasso refinement: each
// pass recomputes one coefficient's residual-optimal value then shrinks
// it toward zero by l1.
func softThresholdPasses(x *mat.Dense, y []float64, coeffs []float64, l1 float64, passes int) []float64 {
	n, p := x.Dims()
	for pass := 0; pass < passes; pass++ {
		for j := 0; j < p; j++ {
			var num, denom float64
			for i := 0; i < n; i++ {
				pred := 0.0
				for k := 0; k < p; k++ {
					if k == j {
						continue
					}
					pred += x.At(i, k) * coeffs[k]
				}
				residual := y[i] - pred
				xij := x.At(i, j)
				num += xij * residual
				denom += xij * xij
			}
			if denom == 0 {
				continue
			}
			raw := num / denom
			coeffs[j] = softThreshold(raw, l1/denom)
		}
	}
	return coeffs
}

func softThreshold(z, lambda float64) float64 {
	switch {
	case z > lambda:
		return z - lambda
	case z < -lambda:
		return z + lambda
	default:
		return 0
	}
}

func (m regressionModel) predict(coeffs []float64, fromIndex, steps int) []float64 {
	out := make([]float64, steps)
	for s := 0; s < steps; s++ {
		x := float64(fromIndex + s)
		v := coeffs[0]
		for d := 1; d < len(coeffs); d++ {
			term := x
			for k := 1; k < d; k++ {
				term *= x
			}
			v += coeffs[d] * term
		}
		out[s] = v
	}
	return out
}

func (m regressionModel) forecast(history []float64, steps int) []float64 {
	coeffs := m.fit(history)
	return m.predict(coeffs, len(history), steps)
}

// regressionZoo is the candidate set spec.md §4.4 names for the
// regression family: ordinary least squares, ridge, lasso, elastic net,
// Bayesian ridge, and degree-2 polynomial regression.
func regressionZoo() []regressionModel {
	return []regressionModel{
		{name: "ols", degree: 1},
		{name: "ridge", degree: 1, l2: 1.0},
		{name: "lasso", degree: 1, l1: 0.5},
		{name: "elastic_net", degree: 1, l2: 0.5, l1: 0.5},
		{name: "bayesian_ridge", degree: 1, l2: 0.1},
		{name: "polynomial", degree: 2, l2: 0.5},
	}
}
