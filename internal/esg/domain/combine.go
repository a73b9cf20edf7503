package domain

// ResolveCombiningFunction decides which CombiningFunction a group of
// metric-code declarations uses when folding several raw observations
// into one canonical period.
//
// Resolution (Open Question, resolved): the first non-empty function
// declaration encountered wins; an entirely empty group defaults to
// sum. Grounded on the original system's get_function_type, which
// walked declarations in order and returned the first non-null value.
func ResolveCombiningFunction(declared ...CombiningFunction) CombiningFunction {
	for _, fn := range declared {
		if fn != "" {
			return fn
		}
	}
	return CombineSum
}

// Combine folds a slice of qty values under fn. last returns the final
// element in input order; sum and average are computed over all
// elements. An empty slice yields 0.
func Combine(fn CombiningFunction, qtys []float64) float64 {
	if len(qtys) == 0 {
		return 0
	}
	switch fn {
	case CombineAverage:
		var total float64
		for _, q := range qtys {
			total += q
		}
		return total / float64(len(qtys))
	case CombineLast:
		return qtys[len(qtys)-1]
	default: // CombineSum and unknown fall back to sum
		var total float64
		for _, q := range qtys {
			total += q
		}
		return total
	}
}
