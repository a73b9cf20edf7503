package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDimensionsSumsMatchingSignatures(t *testing.T) {
	elements := []DimensionElement{
		{
			Details: []DetailPair{{Key: "region", Value: "EMEA"}},
			Qty:     10, Value: decimal.NewFromInt(100), Unit: "t", Currency: "USD",
		},
		{
			Details: []DetailPair{{Key: "region", Value: "EMEA"}},
			Qty:     5, Value: decimal.NewFromInt(50), Unit: "t", Currency: "USD",
		},
		{
			Details: []DetailPair{{Key: "region", Value: "APAC"}},
			Qty:     7, Value: decimal.NewFromInt(70), Unit: "t", Currency: "USD",
		},
	}

	merged := MergeDimensions(elements)
	require.Len(t, merged, 2)

	assert.Equal(t, float64(15), merged[0].Qty)
	assert.True(t, merged[0].Value.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "EMEA", merged[0].Details[0].Value)

	assert.Equal(t, float64(7), merged[1].Qty)
	assert.Equal(t, "APAC", merged[1].Details[0].Value)
}

func TestMergeDimensionsIgnoresElementsWithNoDetails(t *testing.T) {
	elements := []DimensionElement{
		{Qty: 99, Value: decimal.NewFromInt(99)},
		{Details: []DetailPair{{Key: "scope", Value: "1"}}, Qty: 3, Value: decimal.NewFromInt(30)},
	}

	merged := MergeDimensions(elements)
	require.Len(t, merged, 1)
	assert.Equal(t, float64(3), merged[0].Qty)
}

func TestMergeDimensionsOrderIndependentSignature(t *testing.T) {
	a := []DetailPair{{Key: "region", Value: "EMEA"}, {Key: "scope", Value: "1"}}
	b := []DetailPair{{Key: "scope", Value: "1"}, {Key: "region", Value: "EMEA"}}
	assert.Equal(t, DetailSignature(a), DetailSignature(b))
}

func TestResolveCombiningFunctionFirstNonEmptyWins(t *testing.T) {
	assert.Equal(t, CombineAverage, ResolveCombiningFunction("", CombineAverage, CombineSum))
	assert.Equal(t, CombineSum, ResolveCombiningFunction("", ""))
}

func TestCombineLastReturnsFinalElement(t *testing.T) {
	assert.Equal(t, float64(3), Combine(CombineLast, []float64{1, 2, 3}))
	assert.Equal(t, float64(2), Combine(CombineAverage, []float64{1, 2, 3}))
	assert.Equal(t, float64(6), Combine(CombineSum, []float64{1, 2, 3}))
}
