package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/esgroll/internal/esg/domain"
)

func TestMemoryReplaceRecordsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	f := RecordFilter{CompanyID: "c1", SiteID: "s1", MetricCode: "m1", Granularity: domain.GranularityMonthly, PeriodLabel: "2026-04"}

	first := []domain.AggregatedRecord{{
		ID: "r1", CompanyID: "c1", SiteID: "s1", MetricCode: "m1",
		Granularity: domain.GranularityMonthly, PeriodLabel: "2026-04",
		Qty: 10, Value: decimal.NewFromInt(100),
	}}
	require.NoError(t, m.ReplaceRecords(ctx, CollectionMonthly, f, first))

	got, err := m.FindRecords(ctx, CollectionMonthly, f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float64(10), got[0].Qty)

	second := []domain.AggregatedRecord{{
		ID: "r2", CompanyID: "c1", SiteID: "s1", MetricCode: "m1",
		Granularity: domain.GranularityMonthly, PeriodLabel: "2026-04",
		Qty: 42, Value: decimal.NewFromInt(420),
	}}
	require.NoError(t, m.ReplaceRecords(ctx, CollectionMonthly, f, second))

	got, err = m.FindRecords(ctx, CollectionMonthly, f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float64(42), got[0].Qty)
}

func TestMemoryFindRecordsFiltersByFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.InsertRecords(ctx, CollectionMonthly, []domain.AggregatedRecord{
		{ID: "a", CompanyID: "c1", SiteID: "s1", MetricCode: "m1", Granularity: domain.GranularityMonthly, PeriodLabel: "2026-04"},
		{ID: "b", CompanyID: "c1", SiteID: "s2", MetricCode: "m1", Granularity: domain.GranularityMonthly, PeriodLabel: "2026-04"},
	}))

	got, err := m.FindRecords(ctx, CollectionMonthly, RecordFilter{SiteID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
