package rollup

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/esgroll/internal/esg/domain"
	"github.com/nholding/esgroll/internal/esg/store"
)

func TestRollupWeightsChildContributionByOwnership(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	parentID := "parent"
	childID := "child"
	ownership := 50.0

	company := domain.Company{
		ID: "c1",
		Sites: []domain.Site{
			{ID: parentID, CompanyID: "c1"},
			{ID: childID, CompanyID: "c1", ParentSiteID: &parentID, OwnershipPct: ownership},
		},
		MetricCodes: []domain.MetricCode{{Code: "scope1"}},
	}

	require.NoError(t, mem.InsertRecords(ctx, store.CollectionMonthly, []domain.AggregatedRecord{
		{ID: "r1", CompanyID: "c1", SiteID: parentID, MetricCode: "scope1", Granularity: domain.GranularityMonthly, PeriodLabel: "2026-01", Qty: 100, Value: decimal.NewFromInt(100)},
		{ID: "r2", CompanyID: "c1", SiteID: childID, MetricCode: "scope1", Granularity: domain.GranularityMonthly, PeriodLabel: "2026-01", Qty: 40, Value: decimal.NewFromInt(40)},
	}))

	engine := New(mem, logrus.NewEntry(logrus.New()))
	require.NoError(t, engine.Run(ctx, company))

	rollups, err := mem.FindRollupRecords(ctx, store.CollectionRollupMonthly, store.RecordFilter{CompanyID: "c1", SiteID: parentID})
	require.NoError(t, err)
	require.Len(t, rollups, 1)
	// rollup_qty is the child contribution alone: 50% of child's 40 = 20.
	assert.Equal(t, float64(20), rollups[0].RollupQty)
	assert.Equal(t, float64(100), rollups[0].Qty)

	childRollups, err := mem.FindRollupRecords(ctx, store.CollectionRollupMonthly, store.RecordFilter{CompanyID: "c1", SiteID: childID})
	require.NoError(t, err)
	require.Len(t, childRollups, 1)
	// a genuine leaf has no descendants, so rollup_qty is zero.
	assert.Equal(t, float64(0), childRollups[0].RollupQty)
	assert.Equal(t, float64(40), childRollups[0].Qty)
	assert.Equal(t, ownership, childRollups[0].SiteOwnership)
}

func TestRollupEmitsNothingWhenNodeHasNoOwnRecord(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	parentID := "parent"
	childID := "child"

	company := domain.Company{
		ID: "c1",
		Sites: []domain.Site{
			{ID: parentID, CompanyID: "c1"},
			{ID: childID, CompanyID: "c1", ParentSiteID: &parentID, OwnershipPct: 100},
		},
		MetricCodes: []domain.MetricCode{{Code: "scope1"}},
	}

	require.NoError(t, mem.InsertRecords(ctx, store.CollectionMonthly, []domain.AggregatedRecord{
		{ID: "r2", CompanyID: "c1", SiteID: childID, MetricCode: "scope1", Granularity: domain.GranularityMonthly, PeriodLabel: "2026-01", Qty: 40, Value: decimal.NewFromInt(40)},
	}))

	engine := New(mem, logrus.NewEntry(logrus.New()))
	require.NoError(t, engine.Run(ctx, company))

	parentRollups, err := mem.FindRollupRecords(ctx, store.CollectionRollupMonthly, store.RecordFilter{CompanyID: "c1", SiteID: parentID})
	require.NoError(t, err)
	assert.Empty(t, parentRollups)

	childRollups, err := mem.FindRollupRecords(ctx, store.CollectionRollupMonthly, store.RecordFilter{CompanyID: "c1", SiteID: childID})
	require.NoError(t, err)
	assert.Len(t, childRollups, 1)
}
