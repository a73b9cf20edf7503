package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/esgroll/internal/esg/domain"
	"github.com/nholding/esgroll/internal/esg/store"
)

func TestEngineRunAggregatesAcrossGranularities(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	company := domain.Company{
		ID:               "c1",
		FiscalStartMonth: time.April,
		MetricCodes: []domain.MetricCode{
			{Code: "scope1", Function: domain.CombineSum, Unit: "tCO2e"},
		},
	}

	var obs []domain.RawObservation
	for i, month := range []time.Month{time.April, time.May, time.June} {
		obs = append(obs, domain.RawObservation{
			ID: domain.NewRecordID(), CompanyID: "c1", SiteID: "s1", MetricCode: "scope1",
			Period: time.Date(2026, month, 1, 0, 0, 0, 0, time.UTC),
			Qty:    float64(10 + i), Value: decimal.NewFromInt(int64(100 + i)),
		})
	}
	require.NoError(t, mem.InsertObservations(ctx, obs))

	engine := New(mem, logrus.NewEntry(logrus.New()))
	require.NoError(t, engine.Run(ctx, company))

	monthly, err := mem.FindRecords(ctx, store.CollectionMonthly, store.RecordFilter{CompanyID: "c1", IsForecast: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, monthly, 3)

	quarterly, err := mem.FindRecords(ctx, store.CollectionQuarterly, store.RecordFilter{CompanyID: "c1", IsForecast: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, quarterly, 1)
	assert.Equal(t, "FY2027-Q1", quarterly[0].PeriodLabel)
	assert.Equal(t, float64(10+11+12), quarterly[0].Qty)

	yearly, err := mem.FindRecords(ctx, store.CollectionYearly, store.RecordFilter{CompanyID: "c1", IsForecast: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, yearly, 1)
	assert.Equal(t, "FY2027", yearly[0].PeriodLabel)

	forecasted, err := mem.FindRecords(ctx, store.CollectionMonthly, store.RecordFilter{CompanyID: "c1", IsForecast: boolPtr(true)})
	require.NoError(t, err)
	assert.NotEmpty(t, forecasted)
	for _, r := range forecasted {
		assert.GreaterOrEqual(t, r.Qty, 0.0)
	}
}

func TestEngineRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	company := domain.Company{ID: "c1", FiscalStartMonth: time.January}

	obs := []domain.RawObservation{{
		ID: domain.NewRecordID(), CompanyID: "c1", SiteID: "s1", MetricCode: "scope1",
		Period: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Qty:    10, Value: decimal.NewFromInt(100),
	}}
	require.NoError(t, mem.InsertObservations(ctx, obs))

	engine := New(mem, logrus.NewEntry(logrus.New()))
	require.NoError(t, engine.Run(ctx, company))
	require.NoError(t, engine.Run(ctx, company))

	monthly, err := mem.FindRecords(ctx, store.CollectionMonthly, store.RecordFilter{CompanyID: "c1", IsForecast: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, monthly, 1)
}
