// Package aggregation derives monthly/quarterly/semi-annual/yearly
// AggregatedRecords from RawObservations, fiscal-aligned per company,
// and extends each series with forecast records out to its canonical
// horizon.
package aggregation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nholding/esgroll/internal/esg/domain"
	"github.com/nholding/esgroll/internal/esg/forecast"
	"github.com/nholding/esgroll/internal/esg/store"
	"github.com/nholding/esgroll/internal/utils"
)

// Engine runs the aggregation algorithm for one company at a time,
// grounded on the teacher's PeriodService's validate-then-persist shape.
type Engine struct {
	store store.Store
	log   *logrus.Entry
}

func New(s store.Store, log *logrus.Entry) *Engine {
	return &Engine{store: s, log: log}
}

// seriesKey groups raw observations that belong to the same
// (site, metric) series before they are split into canonical periods.
type seriesKey struct {
	siteID     string
	metricCode string
}

// Run aggregates every raw observation currently stored for company
// into the four canonical granularities, writing delete-then-insert
// idempotent batches, then extends each series with forecast records.
func (e *Engine) Run(ctx context.Context, company domain.Company) error {
	obs, err := e.store.FindObservations(ctx, store.RecordFilter{CompanyID: company.ID})
	if err != nil {
		return fmt.Errorf("aggregation: failed to load observations for company %s: %w", company.ID, err)
	}

	metricFn := make(map[string]domain.CombiningFunction, len(company.MetricCodes))
	for _, m := range company.MetricCodes {
		metricFn[m.Code] = domain.ResolveCombiningFunction(m.Function)
	}

	series := make(map[seriesKey][]domain.RawObservation)
	for _, o := range obs {
		if err := domain.ValidateObservation(o); err != nil {
			e.log.WithError(err).WithField("company", company.ID).Warn("skipping invalid observation")
			continue
		}
		k := seriesKey{siteID: o.SiteID, metricCode: o.MetricCode}
		series[k] = append(series[k], o)
	}

	for k, points := range series {
		fn := metricFn[k.metricCode]
		if fn == "" {
			fn = domain.CombineSum
		}
		if err := e.runSeries(ctx, company, k, points, fn); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) runSeries(ctx context.Context, company domain.Company, key seriesKey, points []domain.RawObservation, fn domain.CombiningFunction) error {
	sort.Slice(points, func(i, j int) bool { return points[i].Period.Before(points[j].Period) })

	monthly := aggregateMonthly(company, key, points, fn)
	if err := e.write(ctx, store.CollectionMonthly, company.ID, key, monthly); err != nil {
		return err
	}
	if err := e.extendForecast(ctx, store.CollectionMonthly, company, key, monthly, forecast.MonthlyForecastHorizon, forecast.MonthlySeasonality); err != nil {
		return err
	}

	quarterly := aggregateQuarterly(company, key, monthly, fn)
	if err := e.write(ctx, store.CollectionQuarterly, company.ID, key, quarterly); err != nil {
		return err
	}
	if err := e.extendForecast(ctx, store.CollectionQuarterly, company, key, quarterly, forecast.QuarterlyForecastHorizon, forecast.QuarterlySeasonality); err != nil {
		return err
	}

	semiAnnual := aggregateSemiAnnual(company, key, monthly, fn)
	if err := e.write(ctx, store.CollectionSemiAnnual, company.ID, key, semiAnnual); err != nil {
		return err
	}
	if err := e.extendForecast(ctx, store.CollectionSemiAnnual, company, key, semiAnnual, forecast.SemiAnnualForecastHorizon, forecast.SemiAnnualSeasonality); err != nil {
		return err
	}

	yearly := aggregateYearly(company, key, monthly, fn)
	if err := e.write(ctx, store.CollectionYearly, company.ID, key, yearly); err != nil {
		return err
	}
	if err := e.extendForecast(ctx, store.CollectionYearly, company, key, yearly, forecast.YearlyForecastHorizon, forecast.YearlySeasonality); err != nil {
		return err
	}

	return nil
}

func (e *Engine) write(ctx context.Context, col store.Collection, companyID string, key seriesKey, records []domain.AggregatedRecord) error {
	if dupes := domain.DetectDuplicateKeys(records); len(dupes) > 0 {
		e.log.WithFields(logrus.Fields{
			"collection": col, "site": key.siteID, "metric": key.metricCode, "duplicates": dupes,
		}).Warn("multiple records share a business key")
	}

	f := store.RecordFilter{CompanyID: companyID, SiteID: key.siteID, MetricCode: key.metricCode}
	if err := e.store.ReplaceRecords(ctx, col, f, records); err != nil {
		return fmt.Errorf("aggregation: failed to write %s for %s/%s: %w", col, key.siteID, key.metricCode, err)
	}
	return nil
}

// extendForecast forecasts each series out to horizon steps beyond its
// last actual canonical record and writes the forecast extension as
// additional is_forecast=true rows, leaving the actual rows untouched.
func (e *Engine) extendForecast(ctx context.Context, col store.Collection, company domain.Company, key seriesKey, actuals []domain.AggregatedRecord, horizon, seasonality int) error {
	if len(actuals) == 0 || horizon <= 0 {
		return nil
	}

	qtys := make([]float64, len(actuals))
	for i, r := range actuals {
		qtys[i] = r.Qty
	}

	forecasted, err := forecast.Forecast(qtys, horizon, seasonality)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"company": company.ID, "site": key.siteID, "metric": key.metricCode, "collection": col,
		}).Warn("forecast skipped for series")
		return nil
	}

	base := actuals[len(actuals)-1]
	records := make([]domain.AggregatedRecord, len(forecasted))
	for i, qty := range forecasted {
		records[i] = domain.AggregatedRecord{
			ID:          domain.NewRecordID(),
			CompanyID:   base.CompanyID,
			SiteID:      base.SiteID,
			MetricCode:  base.MetricCode,
			Granularity: base.Granularity,
			PeriodLabel: fmt.Sprintf("%s+%d", base.PeriodLabel, i+1),
			Qty:         qty,
			Value:       decimal.NewFromFloat(qty),
			Unit:        base.Unit,
			Currency:    base.Currency,
			IsForecast:  true,
		}
		records[i].BusinessKey = businessKeyFor(records[i])
	}

	f := store.RecordFilter{
		CompanyID: company.ID, SiteID: key.siteID, MetricCode: key.metricCode,
		Granularity: base.Granularity, IsForecast: boolPtr(true),
	}
	if err := e.store.ReplaceRecords(ctx, col, f, records); err != nil {
		return fmt.Errorf("aggregation: failed to write forecast extension for %s/%s: %w", key.siteID, key.metricCode, err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func businessKeyFor(r domain.AggregatedRecord) string {
	return utils.GenerateBusinessKey("AGG1", r.BusinessKeyFields())
}
