package aggregation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nholding/esgroll/internal/esg/domain"
	"github.com/nholding/esgroll/internal/utils"
)

// aggregateMonthly groups raw observations by fiscal calendar month and
// combines each group's qty/value under fn.
func aggregateMonthly(company domain.Company, key seriesKey, points []domain.RawObservation, fn domain.CombiningFunction) []domain.AggregatedRecord {
	type monthGroup struct {
		points []domain.RawObservation
		label  string
	}
	groups := make(map[string]*monthGroup)
	var order []string

	for _, p := range points {
		label := domain.MonthlyLabel(p.Period.Year(), p.Period.Month())
		g, ok := groups[label]
		if !ok {
			g = &monthGroup{label: label}
			groups[label] = g
			order = append(order, label)
		}
		g.points = append(g.points, p)
	}

	records := make([]domain.AggregatedRecord, 0, len(order))
	for _, label := range order {
		records = append(records, combineObservations(groups[label].points, domain.GranularityMonthly, label, fn))
	}
	return records
}

// aggregateQuarterly rolls monthly records up into fiscal quarters.
func aggregateQuarterly(company domain.Company, key seriesKey, monthly []domain.AggregatedRecord, fn domain.CombiningFunction) []domain.AggregatedRecord {
	return rollMonthlyUp(company, key, monthly, fn, domain.GranularityQuarterly, func(fiscalYear int, quarter, half int) string {
		return domain.QuarterlyLabel(fiscalYear, quarter)
	})
}

// aggregateSemiAnnual rolls monthly records up into fiscal half-years.
func aggregateSemiAnnual(company domain.Company, key seriesKey, monthly []domain.AggregatedRecord, fn domain.CombiningFunction) []domain.AggregatedRecord {
	return rollMonthlyUp(company, key, monthly, fn, domain.GranularitySemiAnnual, func(fiscalYear int, quarter, half int) string {
		return domain.SemiAnnualLabel(fiscalYear, half)
	})
}

// aggregateYearly rolls monthly records up into fiscal years.
func aggregateYearly(company domain.Company, key seriesKey, monthly []domain.AggregatedRecord, fn domain.CombiningFunction) []domain.AggregatedRecord {
	return rollMonthlyUp(company, key, monthly, fn, domain.GranularityYearly, func(fiscalYear int, quarter, half int) string {
		return domain.YearlyLabel(fiscalYear)
	})
}

// rollMonthlyUp re-parses each monthly record's calendar month/year
// (carried in its period label) to compute the fiscal grouping label at
// a coarser granularity, then combines every monthly record folding
// into the same coarser period into one output record.
func rollMonthlyUp(
	company domain.Company, key seriesKey, monthly []domain.AggregatedRecord, fn domain.CombiningFunction,
	granularity domain.Granularity, labelFn func(fiscalYear, quarter, half int) string,
) []domain.AggregatedRecord {
	type bucket struct {
		qtys       []float64
		values     []decimal.Decimal
		dimensions []domain.DimensionElement
		sample     domain.AggregatedRecord
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, m := range monthly {
		year, month, err := parseMonthlyLabel(m.PeriodLabel)
		if err != nil {
			continue
		}
		fiscalYear := domain.ReportingYear(year, month, company.FiscalStartMonth)
		quarter := domain.QuarterOf(month, company.FiscalStartMonth)
		half := domain.SemesterOf(month, company.FiscalStartMonth)
		label := labelFn(fiscalYear, quarter, half)

		b, ok := buckets[label]
		if !ok {
			b = &bucket{sample: m}
			buckets[label] = b
			order = append(order, label)
		}
		b.qtys = append(b.qtys, m.Qty)
		b.values = append(b.values, m.Value)
		b.dimensions = append(b.dimensions, m.Dimensions...)
	}

	records := make([]domain.AggregatedRecord, 0, len(order))
	for _, label := range order {
		b := buckets[label]
		r := domain.AggregatedRecord{
			ID:          domain.NewRecordID(),
			CompanyID:   b.sample.CompanyID,
			SiteID:      b.sample.SiteID,
			MetricCode:  b.sample.MetricCode,
			Granularity: granularity,
			PeriodLabel: label,
			Qty:         domain.Combine(fn, b.qtys),
			Value:       combineDecimal(fn, b.values),
			Unit:        b.sample.Unit,
			Currency:    b.sample.Currency,
			Dimensions:  domain.MergeDimensions(b.dimensions),
		}
		r.BusinessKey = utils.GenerateBusinessKey("AGG1", r.BusinessKeyFields())
		records = append(records, r)
	}
	return records
}

// combineObservations folds every observation landing in one canonical
// period into a single AggregatedRecord, merging their dimension
// elements per spec.md §4.6 rather than splitting the period across
// multiple rows.
func combineObservations(points []domain.RawObservation, granularity domain.Granularity, label string, fn domain.CombiningFunction) domain.AggregatedRecord {
	qtys := make([]float64, len(points))
	values := make([]decimal.Decimal, len(points))
	var dimensions []domain.DimensionElement
	for i, p := range points {
		qtys[i] = p.Qty
		values[i] = p.Value
		dimensions = append(dimensions, p.Dimensions...)
	}

	sample := points[0]
	r := domain.AggregatedRecord{
		ID:          domain.NewRecordID(),
		CompanyID:   sample.CompanyID,
		SiteID:      sample.SiteID,
		MetricCode:  sample.MetricCode,
		Granularity: granularity,
		PeriodLabel: label,
		Qty:         domain.Combine(fn, qtys),
		Value:       combineDecimal(fn, values),
		Unit:        sample.Unit,
		Currency:    sample.Currency,
		Dimensions:  domain.MergeDimensions(dimensions),
	}
	r.BusinessKey = utils.GenerateBusinessKey("AGG1", r.BusinessKeyFields())
	return r
}

func combineDecimal(fn domain.CombiningFunction, values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	switch fn {
	case domain.CombineLast:
		return values[len(values)-1]
	case domain.CombineAverage:
		total := decimal.Zero
		for _, v := range values {
			total = total.Add(v)
		}
		return total.Div(decimal.NewFromInt(int64(len(values))))
	default:
		total := decimal.Zero
		for _, v := range values {
			total = total.Add(v)
		}
		return total
	}
}

func parseMonthlyLabel(label string) (year int, month time.Month, err error) {
	var m int
	_, err = fmt.Sscanf(label, "%04d-%02d", &year, &m)
	if err != nil {
		return 0, 0, err
	}
	return year, time.Month(m), nil
}
