package store

import (
	"context"

	"github.com/nholding/esgroll/internal/esg/domain"
)

// Collection names the nine logical collections the pipeline persists
// to: raw, one per granularity for aggregated records, and a parallel
// rollup_* set for rollup records, per spec.md §6.
type Collection string

const (
	CollectionRaw           Collection = "raw"
	CollectionMonthly       Collection = "monthly"
	CollectionQuarterly     Collection = "quarterly"
	CollectionSemiAnnual    Collection = "semi_annual"
	CollectionYearly        Collection = "yearly"
	CollectionRollupMonthly    Collection = "rollup_monthly"
	CollectionRollupQuarterly  Collection = "rollup_quarterly"
	CollectionRollupSemiAnnual Collection = "rollup_semi_annual"
	CollectionRollupYearly     Collection = "rollup_yearly"
)

// RecordFilter narrows a Find/Delete call to one series. A zero value
// field is treated as "don't filter on this field".
type RecordFilter struct {
	CompanyID   string
	SiteID      string
	MetricCode  string
	Granularity domain.Granularity
	PeriodLabel string
	IsForecast  *bool
}

// Store is the persistence abstraction the aggregation, rollup, and
// HTTP layers depend on. Implementations: Postgres (production) and an
// in-memory map (tests, local dev), grounded on the teacher's
// PeriodRepository/PeriodStore split between a durable and an
// in-process implementation of the same contract.
type Store interface {
	FindObservations(ctx context.Context, f RecordFilter) ([]domain.RawObservation, error)
	InsertObservations(ctx context.Context, obs []domain.RawObservation) error

	FindRecords(ctx context.Context, col Collection, f RecordFilter) ([]domain.AggregatedRecord, error)
	DeleteRecords(ctx context.Context, col Collection, f RecordFilter) error
	InsertRecords(ctx context.Context, col Collection, records []domain.AggregatedRecord) error

	FindRollupRecords(ctx context.Context, col Collection, f RecordFilter) ([]domain.RollupRecord, error)
	DeleteRollupRecords(ctx context.Context, col Collection, f RecordFilter) error
	InsertRollupRecords(ctx context.Context, col Collection, records []domain.RollupRecord) error

	// ReplaceRecords performs the delete-then-insert idempotent write
	// spec.md requires for every aggregation/rollup write: existing
	// rows matching f are removed before the new batch is inserted, all
	// within one transaction where the backing store supports it.
	ReplaceRecords(ctx context.Context, col Collection, f RecordFilter, records []domain.AggregatedRecord) error
	ReplaceRollupRecords(ctx context.Context, col Collection, f RecordFilter, records []domain.RollupRecord) error

	// Ping verifies the store is reachable, used by the /health route.
	Ping(ctx context.Context) error
}

func matchesRecord(r domain.AggregatedRecord, f RecordFilter) bool {
	if f.CompanyID != "" && r.CompanyID != f.CompanyID {
		return false
	}
	if f.SiteID != "" && r.SiteID != f.SiteID {
		return false
	}
	if f.MetricCode != "" && r.MetricCode != f.MetricCode {
		return false
	}
	if f.Granularity != "" && r.Granularity != f.Granularity {
		return false
	}
	if f.PeriodLabel != "" && r.PeriodLabel != f.PeriodLabel {
		return false
	}
	if f.IsForecast != nil && r.IsForecast != *f.IsForecast {
		return false
	}
	return true
}

func matchesRollup(r domain.RollupRecord, f RecordFilter) bool {
	if f.CompanyID != "" && r.CompanyID != f.CompanyID {
		return false
	}
	if f.SiteID != "" && r.SiteID != f.SiteID {
		return false
	}
	if f.MetricCode != "" && r.MetricCode != f.MetricCode {
		return false
	}
	if f.Granularity != "" && r.Granularity != f.Granularity {
		return false
	}
	if f.PeriodLabel != "" && r.PeriodLabel != f.PeriodLabel {
		return false
	}
	if f.IsForecast != nil && r.IsForecast != *f.IsForecast {
		return false
	}
	return true
}

func matchesObservation(o domain.RawObservation, f RecordFilter) bool {
	if f.CompanyID != "" && o.CompanyID != f.CompanyID {
		return false
	}
	if f.SiteID != "" && o.SiteID != f.SiteID {
		return false
	}
	if f.MetricCode != "" && o.MetricCode != f.MetricCode {
		return false
	}
	if f.IsForecast != nil && o.IsForecast != *f.IsForecast {
		return false
	}
	return true
}
