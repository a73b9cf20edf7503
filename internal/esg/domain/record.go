package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nholding/esgroll/internal/audit"
)

// Granularity identifies the canonical resolution of an AggregatedRecord
// or RollupRecord.
type Granularity string

const (
	GranularityMonthly    Granularity = "MONTHLY"
	GranularityQuarterly  Granularity = "QUARTERLY"
	GranularitySemiAnnual Granularity = "SEMI_ANNUAL"
	GranularityYearly     Granularity = "YEARLY"
)

// CombiningFunction names how several raw observations landing in the
// same canonical period are folded into one.
type CombiningFunction string

const (
	CombineSum     CombiningFunction = "sum"
	CombineAverage CombiningFunction = "average"
	CombineLast    CombiningFunction = "last"
)

// DetailPair is one (key, value) tag in a dimension element's ordered
// detail list, e.g. {Key: "region", Value: "EMEA"}.
type DetailPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DimensionElement is one breakdown tuple attached to an observation or
// record: an ordered list of detail tags plus the qty/value/unit/currency
// reported for that specific breakdown, per spec.md §4.6.
type DimensionElement struct {
	Details  []DetailPair    `json:"details"`
	Qty      float64         `json:"qty"`
	Value    decimal.Decimal `json:"value"`
	Unit     string          `json:"unit"`
	Currency string          `json:"currency"`
}

// RawObservation is a single reported data point before any aggregation.
type RawObservation struct {
	ID         string             `json:"id"`
	CompanyID  string             `json:"company_id"`
	SiteID     string             `json:"site_id"`
	MetricCode string             `json:"metric_code"`
	Period     time.Time          `json:"period"`
	Qty        float64            `json:"qty"`
	Value      decimal.Decimal    `json:"value"`
	Unit       string             `json:"unit"`
	Currency   string             `json:"currency"`
	Dimensions []DimensionElement `json:"dimensions"`
	IsForecast bool               `json:"is_forecast"`
	AuditInfo  audit.AuditInfo    `json:"audit"`
}

// AggregatedRecord is one canonical (company, site, metric, granularity,
// period_label, is_forecast) row produced by the aggregation engine.
type AggregatedRecord struct {
	ID           string             `json:"id"`
	BusinessKey  string             `json:"business_key"`
	CompanyID    string             `json:"company_id"`
	SiteID       string             `json:"site_id"`
	MetricCode   string             `json:"metric_code"`
	Granularity  Granularity        `json:"granularity"`
	PeriodLabel  string             `json:"period_label"`
	Qty          float64            `json:"qty"`
	Value        decimal.Decimal    `json:"value"`
	Unit         string             `json:"unit"`
	Currency     string             `json:"currency"`
	Dimensions   []DimensionElement `json:"dimensions"`
	IsForecast   bool               `json:"is_forecast"`
	AuditInfo    audit.AuditInfo    `json:"audit"`
}

// RollupRecord is one ownership-weighted contribution row produced by
// the rollup engine for a site in the ownership forest. Qty/Value are
// this site's own canonical figures; RollupQty/RollupValue are the
// ownership-weighted sum of its descendants' contributions alone (zero
// for a leaf with no descendants), per spec.md §4.5 step 4.
type RollupRecord struct {
	ID            string             `json:"id"`
	BusinessKey   string             `json:"business_key"`
	CompanyID     string             `json:"company_id"`
	SiteID        string             `json:"site_id"`
	MetricCode    string             `json:"metric_code"`
	Granularity   Granularity        `json:"granularity"`
	PeriodLabel   string             `json:"period_label"`
	Qty           float64            `json:"qty"`
	Value         decimal.Decimal    `json:"value"`
	RollupQty     float64            `json:"rollup_qty"`
	RollupValue   decimal.Decimal    `json:"rollup_value"`
	SiteOwnership float64            `json:"site_ownership"`
	Dimensions    []DimensionElement `json:"dimensions"`
	IsForecast    bool               `json:"is_forecast"`
	AuditInfo     audit.AuditInfo    `json:"audit"`
}

// BusinessKeyFields returns the field map used to compute the
// deterministic business key for an AggregatedRecord, grounded on the
// uniqueness tuple spec.md §3 names:
// (company, site, metric, granularity, period_label, is_forecast).
func (r *AggregatedRecord) BusinessKeyFields() map[string]string {
	isForecast := "false"
	if r.IsForecast {
		isForecast = "true"
	}
	return map[string]string{
		"company":     r.CompanyID,
		"site":        r.SiteID,
		"metric":      r.MetricCode,
		"granularity": string(r.Granularity),
		"period":      r.PeriodLabel,
		"forecast":    isForecast,
	}
}

// NewRecordID mints a fresh UUID for a new AggregatedRecord/RollupRecord,
// grounded on the teacher's uuid usage for record-level (rather than
// entity-level, which uses ULIDs) identifiers.
func NewRecordID() string {
	return uuid.NewString()
}

// SortDimensions returns a copy of elems sorted by detail signature,
// the canonical ordering used to compare two elements' breakdown tuples
// regardless of the order their detail pairs were reported in.
func SortDimensions(elems []DimensionElement) []DimensionElement {
	out := make([]DimensionElement, len(elems))
	copy(out, elems)
	sort.Slice(out, func(i, j int) bool {
		return DetailSignature(out[i].Details) < DetailSignature(out[j].Details)
	})
	return out
}
