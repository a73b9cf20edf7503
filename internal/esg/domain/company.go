package domain

import (
	"strings"
	"time"

	"github.com/nholding/esgroll/internal/audit"
	"github.com/nholding/esgroll/internal/utils"
)

// ReportingFrequency is one of the granularities a company publishes
// metrics at. A company may support more than one.
type ReportingFrequency string

const (
	FrequencyMonthly     ReportingFrequency = "MONTHLY"
	FrequencyQuarterly   ReportingFrequency = "QUARTERLY"
	FrequencySemiAnnual  ReportingFrequency = "SEMI_ANNUAL"
	FrequencyYearly      ReportingFrequency = "YEARLY"
)

// Company is the catalog-owned master record for a reporting entity.
// FiscalStartMonth anchors every ReportingYear computation in fiscal.go.
type Company struct {
	ID                string               `json:"id"`
	BusinessKey       string               `json:"business_key"`
	Version           string               `json:"version"`
	Name              string               `json:"name"`
	FiscalStartMonth  time.Month           `json:"fiscal_start_month"`
	ReportingFreqs    []ReportingFrequency `json:"reporting_frequencies"`
	MetricCodes       []MetricCode         `json:"metric_codes"`
	Sites             []Site               `json:"sites"`
	AuditInfo         audit.AuditInfo      `json:"audit"`
}

// Site is one node of a company's ownership forest. ParentSiteID is nil
// for a root site. OwnershipPct is the percentage (0-100) the parent
// owns of this site's output, taken as given from the catalog; it is
// neither defaulted nor clamped, and a root's value weights nothing.
type Site struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	Name         string  `json:"name"`
	ParentSiteID *string `json:"parent_site_id"`
	OwnershipPct float64 `json:"ownership_pct"`
}

// MetricCode declares the combining function a metric uses when several
// raw observations land in the same canonical period. See
// ResolveCombiningFunction in combine.go for the resolution rule when a
// group mixes declarations.
type MetricCode struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Function CombiningFunction `json:"function"`
	Unit     string          `json:"unit"`
}

func (c *Company) GenerateKeys() {
	c.Version = "ESG1"
	c.ID = utils.GenerateStableID()
	c.BusinessKey = utils.GenerateBusinessKey(c.Version, map[string]string{
		"name": c.Name,
	})
}

// NewCompany constructs a Company with stable ID/business-key assigned,
// mirroring the catalog's own creation path for local/dev fixtures.
func NewCompany(name string, fiscalStart time.Month, freqs []ReportingFrequency, user string) Company {
	c := Company{
		Name:             strings.ToLower(name),
		FiscalStartMonth: fiscalStart,
		ReportingFreqs:   freqs,
		AuditInfo:        *audit.NewAuditInfo(user),
	}
	c.GenerateKeys()
	return c
}

// SiteForest builds the parent->children adjacency used by the rollup
// engine's post-order traversal, and returns the root site IDs in the
// order they first appear.
func SiteForest(sites []Site) (children map[string][]Site, roots []string) {
	children = make(map[string][]Site)
	for _, s := range sites {
		if s.ParentSiteID == nil {
			roots = append(roots, s.ID)
			continue
		}
		children[*s.ParentSiteID] = append(children[*s.ParentSiteID], s)
	}
	return children, roots
}
