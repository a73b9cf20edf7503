// Package rollup implements the hierarchical, ownership-weighted
// rollup algorithm spec.md §4.5 describes: a post-order traversal of a
// company's site ownership forest, propagating each node's own
// contribution up to its ancestors, weighted by ownership percentage.
package rollup

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nholding/esgroll/internal/esg/domain"
	"github.com/nholding/esgroll/internal/esg/store"
	"github.com/nholding/esgroll/internal/utils"
)

// Engine runs the rollup algorithm for one company at a time, reusing
// whatever canonical AggregatedRecords the aggregation engine already
// produced.
type Engine struct {
	store store.Store
	log   *logrus.Entry
}

func New(s store.Store, log *logrus.Entry) *Engine {
	return &Engine{store: s, log: log}
}

var granularityCollections = map[domain.Granularity]struct {
	source store.Collection
	target store.Collection
}{
	domain.GranularityMonthly:    {store.CollectionMonthly, store.CollectionRollupMonthly},
	domain.GranularityQuarterly:  {store.CollectionQuarterly, store.CollectionRollupQuarterly},
	domain.GranularitySemiAnnual: {store.CollectionSemiAnnual, store.CollectionRollupSemiAnnual},
	domain.GranularityYearly:     {store.CollectionYearly, store.CollectionRollupYearly},
}

// Run rolls up every metric code, at every granularity, across
// company's site ownership forest.
func (e *Engine) Run(ctx context.Context, company domain.Company) error {
	children, roots := domain.SiteForest(company.Sites)

	siteOwnership := make(map[string]float64, len(company.Sites))
	for _, s := range company.Sites {
		siteOwnership[s.ID] = s.OwnershipPct
	}

	for _, mc := range company.MetricCodes {
		for granularity, cols := range granularityCollections {
			if err := e.runMetricGranularity(ctx, company, mc.Code, granularity, cols.source, cols.target, children, roots, siteOwnership); err != nil {
				return err
			}
		}
	}
	return nil
}

// processedKey dedups (site, period_label, is_forecast) combinations
// already emitted for this metric/granularity run, mirroring spec.md
// §4.5's processed_combinations set.
type processedKey struct {
	siteID      string
	periodLabel string
	isForecast  bool
}

func (e *Engine) runMetricGranularity(
	ctx context.Context, company domain.Company, metricCode string, granularity domain.Granularity,
	sourceCol, targetCol store.Collection,
	children map[string][]domain.Site, roots []string, ownership map[string]float64,
) error {
	records, err := e.store.FindRecords(ctx, sourceCol, store.RecordFilter{CompanyID: company.ID, MetricCode: metricCode})
	if err != nil {
		return fmt.Errorf("rollup: failed to load %s records for %s: %w", sourceCol, metricCode, err)
	}

	// Index own records by (site, period_label, is_forecast) for O(1)
	// lookup during the traversal. Among duplicates the record with the
	// latest AuditInfo.UpdatedAt wins; ties and missing timestamps fall
	// back to the later record in load order.
	own := make(map[processedKey]domain.AggregatedRecord, len(records))
	for _, r := range records {
		k := processedKey{r.SiteID, r.PeriodLabel, r.IsForecast}
		if prev, ok := own[k]; ok && prev.AuditInfo.UpdatedAt != nil &&
			(r.AuditInfo.UpdatedAt == nil || r.AuditInfo.UpdatedAt.Before(*prev.AuditInfo.UpdatedAt)) {
			continue
		}
		own[k] = r
	}

	processed := make(map[processedKey]bool)
	var results []domain.RollupRecord

	for _, rootID := range roots {
		e.visit(rootID, children, ownership, own, processed, &results, company.ID, metricCode, granularity)
	}

	if len(results) == 0 {
		// Still clear any stale rows for this metric/granularity so a
		// site removed from the forest doesn't leave orphaned rollups.
		f := store.RecordFilter{CompanyID: company.ID, MetricCode: metricCode, Granularity: granularity}
		return e.store.ReplaceRollupRecords(ctx, targetCol, f, nil)
	}

	f := store.RecordFilter{CompanyID: company.ID, MetricCode: metricCode, Granularity: granularity}
	if err := e.store.ReplaceRollupRecords(ctx, targetCol, f, results); err != nil {
		return fmt.Errorf("rollup: failed to write %s for %s: %w", targetCol, metricCode, err)
	}
	return nil
}

type rollupAccumulator struct {
	qty   float64
	value decimal.Decimal
}

// periodKey identifies one (period_label, is_forecast) bucket within a
// node's own accumulation — deliberately without a site ID, so sibling
// subtrees reporting the same period collapse into one bucket instead
// of shadowing each other.
type periodKey struct {
	periodLabel string
	isForecast  bool
}

// visit performs the post-order DFS: children are fully processed and
// their ownership-weighted contributions folded into childSum before
// the node itself emits a RollupRecord. RollupQty/RollupValue are that
// pre-own-fold childSum alone (zero for a leaf); Qty/Value are the
// node's own record. A node with descendant contributions but no own
// AggregatedRecord emits nothing for itself — the resolved Open
// Question on rollup emission. The value returned to the parent is the
// own-inclusive total, since that is what the parent must weight by
// its ownership of this node.
func (e *Engine) visit(
	siteID string, children map[string][]domain.Site, ownership map[string]float64,
	own map[processedKey]domain.AggregatedRecord, processed map[processedKey]bool,
	results *[]domain.RollupRecord,
	companyID, metricCode string, granularity domain.Granularity,
) map[periodKey]rollupAccumulator {
	childSum := make(map[periodKey]rollupAccumulator)

	for _, child := range children[siteID] {
		childWeight := child.OwnershipPct / 100.0
		childContribution := e.visit(child.ID, children, ownership, own, processed, results, companyID, metricCode, granularity)
		for key, acc := range childContribution {
			merged := childSum[key]
			merged.qty += acc.qty * childWeight
			merged.value = merged.value.Add(acc.value.Mul(decimal.NewFromFloat(childWeight)))
			childSum[key] = merged
		}
	}

	// Every period this node must consider: anything its subtree rolled
	// up, plus every period this node has its own record for.
	periods := make(map[periodKey]bool, len(childSum))
	for key := range childSum {
		periods[key] = true
	}
	for key := range own {
		if key.siteID == siteID {
			periods[periodKey{key.periodLabel, key.isForecast}] = true
		}
	}

	ownInclusive := make(map[periodKey]rollupAccumulator, len(periods))
	for pk := range periods {
		acc := childSum[pk]
		if rec, ok := own[processedKey{siteID, pk.periodLabel, pk.isForecast}]; ok {
			acc.qty += rec.Qty
			acc.value = acc.value.Add(rec.Value)
		}
		ownInclusive[pk] = acc
	}

	for pk := range periods {
		key := processedKey{siteID, pk.periodLabel, pk.isForecast}
		ownRec, hasOwn := own[key]
		if !hasOwn {
			continue // Open Question resolution: emit nothing without an own record
		}
		if processed[key] {
			continue
		}
		processed[key] = true

		childTotal := childSum[pk]

		r := domain.RollupRecord{
			ID:            domain.NewRecordID(),
			CompanyID:     companyID,
			SiteID:        siteID,
			MetricCode:    metricCode,
			Granularity:   granularity,
			PeriodLabel:   pk.periodLabel,
			Qty:           ownRec.Qty,
			Value:         ownRec.Value,
			RollupQty:     childTotal.qty,
			RollupValue:   childTotal.value,
			SiteOwnership: ownership[siteID],
			Dimensions:    ownRec.Dimensions,
			IsForecast:    pk.isForecast,
		}
		r.BusinessKey = utils.GenerateBusinessKey("ROLL1", map[string]string{
			"company": companyID, "site": siteID, "metric": metricCode,
			"granularity": string(granularity), "period": pk.periodLabel,
		})
		*results = append(*results, r)
	}

	return ownInclusive
}
