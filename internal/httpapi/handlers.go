package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/nholding/esgroll/internal/esg/job"
	"github.com/nholding/esgroll/internal/esg/store"
)

// Handlers implements each route NewRouter wires up.
type Handlers struct {
	deps     Dependencies
	log      *logrus.Entry
	validate *validator.Validate
}

func NewHandlers(deps Dependencies, log *logrus.Entry) *Handlers {
	return &Handlers{deps: deps, log: log, validate: validator.New()}
}

type runAggregationRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
}

type startRollupRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
}

type jobSubmittedResponse struct {
	JobID string `json:"job_id"`
}

func (h *Handlers) RunAggregation(w http.ResponseWriter, r *http.Request) {
	var req runAggregationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := h.deps.Coordinator.Submit(r.Context(), req.CompanyID, job.KindAggregation)
	h.respondSubmission(w, id, err)
}

func (h *Handlers) StartRollup(w http.ResponseWriter, r *http.Request) {
	var req startRollupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := h.deps.Coordinator.Submit(r.Context(), req.CompanyID, job.KindRollup)
	h.respondSubmission(w, id, err)
}

func (h *Handlers) respondSubmission(w http.ResponseWriter, id string, err error) {
	if err != nil {
		if _, already := err.(job.ErrAlreadyRunning); already {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "already_running", "detail": err.Error()})
			return
		}
		h.log.WithError(err).Error("job submission failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "submission_failed"})
		return
	}
	writeJSON(w, http.StatusAccepted, jobSubmittedResponse{JobID: id})
}

func (h *Handlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	rec, ok := h.deps.Coordinator.Status(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) ListThreads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Coordinator.List())
}

func (h *Handlers) RollupData(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	col := collectionFromQuery(r)
	records, err := h.deps.Store.FindRollupRecords(r.Context(), col, f)
	if err != nil {
		h.log.WithError(err).Error("rollup data query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query_failed"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type rollupStatusResponse struct {
	Collection   string `json:"collection"`
	Total        int    `json:"total"`
	LeafCount    int    `json:"leaf_count"`
	InternalCount int   `json:"internal_count"`
}

func (h *Handlers) RollupStatus(w http.ResponseWriter, r *http.Request) {
	cols := []store.Collection{
		store.CollectionRollupMonthly, store.CollectionRollupQuarterly,
		store.CollectionRollupSemiAnnual, store.CollectionRollupYearly,
	}

	var out []rollupStatusResponse
	for _, col := range cols {
		records, err := h.deps.Store.FindRollupRecords(r.Context(), col, store.RecordFilter{})
		if err != nil {
			h.log.WithError(err).Error("rollup status query failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query_failed"})
			return
		}
		resp := rollupStatusResponse{Collection: string(col), Total: len(records)}
		for _, rec := range records {
			if rec.RollupQty == 0 {
				resp.LeafCount++
			} else {
				resp.InternalCount++
			}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) RollupSites(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "company_id")
	company, err := h.deps.Catalog.GetCompany(r.Context(), companyID)
	if err != nil {
		h.log.WithError(err).WithField("company_id", companyID).Error("catalog lookup failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, company.Sites)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	storeOK := h.deps.Store.Ping(ctx) == nil
	catalogOK := h.deps.Catalog == nil || h.deps.Catalog.Healthy(ctx)

	status := http.StatusOK
	if !storeOK || !catalogOK {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]interface{}{
		"healthy": storeOK && catalogOK,
		"store":   storeOK,
		"catalog": catalogOK,
	})
}

func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation_failed", "detail": err.Error()})
		return false
	}
	return true
}

func filterFromQuery(r *http.Request) store.RecordFilter {
	q := r.URL.Query()
	return store.RecordFilter{
		CompanyID:   q.Get("company_id"),
		SiteID:      q.Get("site_id"),
		MetricCode:  q.Get("metric_code"),
		PeriodLabel: q.Get("period_label"),
	}
}

func collectionFromQuery(r *http.Request) store.Collection {
	switch r.URL.Query().Get("granularity") {
	case "QUARTERLY":
		return store.CollectionRollupQuarterly
	case "SEMI_ANNUAL":
		return store.CollectionRollupSemiAnnual
	case "YEARLY":
		return store.CollectionRollupYearly
	default:
		return store.CollectionRollupMonthly
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
