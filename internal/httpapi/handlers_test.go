package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/esgroll/internal/esg/job"
	"github.com/nholding/esgroll/internal/esg/store"
)

func testDeps() Dependencies {
	handlers := map[job.Kind]job.Handler{
		job.KindAggregation: func(ctx context.Context, companyID string) error { return nil },
		job.KindRollup:      func(ctx context.Context, companyID string) error { return nil },
	}
	coordinator := job.NewCoordinator(2, handlers, nil, logrus.NewEntry(logrus.New()))
	return Dependencies{
		Coordinator: coordinator,
		Store:       store.NewMemory(),
	}
}

func TestHealthReportsStoreReachability(t *testing.T) {
	deps := testDeps()
	router := NewRouter(deps, logrus.NewEntry(logrus.New()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunAggregationRejectsMissingCompanyID(t *testing.T) {
	deps := testDeps()
	router := NewRouter(deps, logrus.NewEntry(logrus.New()))

	req := httptest.NewRequest(http.MethodPost, "/run-aggregation", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAggregationAcceptsValidRequestAndJobStatusFollowsUp(t *testing.T) {
	deps := testDeps()
	router := NewRouter(deps, logrus.NewEntry(logrus.New()))

	req := httptest.NewRequest(http.MethodPost, "/run-aggregation", bytes.NewBufferString(`{"company_id":"c1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var submitted jobSubmittedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	require.NotEmpty(t, submitted.JobID)

	statusReq := httptest.NewRequest(http.MethodGet, "/status/"+submitted.JobID, nil)
	statusRec := httptest.NewRecorder()
	router.ServeHTTP(statusRec, statusReq)
	assert.Equal(t, http.StatusOK, statusRec.Code)
}

func TestJobStatusReturnsNotFoundForUnknownID(t *testing.T) {
	deps := testDeps()
	router := NewRouter(deps, logrus.NewEntry(logrus.New()))

	req := httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRollupStatusReturnsPerCollectionCounts(t *testing.T) {
	deps := testDeps()
	router := NewRouter(deps, logrus.NewEntry(logrus.New()))

	req := httptest.NewRequest(http.MethodGet, "/api/rollup/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []rollupStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 4)
}
