package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nholding/esgroll/internal/esg/domain"
)

func testLogger() *logrus.Entry {
	return logrus.NewEntry(logrus.New())
}

func TestGetCompanyDecodesCatalogResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(companyDTO{
			ID: "c1", Name: "Acme", FiscalStartMonth: 4,
			ReportingFreqs: []string{"MONTHLY", "YEARLY"},
		})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	company, err := client.GetCompany(t.Context(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", company.ID)
	assert.Equal(t, time.April, company.FiscalStartMonth)
	assert.Equal(t, []domain.ReportingFrequency{domain.FrequencyMonthly, domain.FrequencyYearly}, company.ReportingFreqs)
}

func TestGetCompanyFallsBackToDevCompanyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: 200 * time.Millisecond, DevFallback: true}, testLogger())
	company, err := client.GetCompany(t.Context(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "dev-fallback-co", company.Name)
}

func TestGetCompanyReturnsUnavailableWithoutDevFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Timeout: 200 * time.Millisecond}, testLogger())
	_, err := client.GetCompany(t.Context(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
