// Package catalog retrieves read-only company metadata (fiscal
// calendar, reporting frequencies, site ownership tree, metric codes)
// from the external catalog service.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/nholding/esgroll/internal/esg/domain"
)

// ErrUnavailable is returned once the retry budget is exhausted without
// a successful response.
var ErrUnavailable = errors.New("catalog: service unavailable")

// Client reads company metadata from the catalog service over HTTP,
// retrying transient failures with exponential backoff: 1s initial
// delay, doubling each attempt, 3 attempts total.
type Client struct {
	http   *resty.Client
	log    *logrus.Entry
	devMode bool
}

// Config describes how to reach the catalog service.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// DevFallback lets local development run without a live catalog
	// service by returning a small fixed set of companies instead of
	// erroring out.
	DevFallback bool
}

func New(cfg Config, log *logrus.Entry) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout)

	return &Client{http: httpClient, log: log, devMode: cfg.DevFallback}
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.Multiplier = 2
	b.MaxElapsedTime = 0 // attempt count, not elapsed time, bounds this
	return backoff.WithContext(backoff.WithMaxRetries(b, 2), ctx) // 2 retries + 1 initial attempt = 3 attempts
}

// companyDTO mirrors the catalog service's wire shape.
type companyDTO struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	FiscalStartMonth int      `json:"fiscal_start_month"`
	ReportingFreqs   []string `json:"reporting_frequencies"`
	MetricCodes      []struct {
		Code     string `json:"code"`
		Name     string `json:"name"`
		Function string `json:"function"`
		Unit     string `json:"unit"`
	} `json:"metric_codes"`
	Sites []struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		ParentSiteID *string `json:"parent_site_id"`
		OwnershipPct float64 `json:"ownership_pct"`
	} `json:"sites"`
}

func (d companyDTO) toDomain() domain.Company {
	c := domain.Company{
		ID:               d.ID,
		Name:             d.Name,
		FiscalStartMonth: time.Month(d.FiscalStartMonth),
	}
	for _, f := range d.ReportingFreqs {
		c.ReportingFreqs = append(c.ReportingFreqs, domain.ReportingFrequency(f))
	}
	for _, m := range d.MetricCodes {
		c.MetricCodes = append(c.MetricCodes, domain.MetricCode{
			Code: m.Code, Name: m.Name, Function: domain.CombiningFunction(m.Function), Unit: m.Unit,
		})
	}
	for _, s := range d.Sites {
		c.Sites = append(c.Sites, domain.Site{
			ID: s.ID, CompanyID: d.ID, Name: s.Name, ParentSiteID: s.ParentSiteID, OwnershipPct: s.OwnershipPct,
		})
	}
	return c
}

// GetCompany fetches one company's metadata by ID, retrying transient
// failures before giving up with ErrUnavailable.
func (c *Client) GetCompany(ctx context.Context, companyID string) (domain.Company, error) {
	var result domain.Company

	op := func() error {
		var dto companyDTO
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&dto).
			Get(fmt.Sprintf("/companies/%s", companyID))
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("catalog returned status %d", resp.StatusCode())
		}
		result = dto.toDomain()
		return nil
	}

	err := backoff.Retry(op, c.retryPolicy(ctx))
	if err != nil {
		if c.devMode {
			c.log.WithError(err).Warn("catalog unreachable, using dev fallback company")
			return devFallbackCompany(companyID), nil
		}
		c.log.WithError(err).WithField("company_id", companyID).Error("catalog client exhausted retries")
		return domain.Company{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

// ListCompanies fetches every company the catalog knows about.
func (c *Client) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	var dtos []companyDTO

	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&dtos).
			Get("/companies")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("catalog returned status %d", resp.StatusCode())
		}
		return nil
	}

	err := backoff.Retry(op, c.retryPolicy(ctx))
	if err != nil {
		if c.devMode {
			c.log.WithError(err).Warn("catalog unreachable, using dev fallback company list")
			return []domain.Company{devFallbackCompany("dev-co")}, nil
		}
		c.log.WithError(err).Error("catalog client exhausted retries")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	companies := make([]domain.Company, 0, len(dtos))
	for _, d := range dtos {
		companies = append(companies, d.toDomain())
	}
	return companies, nil
}

// Healthy performs a cheap reachability probe for the /health route,
// grounded on the original system's health_check calling
// RegionAPI.fetch_all_company_safe before declaring itself healthy.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	return err == nil && !resp.IsError()
}

func devFallbackCompany(id string) domain.Company {
	return domain.Company{
		ID:               id,
		Name:             "dev-fallback-co",
		FiscalStartMonth: time.January,
		ReportingFreqs:   []domain.ReportingFrequency{domain.FrequencyMonthly, domain.FrequencyYearly},
		MetricCodes: []domain.MetricCode{
			{Code: "emissions_scope1", Name: "Scope 1 emissions", Function: domain.CombineSum, Unit: "tCO2e"},
		},
	}
}
