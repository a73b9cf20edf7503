// Package job implements the coordinator spec.md §4.7 describes: a
// per-(company, kind) serialized job submission/status system backed by
// a bounded worker pool, with in-process (non-persistent) job state.
package job

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind identifies which pipeline stage a job runs.
type Kind string

const (
	KindAggregation Kind = "aggregation"
	KindRollup      Kind = "rollup"
)

// Status is the lifecycle state of a submitted job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// AllCompanies is the sentinel company ID meaning "run for every
// company the catalog knows about", fanning out into one job per
// company.
const AllCompanies = "ALL"

// Record is the in-memory status snapshot for one submitted job. It is
// never persisted: a process restart loses job history, matching
// spec.md's explicit non-goal of durable job state.
type Record struct {
	ID        string
	CompanyID string
	Kind      Kind
	Status    Status
	Error     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Handler is the work a job actually performs once scheduled, given a
// deadline-bound context.
type Handler func(ctx context.Context, companyID string) error

func newJobID() string {
	return ulid.Make().String()
}
