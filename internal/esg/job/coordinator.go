package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDeadline bounds how long a single job may run before its
// context is cancelled, per spec.md §5.
const DefaultDeadline = 1 * time.Hour

// ErrAlreadyRunning is returned by Submit when a job of the same
// (company, kind) is already queued or running.
type ErrAlreadyRunning struct {
	CompanyID string
	Kind      Kind
}

func (e ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("job already running for company %s kind %s", e.CompanyID, e.Kind)
}

type runKey struct {
	companyID string
	kind      Kind
}

// Coordinator serializes job submission per (company_id, kind),
// dispatches accepted jobs onto a bounded worker pool, and tracks their
// status in an in-process map guarded by a mutex, grounded on
// DrisanJames-project-jarvis's campaign_scheduler worker-pool shape
// (bounded goroutines, context cancellation, WaitGroup drain).
type Coordinator struct {
	log      *logrus.Entry
	handlers map[Kind]Handler

	mu      sync.RWMutex
	running map[runKey]bool
	jobs    map[string]*Record

	work chan func()
	wg   sync.WaitGroup

	listCompanies func(ctx context.Context) ([]string, error)
	archiver      *Archiver
}

// SetArchiver attaches an S3 archiver that mirrors each job's terminal
// record out after completion. Passing nil disables archival.
func (c *Coordinator) SetArchiver(a *Archiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archiver = a
}

// NewCoordinator builds a Coordinator with a fixed-size worker pool.
// listCompanies resolves the AllCompanies fan-out; handlers maps each
// Kind to the function that actually performs the work.
func NewCoordinator(poolSize int, handlers map[Kind]Handler, listCompanies func(ctx context.Context) ([]string, error), log *logrus.Entry) *Coordinator {
	if poolSize <= 0 {
		poolSize = 4
	}
	c := &Coordinator{
		log:           log,
		handlers:      handlers,
		running:       make(map[runKey]bool),
		jobs:          make(map[string]*Record),
		work:          make(chan func(), 256),
		listCompanies: listCompanies,
	}
	for i := 0; i < poolSize; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for fn := range c.work {
		fn()
	}
}

// Shutdown drains the worker pool, waiting for in-flight jobs to
// finish.
func (c *Coordinator) Shutdown() {
	close(c.work)
	c.wg.Wait()
}

// Submit accepts a job for companyID (or AllCompanies, which fans out
// into one job per catalog company) and kind, returning already_running
// if a job with that (company, kind) is already in flight.
func (c *Coordinator) Submit(ctx context.Context, companyID string, kind Kind) (string, error) {
	handler, ok := c.handlers[kind]
	if !ok {
		return "", fmt.Errorf("job: no handler registered for kind %s", kind)
	}

	if companyID == AllCompanies {
		return c.submitAll(ctx, kind)
	}

	return c.submitOne(ctx, companyID, kind, handler)
}

func (c *Coordinator) submitAll(ctx context.Context, kind Kind) (string, error) {
	companies, err := c.listCompanies(ctx)
	if err != nil {
		return "", fmt.Errorf("job: failed to list companies for fan-out: %w", err)
	}

	handler := c.handlers[kind]
	fanoutID := newJobID()
	for _, companyID := range companies {
		if _, err := c.submitOne(ctx, companyID, kind, handler); err != nil {
			if _, already := err.(ErrAlreadyRunning); already {
				continue // another submission already covers this company
			}
			c.log.WithError(err).WithField("company", companyID).Warn("fan-out submission failed for company")
		}
	}
	return fanoutID, nil
}

func (c *Coordinator) submitOne(ctx context.Context, companyID string, kind Kind, handler Handler) (string, error) {
	key := runKey{companyID: companyID, kind: kind}

	c.mu.Lock()
	if c.running[key] {
		c.mu.Unlock()
		return "", ErrAlreadyRunning{CompanyID: companyID, Kind: kind}
	}
	c.running[key] = true

	id := newJobID()
	rec := &Record{ID: id, CompanyID: companyID, Kind: kind, Status: StatusQueued, StartedAt: time.Now().UTC()}
	c.jobs[id] = rec
	c.mu.Unlock()

	c.work <- func() {
		c.runJob(ctx, key, rec, handler)
	}

	return id, nil
}

func (c *Coordinator) runJob(parent context.Context, key runKey, rec *Record, handler Handler) {
	defer func() {
		c.mu.Lock()
		delete(c.running, key)
		c.mu.Unlock()
	}()

	c.setStatus(rec.ID, StatusRunning, "")

	ctx, cancel := context.WithTimeout(parent, DefaultDeadline)
	defer cancel()

	err := handler(ctx, key.companyID)

	now := time.Now().UTC()
	c.mu.Lock()
	rec.EndedAt = &now
	switch {
	case ctx.Err() == context.Canceled:
		rec.Status = StatusCancelled
	case err != nil:
		rec.Status = StatusFailed
		rec.Error = err.Error()
	default:
		rec.Status = StatusCompleted
	}
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"job_id": rec.ID, "company": key.companyID, "kind": key.kind}).Error("job failed")
	}

	c.mu.RLock()
	archiver := c.archiver
	c.mu.RUnlock()
	if archiver != nil {
		if archErr := archiver.ArchiveCompleted(context.Background(), *rec); archErr != nil {
			c.log.WithError(archErr).WithField("job_id", rec.ID).Warn("job archival failed")
		}
	}
}

func (c *Coordinator) setStatus(id string, status Status, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.jobs[id]; ok {
		rec.Status = status
		if errMsg != "" {
			rec.Error = errMsg
		}
	}
}

// Status returns the current snapshot for a job ID.
func (c *Coordinator) Status(id string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.jobs[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// YearFloor is the earliest reporting year job operations are allowed
// to touch: spec.md §4.7 fixes this at the current year minus six.
func YearFloor(now time.Time) int {
	return now.Year() - 6
}

// List returns every job the coordinator has tracked since process
// start, most recent first.
func (c *Coordinator) List() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Record, 0, len(c.jobs))
	for _, rec := range c.jobs {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}
