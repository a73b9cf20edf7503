package store

import (
	"context"
	"sync"

	"github.com/nholding/esgroll/internal/esg/domain"
)

// Memory is an in-process Store implementation used by tests and local
// development, grounded on the teacher's PeriodStore (map lookup guarded
// for concurrent access, since this module's job coordinator runs
// several worker goroutines against the same store concurrently).
type Memory struct {
	mu           sync.RWMutex
	observations []domain.RawObservation
	records      map[Collection][]domain.AggregatedRecord
	rollups      map[Collection][]domain.RollupRecord
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[Collection][]domain.AggregatedRecord),
		rollups: make(map[Collection][]domain.RollupRecord),
	}
}

func (m *Memory) FindObservations(_ context.Context, f RecordFilter) ([]domain.RawObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.RawObservation
	for _, o := range m.observations {
		if matchesObservation(o, f) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) InsertObservations(_ context.Context, obs []domain.RawObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, obs...)
	return nil
}

func (m *Memory) FindRecords(_ context.Context, col Collection, f RecordFilter) ([]domain.AggregatedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.AggregatedRecord
	for _, r := range m.records[col] {
		if matchesRecord(r, f) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) DeleteRecords(_ context.Context, col Collection, f RecordFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[col][:0]
	for _, r := range m.records[col] {
		if !matchesRecord(r, f) {
			kept = append(kept, r)
		}
	}
	m.records[col] = kept
	return nil
}

func (m *Memory) InsertRecords(_ context.Context, col Collection, records []domain.AggregatedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[col] = append(m.records[col], records...)
	return nil
}

func (m *Memory) FindRollupRecords(_ context.Context, col Collection, f RecordFilter) ([]domain.RollupRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.RollupRecord
	for _, r := range m.rollups[col] {
		if matchesRollup(r, f) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) DeleteRollupRecords(_ context.Context, col Collection, f RecordFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.rollups[col][:0]
	for _, r := range m.rollups[col] {
		if !matchesRollup(r, f) {
			kept = append(kept, r)
		}
	}
	m.rollups[col] = kept
	return nil
}

func (m *Memory) InsertRollupRecords(_ context.Context, col Collection, records []domain.RollupRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollups[col] = append(m.rollups[col], records...)
	return nil
}

func (m *Memory) ReplaceRecords(ctx context.Context, col Collection, f RecordFilter, records []domain.AggregatedRecord) error {
	if err := m.DeleteRecords(ctx, col, f); err != nil {
		return err
	}
	return m.InsertRecords(ctx, col, records)
}

func (m *Memory) ReplaceRollupRecords(ctx context.Context, col Collection, f RecordFilter, records []domain.RollupRecord) error {
	if err := m.DeleteRollupRecords(ctx, col, f); err != nil {
		return err
	}
	return m.InsertRollupRecords(ctx, col, records)
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}
