package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRejectsDuplicateRunningJob(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	handlers := map[Kind]Handler{
		KindAggregation: func(ctx context.Context, companyID string) error {
			started <- struct{}{}
			<-release
			return nil
		},
	}

	c := NewCoordinator(2, handlers, nil, logrus.NewEntry(logrus.New()))
	defer func() { close(release); c.Shutdown() }()

	_, err := c.Submit(context.Background(), "c1", KindAggregation)
	require.NoError(t, err)

	<-started // ensure the first job is actually running before the second submit races it

	_, err = c.Submit(context.Background(), "c1", KindAggregation)
	require.Error(t, err)
	var already ErrAlreadyRunning
	require.ErrorAs(t, err, &already)
}

func TestSubmitAllowsDifferentCompaniesConcurrently(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{}, 2)

	handlers := map[Kind]Handler{
		KindAggregation: func(ctx context.Context, companyID string) error {
			mu.Lock()
			seen[companyID] = true
			mu.Unlock()
			done <- struct{}{}
			return nil
		},
	}

	c := NewCoordinator(4, handlers, nil, logrus.NewEntry(logrus.New()))
	defer c.Shutdown()

	_, err := c.Submit(context.Background(), "c1", KindAggregation)
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), "c2", KindAggregation)
	require.NoError(t, err)

	<-done
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen["c1"])
	assert.True(t, seen["c2"])
}

func TestJobStatusTransitionsToCompleted(t *testing.T) {
	handlers := map[Kind]Handler{
		KindAggregation: func(ctx context.Context, companyID string) error { return nil },
	}
	c := NewCoordinator(1, handlers, nil, logrus.NewEntry(logrus.New()))
	defer c.Shutdown()

	id, err := c.Submit(context.Background(), "c1", KindAggregation)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, ok := c.Status(id)
		return ok && rec.Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)
}

func TestYearFloorIsSixYearsBeforeNow(t *testing.T) {
	assert.Equal(t, 2020, YearFloor(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
