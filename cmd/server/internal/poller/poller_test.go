package poller_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/poller"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

type fakeFetcher struct {
	rows []scoreboard.Row
	err  error
}

func (f *fakeFetcher) FetchScoreboard(_ context.Context) ([]scoreboard.Row, error) {
	return f.rows, f.err
}

func newStore(t *testing.T) (*state.Store, string) {
	t.Helper()

	dir := t.TempDir()
	s, err := state.New(
		dir,
		mapping.Map{"1001": "team-a"},
		mapping.Map{"10197": "sum"},
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return s, dir
}

func TestCycle(t *testing.T) {
	store, _ := newStore(t)

	fetcher := fakeFetcher{rows: []scoreboard.Row{{
		TeamID: "1001",
		Results: map[string]scoreboard.ProblemResult{
			"10197": {Attempts: 1, IsAccepted: true, TimeMs: 5000},
		},
	}}}
	p := poller.Create(&fetcher, store, time.Minute)

	// bootstrap explains the aggregate as one rejected attempt plus the
	// accepted submission: 2 submissions, 2 judgements
	require.NoError(t, p.Cycle(context.Background()))
	require.Len(t, store.Events(), 4)
	require.Len(t, store.Submissions(), 2)
	require.Len(t, store.Judgements(), 2)

	// an unchanged snapshot must not grow the log
	require.NoError(t, p.Cycle(context.Background()))
	require.Len(t, store.Events(), 4)
}

func TestCycleFetchFailureSkips(t *testing.T) {
	store, _ := newStore(t)

	fetcher := fakeFetcher{err: errors.New("upstream down")}
	p := poller.Create(&fetcher, store, time.Minute)

	require.NoError(t, p.Cycle(context.Background()), "a failed fetch skips the cycle")
	require.Empty(t, store.Events())
}

func TestCycleFlushFailureStops(t *testing.T) {
	store, dir := newStore(t)

	fetcher := fakeFetcher{rows: []scoreboard.Row{{
		TeamID: "1001",
		Results: map[string]scoreboard.ProblemResult{
			"10197": {PendingAttempts: 1, TimeMs: 1000},
		},
	}}}
	p := poller.Create(&fetcher, store, time.Minute)

	require.NoError(t, os.RemoveAll(dir))
	require.Error(t, p.Cycle(context.Background()), "an unwritable snapshot is fatal")
}

func TestRunStopsOnCancel(t *testing.T) {
	store, _ := newStore(t)

	fetcher := fakeFetcher{}
	p := poller.Create(&fetcher, store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
