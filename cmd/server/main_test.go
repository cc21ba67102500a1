package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/poller"
	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/taskrunner"
	"github.com/algotester-tools/ccs-eventfeed/internal/config"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

type staticFetcher struct {
	rows []scoreboard.Row
}

func (f *staticFetcher) FetchScoreboard(_ context.Context) ([]scoreboard.Row, error) {
	return f.rows, nil
}

func TestStartStopsOnPersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := state.New(
		dir,
		mapping.Map{"1001": "team-a"},
		mapping.Map{"10197": "sum"},
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	// the cycle produces events but the snapshot directory is gone, so the
	// flush fails and the poller error must take the whole server down
	require.NoError(t, os.RemoveAll(dir))

	fetcher := staticFetcher{rows: []scoreboard.Row{{
		TeamID: "1001",
		Results: map[string]scoreboard.ProblemResult{
			"10197": {PendingAttempts: 1, TimeMs: 1000},
		},
	}}}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &server{
		router:     e,
		config:     &config.Config{ListenAddress: "127.0.0.1:0", GracefulShutdownSecs: 5},
		store:      store,
		poller:     poller.Create(&fetcher, store, time.Minute),
		taskRunner: taskrunner.Create(),
	}

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err, "Start must surface the persistence failure")
	case <-time.After(10 * time.Second):
		t.Fatal("server kept running after a fatal persistence failure")
	}
}
