package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

var contestStart = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *state.Store {
	t.Helper()

	s, err := state.New(
		t.TempDir(),
		mapping.Map{"1001": "team-a", "1002": "team-b"},
		mapping.Map{"10197": "sum", "10198": "graph"},
		contestStart,
	)
	require.NoError(t, err, "failed to create store")
	return s
}

func row(teamID string, results map[string]scoreboard.ProblemResult) scoreboard.Row {
	return scoreboard.Row{TeamID: teamID, Results: results}
}

func result(attempts, pending int, accepted bool, timeMs float64) scoreboard.ProblemResult {
	return scoreboard.ProblemResult{
		Attempts:        attempts,
		PendingAttempts: pending,
		IsAccepted:      accepted,
		TimeMs:          timeMs,
	}
}

func process(t *testing.T, s *state.Store, rows ...scoreboard.Row) []ccs.Event {
	t.Helper()

	events, err := s.ProcessScoreboard(context.Background(), rows)
	require.NoError(t, err, "failed to process scoreboard")
	return events
}

func TestBootstrapJudgedOnly(t *testing.T) {
	s := newStore(t)

	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(2, 0, true, 5000),
	}))
	require.Len(t, events, 6, "3 submissions and 3 judgements")

	subs := s.Submissions()
	require.Len(t, subs, 3)

	judgs := s.Judgements()
	require.Len(t, judgs, 3)

	// 2 WA spaced at step=5000/4, then AC at the improvement time itself
	require.Equal(t, "WA", judgs[0].JudgementTypeID)
	require.Equal(t, "0:00:01.250", judgs[0].StartContestTime)
	require.Equal(t, "WA", judgs[1].JudgementTypeID)
	require.Equal(t, "0:00:02.500", judgs[1].StartContestTime)
	require.Equal(t, "AC", judgs[2].JudgementTypeID)
	require.Equal(t, "0:00:05.000", judgs[2].StartContestTime)

	require.Equal(t, "2025-01-01T10:00:01.250Z", subs[0].Time, "absolute time offsets the contest start")
	require.Equal(t, "team-a", subs[0].TeamID)
	require.Equal(t, "sum", subs[0].ProblemID)
}

func TestBootstrapPendingOnly(t *testing.T) {
	s := newStore(t)

	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(0, 2, false, 1000),
	}))
	require.Len(t, events, 2, "pending submissions carry no judgement")
	require.Len(t, s.Submissions(), 2)
	require.Empty(t, s.Judgements())
}

func TestBootstrapEmpty(t *testing.T) {
	s := newStore(t)

	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(0, 0, false, 0),
	}))
	require.Empty(t, events)
}

func TestPendingResolvedToAccepted(t *testing.T) {
	s := newStore(t)

	process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(0, 1, false, 1000),
	}))
	require.Len(t, s.Submissions(), 1)

	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(0, 0, true, 1500),
	}))
	require.Len(t, events, 1, "only a judgement is created")

	require.Len(t, s.Submissions(), 1, "no new submission")
	judgs := s.Judgements()
	require.Len(t, judgs, 1)
	require.Equal(t, "AC", judgs[0].JudgementTypeID)
	require.Equal(t, "0:00:01.500", judgs[0].StartContestTime)
	require.Equal(t, s.Submissions()[0].ID, judgs[0].SubmissionID)
}

func TestDirectWA(t *testing.T) {
	s := newStore(t)

	process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(0, 0, false, 0),
	}))

	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(1, 0, false, 3000),
	}))
	require.Len(t, events, 2, "one submission and one judgement")

	judgs := s.Judgements()
	require.Len(t, judgs, 1)
	require.Equal(t, "WA", judgs[0].JudgementTypeID)
	require.Equal(t, "0:00:03.000", judgs[0].StartContestTime)
}

func TestPendingResolvedFIFO(t *testing.T) {
	s := newStore(t)

	process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(0, 2, false, 1000),
	}))
	subs := s.Submissions()
	require.Len(t, subs, 2)

	// both pending resolve at once, acceptance flips: oldest gets WA, the
	// last resolved gets the AC
	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(1, 0, true, 2000),
	}))
	require.Len(t, events, 2)

	judgs := s.Judgements()
	require.Len(t, judgs, 2)
	require.Equal(t, subs[0].ID, judgs[0].SubmissionID)
	require.Equal(t, "WA", judgs[0].JudgementTypeID)
	require.Equal(t, subs[1].ID, judgs[1].SubmissionID)
	require.Equal(t, "AC", judgs[1].JudgementTypeID)
}

func TestIdempotence(t *testing.T) {
	s := newStore(t)

	snapshot := row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(2, 1, true, 5000),
	})

	first := process(t, s, snapshot)
	require.NotEmpty(t, first)

	second := process(t, s, snapshot)
	require.Empty(t, second, "identical snapshot must produce no events")
}

func TestUnmappedRowsSkipped(t *testing.T) {
	s := newStore(t)

	events := process(t, s,
		row("9999", map[string]scoreboard.ProblemResult{ // unmapped team
			"10197": result(3, 0, true, 5000),
		}),
		row("1001", map[string]scoreboard.ProblemResult{ // unmapped problem
			"55555": result(3, 0, true, 5000),
		}),
	)
	require.Empty(t, events)
	require.Empty(t, s.Submissions())
}

func TestNonMonotonicSkipped(t *testing.T) {
	s := newStore(t)

	process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(2, 0, false, 1000),
	}))
	before := len(s.Events())

	events := process(t, s, row("1001", map[string]scoreboard.ProblemResult{
		"10197": result(1, 0, false, 2000),
	}))
	require.Empty(t, events, "shrinking attempts is unsupported input")
	require.Len(t, s.Events(), before)
}

func TestConservation(t *testing.T) {
	s := newStore(t)

	steps := []scoreboard.ProblemResult{
		{Attempts: 0, PendingAttempts: 1, TimeMs: 1000},
		{Attempts: 1, PendingAttempts: 0, TimeMs: 2000},
		{Attempts: 1, PendingAttempts: 2, TimeMs: 2500},
		{Attempts: 2, PendingAttempts: 1, TimeMs: 3000},
		{Attempts: 2, PendingAttempts: 0, IsAccepted: true, TimeMs: 4000},
	}
	for _, step := range steps {
		process(t, s, row("1001", map[string]scoreboard.ProblemResult{"10197": step}))
	}

	final := steps[len(steps)-1]

	var wa, ac int
	seen := map[string]bool{}
	for _, judg := range s.Judgements() {
		require.False(t, seen[judg.SubmissionID], "submission %s judged twice", judg.SubmissionID)
		seen[judg.SubmissionID] = true

		switch judg.JudgementTypeID {
		case "WA":
			wa++
		case "AC":
			ac++
		}
	}

	require.Equal(t, final.Attempts, wa, "WA judgements must equal attempts")
	require.Equal(t, 1, ac, "accepted snapshot must yield exactly one AC")
	require.Len(t, s.Submissions(), final.Attempts+1, "all pending resolved, plus the accepted one")
}

func TestMultipleTeamsAndProblems(t *testing.T) {
	s := newStore(t)

	events := process(t, s,
		row("1001", map[string]scoreboard.ProblemResult{
			"10197": result(1, 0, true, 4000),
			"10198": result(0, 1, false, 4500),
		}),
		row("1002", map[string]scoreboard.ProblemResult{
			"10197": result(0, 0, false, 0),
		}),
	)
	// team-a: (1 WA + 1 AC) * 2 events + 1 pending submission
	require.Len(t, events, 5)

	byPair := map[string]int{}
	for _, sub := range s.Submissions() {
		byPair[sub.TeamID+"/"+sub.ProblemID]++
	}
	require.Equal(t, map[string]int{"team-a/sum": 2, "team-a/graph": 1}, byPair)
}
