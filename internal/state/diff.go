package state

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

// ProcessScoreboard reconciles one poll's worth of scoreboard rows against
// the previously observed state, appending submission and judgement create
// events for every change it can explain. Rows for unmapped teams or
// problems are skipped. Returns the newly appended events.
func (s *Store) ProcessScoreboard(ctx context.Context, rows []scoreboard.Row) ([]ccs.Event, error) {
	_, span := tracer.Start(ctx, "Store.ProcessScoreboard")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.events)

	for _, row := range rows {
		teamID, ok := s.teamMapping[row.TeamID]
		if !ok {
			logger.Logger.Debug("skipping unmapped team", "algotester_team_id", row.TeamID)
			continue
		}

		// deterministic order regardless of map iteration
		problemIDs := make([]string, 0, len(row.Results))
		for id := range row.Results {
			problemIDs = append(problemIDs, id)
		}
		sort.Strings(problemIDs)

		for _, algoProblemID := range problemIDs {
			problemID, ok := s.problemMapping[algoProblemID]
			if !ok {
				logger.Logger.Debug("skipping unmapped problem", "algotester_problem_id", algoProblemID)
				continue
			}

			result := row.Results[algoProblemID]
			if err := s.processPair(teamID, problemID, result); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to process team/problem pair")
				return nil, err
			}

			if s.prev[teamID] == nil {
				s.prev[teamID] = map[string]scoreboard.ProblemResult{}
			}
			s.prev[teamID][problemID] = result
			s.dirty = true
		}
	}

	created := append([]ccs.Event(nil), s.events[start:]...)

	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("events.created", len(created)),
	)
	span.SetStatus(codes.Ok, "processed scoreboard")
	return created, nil
}

// processPair diffs one team/problem aggregate against its previous
// observation and appends the minimal set of create events explaining it.
// Callers must hold the write lock.
func (s *Store) processPair(teamID, problemID string, curr scoreboard.ProblemResult) error {
	prev, seen := s.prev[teamID][problemID]
	if !seen {
		return s.bootstrapPair(teamID, problemID, curr)
	}

	currJudged := curr.Attempts + boolToInt(curr.IsAccepted)
	prevJudged := prev.Attempts + boolToInt(prev.IsAccepted)
	newJudged := currJudged - prevJudged

	// Aggregates are assumed monotonic. A shrinking count is unsupported
	// input; produce nothing rather than guess at retraction semantics.
	if newJudged < 0 || (prev.IsAccepted && !curr.IsAccepted) {
		logger.Logger.Warn("non-monotonic scoreboard state, skipping pair",
			"team_id", teamID,
			"problem_id", problemID,
			"prev_judged", prevJudged,
			"curr_judged", currJudged,
		)
		return nil
	}

	// pending grew: new submissions without a verdict yet
	if curr.PendingAttempts > prev.PendingAttempts {
		for i := 0; i < curr.PendingAttempts-prev.PendingAttempts; i++ {
			if _, err := s.createSubmission(teamID, problemID, curr.TimeMs); err != nil {
				return err
			}
		}
	}

	resolved := prev.PendingAttempts - curr.PendingAttempts
	acceptedNow := curr.IsAccepted && !prev.IsAccepted
	direct := newJudged

	// pending shrank while judged grew: attach verdicts to the oldest
	// pending submissions first
	if resolved > 0 && newJudged > 0 {
		n := resolved
		if newJudged < n {
			n = newJudged
		}
		pending := s.pendingSubmissionsLocked(teamID, problemID)
		if len(pending) < n {
			n = len(pending)
		}
		direct = newJudged - n

		for i := 0; i < n; i++ {
			judgementType := ccs.JudgementTypeWA
			if acceptedNow && direct == 0 && i == n-1 {
				judgementType = ccs.JudgementTypeAC
			}
			if err := s.createJudgement(pending[i], judgementType, curr.TimeMs); err != nil {
				return err
			}
		}
	}

	// judged submissions not explained by pending resolution arrive fully
	// formed: submission and verdict in one poll
	for i := 0; i < direct; i++ {
		sub, err := s.createSubmission(teamID, problemID, curr.TimeMs)
		if err != nil {
			return err
		}

		judgementType := ccs.JudgementTypeWA
		if acceptedNow && i == direct-1 {
			judgementType = ccs.JudgementTypeAC
		}
		if err := s.createJudgement(sub.ID, judgementType, curr.TimeMs); err != nil {
			return err
		}
	}

	return nil
}

// bootstrapPair synthesizes a plausible history for a pair observed for the
// first time: WA attempts spaced evenly across (0, time], an accepted
// submission at the improvement time, pending submissions at the end.
func (s *Store) bootstrapPair(teamID, problemID string, curr scoreboard.ProblemResult) error {
	totalJudged := curr.Attempts + boolToInt(curr.IsAccepted)
	if totalJudged == 0 && curr.PendingAttempts == 0 {
		return nil
	}

	step := curr.TimeMs / float64(totalJudged+1)

	for i := 0; i < curr.Attempts; i++ {
		subTime := step * float64(i+1)
		sub, err := s.createSubmission(teamID, problemID, subTime)
		if err != nil {
			return err
		}
		if err := s.createJudgement(sub.ID, ccs.JudgementTypeWA, subTime); err != nil {
			return err
		}
	}

	if curr.IsAccepted {
		sub, err := s.createSubmission(teamID, problemID, curr.TimeMs)
		if err != nil {
			return err
		}
		if err := s.createJudgement(sub.ID, ccs.JudgementTypeAC, curr.TimeMs); err != nil {
			return err
		}
	}

	for i := 0; i < curr.PendingAttempts; i++ {
		if _, err := s.createSubmission(teamID, problemID, curr.TimeMs); err != nil {
			return err
		}
	}

	return nil
}

// pendingSubmissionsLocked returns the ids of this pair's submissions that
// have no judgement yet, oldest created first.
func (s *Store) pendingSubmissionsLocked(teamID, problemID string) []string {
	var pending []string
	for _, id := range s.submissionOrder {
		sub := s.submissions[id]
		if sub.TeamID != teamID || sub.ProblemID != problemID {
			continue
		}
		if _, hasJudgement := s.judged[id]; hasJudgement {
			continue
		}
		pending = append(pending, id)
	}
	return pending
}

func (s *Store) createSubmission(teamID, problemID string, contestTimeMs float64) (ccs.Submission, error) {
	id := fmt.Sprintf("algotester-%d", s.nextSubmissionID)
	s.nextSubmissionID++

	contestTime := time.Duration(contestTimeMs * float64(time.Millisecond))
	sub := ccs.Submission{
		ID:          id,
		TeamID:      teamID,
		ProblemID:   problemID,
		LanguageID:  ccs.DefaultLanguageID,
		Time:        ccs.FormatTime(s.contestStart.Add(contestTime)),
		ContestTime: ccs.FormatRelTime(contestTime),
	}

	s.submissions[id] = sub
	s.submissionOrder = append(s.submissionOrder, id)

	if err := s.appendEvent(ccs.EventTypeSubmissions, id, sub); err != nil {
		return ccs.Submission{}, err
	}
	return sub, nil
}

func (s *Store) createJudgement(submissionID, judgementTypeID string, contestTimeMs float64) error {
	id := fmt.Sprintf("algotester-%d", s.nextJudgementID)
	s.nextJudgementID++

	contestTime := time.Duration(contestTimeMs * float64(time.Millisecond))
	absolute := ccs.FormatTime(s.contestStart.Add(contestTime))
	relative := ccs.FormatRelTime(contestTime)

	judg := ccs.Judgement{
		ID:               id,
		SubmissionID:     submissionID,
		JudgementTypeID:  judgementTypeID,
		StartTime:        absolute,
		StartContestTime: relative,
		EndTime:          absolute,
		EndContestTime:   relative,
	}

	s.judgements[id] = judg
	s.judgementOrder = append(s.judgementOrder, id)
	s.judged[submissionID] = id

	return s.appendEvent(ccs.EventTypeJudgements, id, judg)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
