package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

const stateFileName = "state.json"

// snapshot is the single durable unit: event log, previous-state map and
// counters always commit together so a crash cannot leave them skewed.
type snapshot struct {
	Events           []ccs.Event                                    `json:"events"`
	PreviousState    map[string]map[string]scoreboard.ProblemResult `json:"previous_state"`
	NextSubmissionID int64                                          `json:"next_submission_id"`
	NextJudgementID  int64                                          `json:"next_judgement_id"`
	NextToken        int64                                          `json:"next_token"`
}

// Flush persists the current state if anything changed since the last flush.
// The write goes to a temp file first and is renamed into place; transient
// failures are retried with a short backoff before giving up.
func (s *Store) Flush(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Store.Flush")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		span.SetStatus(codes.Ok, "nothing to flush")
		return nil
	}

	raw, err := json.Marshal(snapshot{
		Events:           s.events,
		PreviousState:    s.prev,
		NextSubmissionID: s.nextSubmissionID,
		NextJudgementID:  s.nextJudgementID,
		NextToken:        s.nextToken,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode state snapshot")
		return fmt.Errorf("encode state snapshot: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(25*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(s.writeSnapshot(raw))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write state snapshot")
		return fmt.Errorf("write state snapshot: %w", err)
	}

	s.dirty = false

	span.SetAttributes(attribute.Int("bytes", len(raw)))
	span.SetStatus(codes.Ok, "flushed state")
	return nil
}

func (s *Store) writeSnapshot(raw []byte) error {
	tmp, err := os.CreateTemp(s.dataDir, stateFileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(raw)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, filepath.Join(s.dataDir, stateFileName)); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

// load rehydrates the store from the last snapshot, rebuilding the
// submission and judgement collections by replaying the event log.
func (s *Store) load() error {
	raw, err := os.ReadFile(filepath.Join(s.dataDir, stateFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode state snapshot: %w", err)
	}

	s.events = snap.Events
	if snap.PreviousState != nil {
		s.prev = snap.PreviousState
	}
	if snap.NextSubmissionID > 0 {
		s.nextSubmissionID = snap.NextSubmissionID
	}
	if snap.NextJudgementID > 0 {
		s.nextJudgementID = snap.NextJudgementID
	}
	if snap.NextToken > 0 {
		s.nextToken = snap.NextToken
	}

	for _, event := range s.events {
		switch event.Type {
		case ccs.EventTypeSubmissions:
			var sub ccs.Submission
			if err := json.Unmarshal(event.Data, &sub); err != nil {
				return fmt.Errorf("replay submission event %s: %w", event.Token, err)
			}
			s.submissions[sub.ID] = sub
			s.submissionOrder = append(s.submissionOrder, sub.ID)
		case ccs.EventTypeJudgements:
			var judg ccs.Judgement
			if err := json.Unmarshal(event.Data, &judg); err != nil {
				return fmt.Errorf("replay judgement event %s: %w", event.Token, err)
			}
			s.judgements[judg.ID] = judg
			s.judgementOrder = append(s.judgementOrder, judg.ID)
			s.judged[judg.SubmissionID] = judg.ID
		}
	}

	return nil
}
