// Package state owns the reconstructed contest state: the append-only event
// log, the submission and judgement collections derived from it, the
// previous-scoreboard map used for diffing, and the id/token counters. All of
// it lives behind one lock and is persisted as a single atomic snapshot.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

const name = "github.com/algotester-tools/ccs-eventfeed/state"

var tracer = otel.Tracer(name)

type Store struct {
	mu sync.RWMutex

	dataDir      string
	contestStart time.Time

	teamMapping    mapping.Map
	problemMapping mapping.Map

	events []ccs.Event

	submissions     map[string]ccs.Submission
	submissionOrder []string
	judgements      map[string]ccs.Judgement
	judgementOrder  []string
	// submission id -> judgement id; a submission is pending while absent
	judged map[string]string

	prev map[string]map[string]scoreboard.ProblemResult

	nextSubmissionID int64
	nextJudgementID  int64
	nextToken        int64

	newEvents chan struct{}
	dirty     bool
}

// New creates the store, creating dataDir if needed and rehydrating any
// previously persisted snapshot.
func New(dataDir string, teams, problems mapping.Map, contestStart time.Time) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		dataDir:          dataDir,
		contestStart:     contestStart,
		teamMapping:      teams,
		problemMapping:   problems,
		submissions:      map[string]ccs.Submission{},
		judgements:       map[string]ccs.Judgement{},
		judged:           map[string]string{},
		prev:             map[string]map[string]scoreboard.ProblemResult{},
		nextSubmissionID: 1,
		nextJudgementID:  1,
		nextToken:        1,
		newEvents:        make(chan struct{}),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// NewEvents returns a channel that is closed the next time an event is
// appended. Callers re-arm by calling again after a wake.
func (s *Store) NewEvents() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newEvents
}

func (s *Store) notifyLocked() {
	close(s.newEvents)
	s.newEvents = make(chan struct{})
}

// appendEvent allocates the next token and appends a create event for the
// given entity. Callers must hold the write lock.
func (s *Store) appendEvent(eventType, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event data: %w", eventType, err)
	}

	event := ccs.Event{
		Token: strconv.FormatInt(s.nextToken, 10),
		ID:    id,
		Type:  eventType,
		Op:    ccs.OpCreate,
		Data:  raw,
	}
	s.nextToken++

	s.events = append(s.events, event)
	s.dirty = true
	s.notifyLocked()

	return nil
}

// InitializeStaticEvents appends the contest, judgement-type, language,
// problem and team create events, but only onto an empty log so restarts do
// not duplicate them.
func (s *Store) InitializeStaticEvents(
	contest ccs.Contest,
	judgementTypes []ccs.JudgementType,
	languages []ccs.Language,
	problems []ccs.Problem,
	teams []ccs.Team,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) > 0 {
		return nil
	}

	if err := s.appendEvent(ccs.EventTypeContests, contest.ID, contest); err != nil {
		return err
	}
	for _, jt := range judgementTypes {
		if err := s.appendEvent(ccs.EventTypeJudgementTypes, jt.ID, jt); err != nil {
			return err
		}
	}
	for _, lang := range languages {
		if err := s.appendEvent(ccs.EventTypeLanguages, lang.ID, lang); err != nil {
			return err
		}
	}
	for _, prob := range problems {
		if err := s.appendEvent(ccs.EventTypeProblems, prob.ID, prob); err != nil {
			return err
		}
	}
	for _, team := range teams {
		if err := s.appendEvent(ccs.EventTypeTeams, team.ID, team); err != nil {
			return err
		}
	}

	logger.Logger.Info("initialized static events", "count", len(s.events))
	return nil
}

// Events returns a point-in-time copy of the full log.
func (s *Store) Events() []ccs.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ccs.Event(nil), s.events...)
}

// EventsSince returns every event with a token greater than the given one.
// Fails with ErrInvalidTokenFormat, ErrInvalidToken or ErrUnknownToken for
// unparseable, negative, or never-issued tokens respectively.
func (s *Store) EventsSince(token string) ([]ccs.Event, error) {
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenFormat, token)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > s.nextToken-1 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}

	// tokens are contiguous and 1-based, so token n sits at index n-1
	start := n
	if start > int64(len(s.events)) {
		start = int64(len(s.events))
	}
	return append([]ccs.Event(nil), s.events[start:]...), nil
}

// LastToken returns the token of the newest event, or false on an empty log.
func (s *Store) LastToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) == 0 {
		return "", false
	}
	return s.events[len(s.events)-1].Token, true
}

// Submissions returns all submissions in creation order.
func (s *Store) Submissions() []ccs.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ccs.Submission, 0, len(s.submissionOrder))
	for _, id := range s.submissionOrder {
		out = append(out, s.submissions[id])
	}
	return out
}

func (s *Store) Submission(id string) (ccs.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	return sub, ok
}

// Judgements returns all judgements in creation order.
func (s *Store) Judgements() []ccs.Judgement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ccs.Judgement, 0, len(s.judgementOrder))
	for _, id := range s.judgementOrder {
		out = append(out, s.judgements[id])
	}
	return out
}

func (s *Store) Judgement(id string) (ccs.Judgement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	judg, ok := s.judgements[id]
	return judg, ok
}
