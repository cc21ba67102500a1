// Package ccs holds the wire types of the CCS contest API surface this
// service exposes: https://ccs-specs.icpc.io/draft/contest_api
package ccs

import "encoding/json"

type Contest struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	FormalName               string  `json:"formal_name"`
	StartTime                *string `json:"start_time"`
	Duration                 string  `json:"duration"`
	ScoreboardFreezeDuration string  `json:"scoreboard_freeze_duration"`
	PenaltyTime              int     `json:"penalty_time"`
}

type JudgementType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Penalty bool   `json:"penalty"`
	Solved  bool   `json:"solved"`
}

type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Problem struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Name          string  `json:"name"`
	Ordinal       int     `json:"ordinal"`
	RGB           string  `json:"rgb"`
	Color         string  `json:"color"`
	TimeLimit     float64 `json:"time_limit"`
	TestDataCount int     `json:"test_data_count"`
}

type Team struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	GroupIDs       []string `json:"group_ids"`
	OrganizationID *string  `json:"organization_id"`
	ICPCID         *string  `json:"icpc_id"`
}

// Submission is one reconstructed attempt. Immutable once created.
type Submission struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	ProblemID   string `json:"problem_id"`
	LanguageID  string `json:"language_id"`
	Time        string `json:"time"`
	ContestTime string `json:"contest_time"`
}

// Judgement is the single verdict attached to a submission. A submission
// without one is pending.
type Judgement struct {
	ID               string `json:"id"`
	SubmissionID     string `json:"submission_id"`
	JudgementTypeID  string `json:"judgement_type_id"`
	StartTime        string `json:"start_time"`
	StartContestTime string `json:"start_contest_time"`
	EndTime          string `json:"end_time"`
	EndContestTime   string `json:"end_contest_time"`
}

// Event is one entry of the append-only feed. Tokens are decimal strings,
// 1-based, contiguous and strictly increasing.
type Event struct {
	Token string          `json:"token"`
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Op    string          `json:"op"`
	Data  json.RawMessage `json:"data"`
}

const (
	EventTypeContests       = "contests"
	EventTypeJudgementTypes = "judgement-types"
	EventTypeLanguages      = "languages"
	EventTypeProblems       = "problems"
	EventTypeTeams          = "teams"
	EventTypeSubmissions    = "submissions"
	EventTypeJudgements     = "judgements"

	OpCreate = "create"
)

const (
	JudgementTypeAC = "AC"
	JudgementTypeWA = "WA"
)
