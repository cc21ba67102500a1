package scoreboard

import "strings"

// Raw shapes as served by the Algotester scoreboard endpoint.

type rawPage struct {
	Rows []rawRow `json:"rows"`
}

type rawText struct {
	Text string `json:"Text"`
}

type rawResult struct {
	IsAccepted        bool    `json:"IsAccepted"`
	Attempts          int     `json:"Attempts"`
	PendingAttempts   int     `json:"PendingAttempts"`
	LastImprovementMs float64 `json:"LastImprovementMs"`
	PenaltyMs         float64 `json:"PenaltyMs"`
	IsFirstAccepted   bool    `json:"IsFirstAccepted"`
}

type rawRow struct {
	ID           string               `json:"Id"`
	Rank         int                  `json:"Rank"`
	Contestant   rawText              `json:"Contestant"`
	Score        float64              `json:"Score"`
	PenaltyMs    float64              `json:"PenaltyMs"`
	IsUnofficial bool                 `json:"IsUnofficial"`
	Group        rawText              `json:"Group"`
	Results      map[string]rawResult `json:"Results"`
}

// ProblemResult is the normalized aggregate state of one team/problem pair at
// poll time. Attempts counts judged non-accepted submissions only; an
// accepted submission is the IsAccepted flag on top of that.
type ProblemResult struct {
	IsAccepted      bool    `json:"is_accepted"`
	Attempts        int     `json:"attempts"`
	PendingAttempts int     `json:"pending_attempts"`
	TimeMs          float64 `json:"time_ms"`
	PenaltyMs       float64 `json:"penalty_ms"`
	IsFirstAccepted bool    `json:"is_first_accepted"`
}

// Row is one normalized scoreboard row, keyed by Algotester ids.
type Row struct {
	TeamID       string                   `json:"team_id"`
	TeamName     string                   `json:"team_name"`
	Rank         int                      `json:"rank"`
	Score        float64                  `json:"score"`
	PenaltyMs    float64                  `json:"penalty_ms"`
	IsUnofficial bool                     `json:"is_unofficial"`
	Group        string                   `json:"group"`
	Results      map[string]ProblemResult `json:"results"`
}

func normalizeRow(raw rawRow) Row {
	row := Row{
		TeamID:       raw.ID,
		TeamName:     strings.TrimSpace(raw.Contestant.Text),
		Rank:         raw.Rank,
		Score:        raw.Score,
		PenaltyMs:    raw.PenaltyMs,
		IsUnofficial: raw.IsUnofficial,
		Group:        strings.TrimSpace(raw.Group.Text),
		Results:      make(map[string]ProblemResult, len(raw.Results)),
	}
	for problemID, res := range raw.Results {
		row.Results[problemID] = ProblemResult{
			IsAccepted:      res.IsAccepted,
			Attempts:        res.Attempts,
			PendingAttempts: res.PendingAttempts,
			TimeMs:          res.LastImprovementMs,
			PenaltyMs:       res.PenaltyMs,
			IsFirstAccepted: res.IsFirstAccepted,
		}
	}
	return row
}
