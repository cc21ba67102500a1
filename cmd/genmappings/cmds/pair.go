package cmds

import (
	"sort"
	"strconv"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

// pairTeams matches scoreboard rows to package teams ordinally: Algotester
// ids sorted ascending against the teams.json order. Leftovers on either
// side are logged and skipped.
func pairTeams(rows []scoreboard.Row, teams []ccs.Team) mapping.Map {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.TeamID)
	}
	sortIDs(ids)

	if len(ids) != len(teams) {
		logger.Logger.Warn("team counts differ, pairing the shorter prefix",
			"scoreboard", len(ids),
			"package", len(teams),
		)
	}

	m := mapping.Map{}
	for i := 0; i < len(ids) && i < len(teams); i++ {
		m[ids[i]] = teams[i].ID
	}
	return m
}

// pairProblems matches the problem ids seen across all rows to the package
// problems in ordinal order.
func pairProblems(rows []scoreboard.Row, problems []ccs.Problem) mapping.Map {
	seen := map[string]bool{}
	ids := []string{}
	for _, row := range rows {
		for id := range row.Results {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sortIDs(ids)

	if len(ids) != len(problems) {
		logger.Logger.Warn("problem counts differ, pairing the shorter prefix",
			"scoreboard", len(ids),
			"package", len(problems),
		)
	}

	m := mapping.Map{}
	for i := 0; i < len(ids) && i < len(problems); i++ {
		m[ids[i]] = problems[i].ID
	}
	return m
}

// sortIDs orders numerically where possible since Algotester ids are decimal
// strings; lexicographic order would put "10" before "9".
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
}
