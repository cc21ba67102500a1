package cmds

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

func TestPairTeams(t *testing.T) {
	rows := []scoreboard.Row{
		{TeamID: "1010"},
		{TeamID: "998"},
		{TeamID: "1002"},
	}
	teams := []ccs.Team{
		{ID: "team-a"},
		{ID: "team-b"},
		{ID: "team-c"},
	}

	// numeric order, not lexicographic: 998 < 1002 < 1010
	require.Equal(t, mapping.Map{
		"998":  "team-a",
		"1002": "team-b",
		"1010": "team-c",
	}, pairTeams(rows, teams))
}

func TestPairTeamsCountMismatch(t *testing.T) {
	rows := []scoreboard.Row{{TeamID: "1"}, {TeamID: "2"}}
	teams := []ccs.Team{{ID: "team-a"}}

	require.Equal(t, mapping.Map{"1": "team-a"}, pairTeams(rows, teams))
}

func TestPairProblems(t *testing.T) {
	rows := []scoreboard.Row{
		{Results: map[string]scoreboard.ProblemResult{"10198": {}, "10197": {}}},
		{Results: map[string]scoreboard.ProblemResult{"10197": {}}},
	}
	problems := []ccs.Problem{
		{ID: "sum", Ordinal: 0},
		{ID: "graph", Ordinal: 1},
	}

	require.Equal(t, mapping.Map{
		"10197": "sum",
		"10198": "graph",
	}, pairProblems(rows, problems))
}

func TestSortIDsNonNumericFallback(t *testing.T) {
	ids := []string{"b", "10", "a", "2"}
	sortIDs(ids)
	require.Equal(t, []string{"2", "10", "a", "b"}, ids)
}
