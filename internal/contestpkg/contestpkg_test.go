package contestpkg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algotester-tools/ccs-eventfeed/internal/contestpkg"
)

func writePackage(t *testing.T, contest, problems, teams string) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "contest.yaml"), []byte(contest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "problems.yaml"), []byte(problems), 0o644))
	if teams != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "teams.json"), []byte(teams), 0o644))
	}

	return dir
}

const contestYAML = `id: test2025
name: Test Contest
formal_name: The Test Contest 2025
start_time: "2025-01-01T10:00:00+02:00"
duration: "5:00:00"
scoreboard_freeze_duration: "1:00:00"
penalty_time: 20
`

const problemsYAML = `- id: sum
  label: A
  name: Sum of Numbers
  rgb: "#FF0000"
  color: red
- id: graph
  label: B
  name: Graph Walk
`

const teamsJSON = `[{"id": "t1", "name": "Team One"}, {"id": "t2", "name": "Team Two", "display_name": "The Twos"}]`

func TestLoad(t *testing.T) {
	dir := writePackage(t, contestYAML, problemsYAML, teamsJSON)

	pkg, err := contestpkg.Load(dir)
	require.NoError(t, err)

	t.Run("Contest", func(t *testing.T) {
		contest := pkg.Contest()
		require.Equal(t, "test2025", contest.ID)
		require.Equal(t, "Test Contest", contest.Name)
		require.Equal(t, "The Test Contest 2025", contest.FormalName)
		require.Equal(t, "5:00:00.000", contest.Duration)
		require.Equal(t, "1:00:00.000", contest.ScoreboardFreezeDuration)
		require.NotNil(t, contest.StartTime)
		require.Equal(t, "2025-01-01T10:00:00.000+02:00", *contest.StartTime)

		start, ok := pkg.StartTime()
		require.True(t, ok)
		require.Equal(t, 10, start.Hour())
	})

	t.Run("Problems", func(t *testing.T) {
		problems := pkg.Problems()
		require.Len(t, problems, 2)

		require.Equal(t, "A", problems[0].Label)
		require.Equal(t, 0, problems[0].Ordinal)
		require.Equal(t, "#FF0000", problems[0].RGB)

		// defaults fill in for the second problem
		require.Equal(t, 1, problems[1].Ordinal)
		require.Equal(t, "#000000", problems[1].RGB)
		require.Equal(t, "black", problems[1].Color)
		require.Equal(t, 1.0, problems[1].TimeLimit)

		prob, ok := pkg.ProblemByID("graph")
		require.True(t, ok)
		require.Equal(t, "B", prob.Label)

		_, ok = pkg.ProblemByID("nope")
		require.False(t, ok)
	})

	t.Run("Teams", func(t *testing.T) {
		teams := pkg.Teams()
		require.Len(t, teams, 2)
		require.Equal(t, "Team One", teams[0].DisplayName, "display name defaults to name")
		require.Equal(t, "The Twos", teams[1].DisplayName)

		team, ok := pkg.TeamByID("t2")
		require.True(t, ok)
		require.Equal(t, "Team Two", team.Name)
	})
}

func TestLoadNoTeams(t *testing.T) {
	dir := writePackage(t, contestYAML, problemsYAML, "")

	pkg, err := contestpkg.Load(dir)
	require.NoError(t, err)
	require.Empty(t, pkg.Teams())
}

func TestLoadSexagesimalDuration(t *testing.T) {
	// unquoted 5:00:00 parses as the integer 18000 under YAML 1.1
	contest := "id: c\nname: n\nduration: 5:00:00\n"
	dir := writePackage(t, contest, problemsYAML, "")

	pkg, err := contestpkg.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "5:00:00.000", pkg.Contest().Duration)
	require.Nil(t, pkg.Contest().StartTime)
}

func TestLoadMissingContest(t *testing.T) {
	dir := t.TempDir()
	_, err := contestpkg.Load(dir)
	require.Error(t, err)
}
