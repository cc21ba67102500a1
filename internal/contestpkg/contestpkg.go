// Package contestpkg loads a contest package directory (contest.yaml,
// problems.yaml, optional teams.json) and serves its entities in CCS form.
package contestpkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
)

type contestYAML struct {
	ID                       string      `yaml:"id"`
	Name                     string      `yaml:"name"`
	FormalName               string      `yaml:"formal_name"`
	StartTime                string      `yaml:"start_time"`
	Duration                 interface{} `yaml:"duration"`
	ScoreboardFreezeDuration interface{} `yaml:"scoreboard_freeze_duration"`
	PenaltyTime              *int        `yaml:"penalty_time"`
}

type problemYAML struct {
	ID            string   `yaml:"id"`
	Label         string   `yaml:"label"`
	Name          string   `yaml:"name"`
	RGB           string   `yaml:"rgb"`
	Color         string   `yaml:"color"`
	TimeLimit     *float64 `yaml:"time_limit"`
	TestDataCount *int     `yaml:"test_data_count"`
}

type Package struct {
	contest  ccs.Contest
	start    time.Time
	hasStart bool
	problems []ccs.Problem
	teams    []ccs.Team
}

// Load reads the package from dir. contest.yaml and problems.yaml are
// required, teams.json is optional.
func Load(dir string) (*Package, error) {
	rawContest, err := os.ReadFile(filepath.Join(dir, "contest.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read contest.yaml: %w", err)
	}
	var cy contestYAML
	if err = yaml.Unmarshal(rawContest, &cy); err != nil {
		return nil, fmt.Errorf("parse contest.yaml: %w", err)
	}

	rawProblems, err := os.ReadFile(filepath.Join(dir, "problems.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read problems.yaml: %w", err)
	}
	var pys []problemYAML
	if err = yaml.Unmarshal(rawProblems, &pys); err != nil {
		return nil, fmt.Errorf("parse problems.yaml: %w", err)
	}

	pkg := Package{}

	if err = pkg.setContest(cy); err != nil {
		return nil, err
	}
	pkg.setProblems(pys)

	rawTeams, err := os.ReadFile(filepath.Join(dir, "teams.json"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read teams.json: %w", err)
		}
	} else if err = json.Unmarshal(rawTeams, &pkg.teams); err != nil {
		return nil, fmt.Errorf("parse teams.json: %w", err)
	}

	if pkg.teams == nil {
		pkg.teams = []ccs.Team{}
	}
	for i := range pkg.teams {
		if pkg.teams[i].DisplayName == "" {
			pkg.teams[i].DisplayName = pkg.teams[i].Name
		}
		if pkg.teams[i].GroupIDs == nil {
			pkg.teams[i].GroupIDs = []string{}
		}
	}

	return &pkg, nil
}

func (p *Package) setContest(cy contestYAML) error {
	duration, err := parseDurationValue(cy.Duration, 5*time.Hour)
	if err != nil {
		return fmt.Errorf("contest duration: %w", err)
	}
	freeze, err := parseDurationValue(cy.ScoreboardFreezeDuration, time.Hour)
	if err != nil {
		return fmt.Errorf("scoreboard freeze duration: %w", err)
	}

	penalty := 20
	if cy.PenaltyTime != nil {
		penalty = *cy.PenaltyTime
	}

	name := cy.Name
	if name == "" {
		name = cy.FormalName
	}
	formal := cy.FormalName
	if formal == "" {
		formal = cy.Name
	}

	p.contest = ccs.Contest{
		ID:                       cy.ID,
		Name:                     name,
		FormalName:               formal,
		Duration:                 ccs.FormatRelTime(duration),
		ScoreboardFreezeDuration: ccs.FormatRelTime(freeze),
		PenaltyTime:              penalty,
	}

	if cy.StartTime != "" {
		start, err := ccs.ParseTime(cy.StartTime)
		if err != nil {
			return fmt.Errorf("contest start time: %w", err)
		}
		p.start = start
		p.hasStart = true
		formatted := ccs.FormatTime(start)
		p.contest.StartTime = &formatted
	}

	return nil
}

func (p *Package) setProblems(pys []problemYAML) {
	p.problems = make([]ccs.Problem, 0, len(pys))
	for i, py := range pys {
		prob := ccs.Problem{
			ID:            py.ID,
			Label:         py.Label,
			Name:          py.Name,
			Ordinal:       i,
			RGB:           py.RGB,
			Color:         py.Color,
			TimeLimit:     1.0,
			TestDataCount: 1,
		}
		if prob.RGB == "" {
			prob.RGB = "#000000"
		}
		if prob.Color == "" {
			prob.Color = "black"
		}
		if py.TimeLimit != nil {
			prob.TimeLimit = *py.TimeLimit
		}
		if py.TestDataCount != nil {
			prob.TestDataCount = *py.TestDataCount
		}
		p.problems = append(p.problems, prob)
	}
}

// parseDurationValue accepts H:MM:SS strings as well as plain seconds.
// Unquoted H:MM:SS in YAML 1.1 parses as a sexagesimal integer, so both
// shapes occur in the wild for the same file.
func parseDurationValue(v interface{}, fallback time.Duration) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return fallback, nil
	case string:
		return ccs.ParseDuration(val)
	case int:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported duration value %v", v)
	}
}

func (p *Package) Contest() ccs.Contest { return p.contest }

// StartTime returns the contest start and whether one was configured.
func (p *Package) StartTime() (time.Time, bool) { return p.start, p.hasStart }

func (p *Package) Problems() []ccs.Problem { return p.problems }

func (p *Package) Teams() []ccs.Team { return p.teams }

func (p *Package) ProblemByID(id string) (ccs.Problem, bool) {
	for _, prob := range p.problems {
		if prob.ID == id {
			return prob, true
		}
	}
	return ccs.Problem{}, false
}

func (p *Package) TeamByID(id string) (ccs.Team, bool) {
	for _, team := range p.teams {
		if team.ID == id {
			return team, true
		}
	}
	return ccs.Team{}, false
}
