// Package cmds implements the genmappings CLI: it pulls the live Algotester
// scoreboard, pairs its ids with the contest package entries and writes the
// mapping files the server loads at startup.
package cmds

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/algotester-tools/ccs-eventfeed/internal/config"
	"github.com/algotester-tools/ccs-eventfeed/internal/contestpkg"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

var (
	teamsOut    string
	problemsOut string
	dryRun      bool
)

var rootCmd = &cobra.Command{
	Use:           "genmappings",
	Short:         "Generates Algotester to contest package id mappings",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := config.GetConfig()
		if err != nil {
			return err
		}

		var (
			rows []scoreboard.Row
			pkg  *contestpkg.Package
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			client := scoreboard.New(
				scoreboard.DefaultHTTPClient(),
				scoreboard.BaseURL(cfg.Algotester.Subdomain),
				cfg.Algotester.APIKey,
				cfg.Algotester.ContestID,
				cfg.Algotester.ShowUnofficial,
			)

			var err error
			rows, err = client.FetchScoreboard(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			pkg, err = contestpkg.Load(cfg.ContestPackagePath)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		teams := pairTeams(rows, pkg.Teams())
		problems := pairProblems(rows, pkg.Problems())

		if dryRun {
			for algotesterID, ccsID := range teams {
				logger.Logger.Info("team mapping", "algotester_id", algotesterID, "ccs_id", ccsID)
			}
			for algotesterID, ccsID := range problems {
				logger.Logger.Info("problem mapping", "algotester_id", algotesterID, "ccs_id", ccsID)
			}
			return nil
		}

		teamsPath := teamsOut
		if teamsPath == "" {
			teamsPath = cfg.TeamMappingFile
		}
		problemsPath := problemsOut
		if problemsPath == "" {
			problemsPath = cfg.ProblemMappingFile
		}

		if err := mapping.Write(teamsPath, "Algotester team id -> contest package team id", teams); err != nil {
			return err
		}
		if err := mapping.Write(problemsPath, "Algotester problem id -> contest package problem id", problems); err != nil {
			return err
		}

		logger.Logger.Info("wrote mappings",
			"teams", len(teams),
			"teams_path", teamsPath,
			"problems", len(problems),
			"problems_path", problemsPath,
		)
		return nil
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Flags().
		StringVar(&teamsOut, "teams-out", "", "team mapping output path (defaults to team_mapping_file from config)")
	rootCmd.Flags().
		StringVar(&problemsOut, "problems-out", "", "problem mapping output path (defaults to problem_mapping_file from config)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the pairing without writing files")
}
