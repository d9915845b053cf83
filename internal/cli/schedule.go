package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chesterfieldhockey/scoutdata/internal/content"
	"github.com/chesterfieldhockey/scoutdata/internal/logger"
	"github.com/chesterfieldhockey/scoutdata/internal/schedule"
)

// NewScheduleCmd creates the schedule-sync root command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule-sync",
		Short: "Regenerate normalized team schedules from their calendar feeds",
		Long: `Fetches each team's configured calendar feeds, normalizes the events
into game records and rewrites the team's schedule file. The first feed
that yields events wins; later feeds for the same team are ignored.`,
		SilenceUsage: true,
		RunE:         runScheduleSync,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Override the content directory")
	cmd.Flags().StringVar(&flagSlug, "slug", "", "Sync only the team with this slug")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Report what would be written without writing")

	return cmd
}

func runScheduleSync(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	contentStore, err := content.NewStore(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("initializing content store: %w", err)
	}
	schedStore, err := schedule.NewStore(cfg.ScheduleDir)
	if err != nil {
		return fmt.Errorf("initializing schedule store: %w", err)
	}
	schedStore.SetDryRun(flagDryRun)

	syncer := schedule.NewSyncer(schedStore, loc, cfg.RequestTimeout())

	files, err := contentStore.ListTeamFiles()
	if err != nil {
		return err
	}

	var sum ScheduleSummary
	for _, path := range files {
		team, err := contentStore.LoadTeam(path)
		if err != nil {
			logger.Warn("Skipping unreadable team file", logger.Fields{
				"path":  path,
				"error": err.Error(),
			})
			sum.Failed++
			continue
		}
		if flagSlug != "" && team.Slug != flagSlug {
			continue
		}
		if len(team.Calendars) == 0 {
			sum.Skipped++
			continue
		}

		games, wrote, err := syncer.SyncTeam(cmd.Context(), team)
		if err != nil {
			logger.Warn("Schedule sync failed for team", logger.Fields{
				"slug":  team.Slug,
				"error": err.Error(),
			})
			sum.Failed++
			continue
		}

		sum.Synced++
		sum.Games += games
		if wrote {
			sum.Written++
		}
	}

	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	return WriteScheduleSummary(cmd.OutOrStdout(), sum, flagDryRun, format)
}
