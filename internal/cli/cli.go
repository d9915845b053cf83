package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chesterfieldhockey/scoutdata/internal/config"
	"github.com/chesterfieldhockey/scoutdata/internal/content"
	"github.com/chesterfieldhockey/scoutdata/internal/history"
	"github.com/chesterfieldhockey/scoutdata/internal/logger"
	"github.com/chesterfieldhockey/scoutdata/internal/mhr"
	"github.com/chesterfieldhockey/scoutdata/internal/refresh"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig     string
	flagDataDir    string
	flagHistoryDir string
	flagFormat     string
	flagDebug      bool
	flagDryRun     bool

	flagSlug        string
	flagTournament  string
	flagForce       bool
	flagStaleDays   int
	flagDumpHTML    bool
	flagIncludePast bool
)

// NewRefreshCmd creates the mhr-refresh root command.
func NewRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mhr-refresh",
		Short: "Refresh opponent ratings, records and rankings from MyHockeyRankings",
		Long: `Refreshes cached MHR data for teams and tournament opponents.
Content files are only rewritten when their data actually changed, and
every refreshed entity also gets a dated point appended to its rating
history.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Override the content directory")
	cmd.PersistentFlags().StringVar(&flagHistoryDir, "history-dir", "", "Override the history directory")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Report what would be written without writing")

	cmd.AddCommand(newTeamsCmd(), newTournamentsCmd())

	return cmd
}

func newTeamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Refresh MHR data for tracked team files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, func(r *refresh.Runner) (refresh.Summary, error) {
				return r.RunTeams(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&flagSlug, "slug", "", "Refresh only the team with this slug")
	addRefreshFlags(cmd)

	return cmd
}

func newTournamentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tournaments",
		Short: "Refresh MHR data for tournament opponents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, func(r *refresh.Runner) (refresh.Summary, error) {
				return r.RunTournaments(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&flagTournament, "tournament", "", "Only tournaments whose filename contains this string")
	cmd.Flags().BoolVar(&flagIncludePast, "include-past", false, "Also refresh tournaments that have already ended")
	addRefreshFlags(cmd)

	return cmd
}

func addRefreshFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagForce, "force", false, "Refresh even when cached data is still fresh")
	cmd.Flags().IntVar(&flagStaleDays, "stale-days", 0, "Override the staleness window in days")
	cmd.Flags().BoolVar(&flagDumpHTML, "dump-html", false, "Dump fetched HTML to the debug directory")
}

// runRefresh builds a Runner from flags and config and executes one of
// its pipelines.
func runRefresh(cmd *cobra.Command, run func(*refresh.Runner) (refresh.Summary, error)) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, err := content.NewStore(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("initializing content store: %w", err)
	}
	histStore, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		return fmt.Errorf("initializing history store: %w", err)
	}

	extractorOpts := []mhr.Option{
		mhr.WithTimeout(cfg.RequestTimeout()),
		mhr.WithUserAgent(cfg.UserAgent),
		mhr.WithRenderer(mhr.NewChromeRenderer(cfg.RenderTimeout())),
	}
	if flagDumpHTML {
		extractorOpts = append(extractorOpts, mhr.WithDumpDir(cfg.DebugDir))
	}

	runner, err := refresh.NewRunner(store, histStore, mhr.New(extractorOpts...), cfg, refresh.Options{
		Force:            flagForce,
		StaleDays:        flagStaleDays,
		DryRun:           flagDryRun,
		IncludePast:      flagIncludePast,
		Slug:             flagSlug,
		TournamentFilter: flagTournament,
	})
	if err != nil {
		return err
	}

	sum, err := run(runner)
	if err != nil {
		return err
	}

	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	return WriteRefreshSummary(cmd.OutOrStdout(), sum, flagDryRun, format)
}

// setup loads config and applies the global flag overrides.
func setup() (*config.Config, error) {
	if flagDebug {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.ContentDir = flagDataDir
	}
	if flagHistoryDir != "" {
		cfg.HistoryDir = flagHistoryDir
	}
	return cfg, nil
}

// ExecuteRefresh runs the mhr-refresh CLI.
func ExecuteRefresh() {
	if err := NewRefreshCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

// ExecuteSchedule runs the schedule-sync CLI.
func ExecuteSchedule() {
	if err := NewScheduleCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
