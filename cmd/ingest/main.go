// Command ingest is the standings extraction CLI.
//
// Usage:
//
//	standings-ingest run
//	standings-ingest run --url "https://www.soccerstats.com/latest.asp?league=spain" --min-teams 10
//	standings-ingest show
//	standings-ingest show 2026-10-18
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-standings/internal/alias"
	"github.com/albapepper/scoracle-standings/internal/config"
	"github.com/albapepper/scoracle-standings/internal/db"
	"github.com/albapepper/scoracle-standings/internal/display"
	"github.com/albapepper/scoracle-standings/internal/fetch"
	"github.com/albapepper/scoracle-standings/internal/persist"
	"github.com/albapepper/scoracle-standings/internal/pipeline"
	"github.com/albapepper/scoracle-standings/internal/seed"
)

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "standings-ingest",
		Short:         "League standings extraction CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(showCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		sourceURL     string
		minTeams      int
		outDir        string
		aliasFile     string
		exitOnFailure bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the standings page once and persist the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Debug {
				logLevel.Set(slog.LevelDebug)
			}
			flags := cmd.Flags()
			if flags.Changed("url") {
				cfg.SourceURL = sourceURL
			}
			if flags.Changed("min-teams") {
				cfg.MinTeamsExpected = minTeams
			}
			if flags.Changed("out") {
				cfg.OutputDir = outDir
			}
			if flags.Changed("aliases") {
				cfg.AliasFile = aliasFile
			}
			if flags.Changed("exit-on-failure") {
				cfg.ExitOnFailure = exitOnFailure
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			aliases := alias.Load(cfg.AliasFile, logger)
			logger.Info("Aliases loaded", "file", cfg.AliasFile, "entries", len(aliases))

			client := fetch.NewClient(cfg.RequestHeaders, cfg.RequestTimeout, logger)
			writer := persist.NewWriter(cfg.OutputDir, logger)
			p := pipeline.New(cfg, client, writer, aliases, logger)

			if cfg.MirrorEnabled() {
				pool, err := db.New(ctx, cfg)
				if err != nil {
					logger.Error("Mirror disabled, database unavailable", "error", err)
				} else {
					defer pool.Close()
					p.WithMirror(seed.NewMirror(pool.Pool, logger))
				}
			}

			start := time.Now()
			report, err := p.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("Extraction finished",
				"status", report.Status.String(),
				"duration", time.Since(start).Round(time.Millisecond))
			fmt.Println(report.Summary())

			if report.Failed() && cfg.ExitOnFailure {
				return fmt.Errorf("extraction %s", report.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceURL, "url", config.DefaultSourceURL, "Standings page URL")
	cmd.Flags().IntVar(&minTeams, "min-teams", config.DefaultMinTeamsExpected, "Minimum teams for a valid result")
	cmd.Flags().StringVar(&outDir, "out", config.DefaultOutputDir, "Output directory")
	cmd.Flags().StringVar(&aliasFile, "aliases", config.DefaultAliasFile, "Team alias file (json, json5 or yaml)")
	cmd.Flags().BoolVar(&exitOnFailure, "exit-on-failure", false, "Exit non-zero when no table is found or validation fails")
	return cmd
}

// --------------------------------------------------------------------------
// show command
// --------------------------------------------------------------------------

func showCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "show [date]",
		Short: "Print a persisted result as a table (latest when no date is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("out") {
				cfg.OutputDir = outDir
			}

			var date string
			if len(args) == 1 {
				date = args[0]
			} else {
				date, err = persist.LatestDate(cfg.OutputDir)
				if err != nil {
					return fmt.Errorf("no results in %s: %w", cfg.OutputDir, err)
				}
			}

			res, err := persist.ReadResult(cfg.OutputDir, date)
			if err != nil {
				return fmt.Errorf("read %s: %w", date, err)
			}
			display.Render(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", config.DefaultOutputDir, "Output directory")
	return cmd
}
