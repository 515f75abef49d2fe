package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kazari/kazarid/internal/database"
	"github.com/kazari/kazarid/internal/models"
	"github.com/kazari/kazarid/internal/recorder"
)

func newReportCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report [period]",
		Short: "Show session statistics (period: day, week, month, all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periodType := "day"
			if len(args) > 0 {
				periodType = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}

			rec := recorder.New(database.NewRepository(db))
			stats, err := rec.Stats(periodType)
			if err != nil {
				return err
			}

			if jsonOutput {
				out, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format JSON: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(formatStats(stats))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func formatStats(stats *models.Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report (%s): %s - %s\n",
		stats.Period.Type,
		stats.Period.Start.Format("2006-01-02"),
		stats.Period.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total time: %s\n\n", formatSeconds(stats.TotalSeconds))

	if len(stats.Phases) == 0 {
		b.WriteString("No sessions recorded.\n")
	}
	for _, phase := range stats.Phases {
		fmt.Fprintf(&b, "  %-10s %10s  %3d sessions (%d completed, %d interrupted)  %5.1f%%\n",
			phase.Phase,
			formatSeconds(phase.TotalSeconds),
			phase.SessionCount,
			phase.CompletedCount,
			phase.InterruptedCount,
			phase.Percentage)
	}

	fmt.Fprintf(&b, "\nStreak: %d day(s), best %d\n", stats.CurrentStreak, stats.BestStreak)
	return b.String()
}

func formatSeconds(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
