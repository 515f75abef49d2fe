package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kazari/kazarid/internal/daemon"
)

type timerStatus struct {
	Phase        string `json:"phase"`
	Status       string `json:"status"`
	RemainingMS  int64  `json:"remaining_ms"`
	TotalMS      int64  `json:"total_ms"`
	SessionCount int    `json:"session_count"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and the current timer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dm := daemon.New(cfg.Daemon.PIDFile)

			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}

			if !running {
				fmt.Println("Status: Not running")
				return nil
			}
			fmt.Printf("Status: Running (PID: %d)\n", pid)

			client := &http.Client{Timeout: 2 * time.Second}
			url := fmt.Sprintf("http://%s:%d/api/timer", cfg.Web.Host, cfg.Web.Port)
			resp, err := client.Get(url)
			if err != nil {
				fmt.Printf("\nCould not reach the timer API: %v\n", err)
				return nil
			}
			defer resp.Body.Close()

			var state timerStatus
			if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
				fmt.Printf("\nCould not read timer state: %v\n", err)
				return nil
			}

			remaining := time.Duration(state.RemainingMS) * time.Millisecond
			total := time.Duration(state.TotalMS) * time.Millisecond
			fmt.Printf("\nTimer:\n")
			fmt.Printf("  Phase: %s (%s)\n", state.Phase, state.Status)
			fmt.Printf("  Remaining: %v of %v\n", remaining.Round(time.Second), total.Round(time.Second))
			fmt.Printf("  Completed focus sessions: %d\n", state.SessionCount)
			return nil
		},
	}
}
