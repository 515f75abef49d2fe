package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kazari/kazarid/internal/broker"
	"github.com/kazari/kazarid/internal/clock"
	"github.com/kazari/kazarid/internal/config"
	"github.com/kazari/kazarid/internal/daemon"
	"github.com/kazari/kazarid/internal/database"
	"github.com/kazari/kazarid/internal/idle"
	"github.com/kazari/kazarid/internal/logging"
	"github.com/kazari/kazarid/internal/notify"
	"github.com/kazari/kazarid/internal/recorder"
	"github.com/kazari/kazarid/internal/timer"
	"github.com/kazari/kazarid/internal/web"
)

const daemonChildEnv = "KAZARID_DAEMON_CHILD"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the timer daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dm := daemon.New(cfg.Daemon.PIDFile)
			if running, pid, err := dm.IsRunning(); err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			} else if running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}
			return runServe(cfg, dm)
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the timer daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dm := daemon.New(cfg.Daemon.PIDFile)
			if running, pid, err := dm.IsRunning(); err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			} else if running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}

			if os.Getenv(daemonChildEnv) != "1" {
				return daemonize(cfg)
			}

			// Child process: log to file and run the daemon.
			logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				logging.SetOutput(logFile)
				defer logFile.Close()
			}
			return runServe(cfg, dm)
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background timer daemon",
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
				fmt.Println("Daemon is not running")
				return nil
			}

			fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(); err != nil {
				return err
			}
			fmt.Println("Daemon stopped successfully")
			return nil
		},
	}
}

// daemonize re-executes the current binary detached in a new session.
func daemonize(cfg *config.Config) error {
	env := os.Environ()
	env = append(env, daemonChildEnv+"=1")

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	executable, err := os.Executable()
	if err != nil {
		executable = os.Args[0]
	}

	process, err := os.StartProcess(executable, os.Args, procAttr)
	if err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", process.Pid)
	fmt.Printf("API: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
	return nil
}

// runServe wires the whole core together and blocks until shutdown.
func runServe(cfg *config.Config, dm *daemon.Daemon) error {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := database.NewRepository(db)
	rec := recorder.New(repo)

	b, err := broker.New(cfg.Timer, clock.System())
	if err != nil {
		return err
	}

	// Pick up where the user left off. A snapshot saved while running
	// comes back paused.
	if state, ok, loadErr := rec.LoadState(); loadErr != nil {
		logging.Warnf("failed to load persisted state: %v", loadErr)
	} else if ok {
		if restoreErr := b.Restore(state); restoreErr != nil {
			logging.Warnf("persisted state rejected: %v", restoreErr)
		} else {
			logging.Infof("restored %s phase with %v remaining", state.Phase, state.Remaining.Round(time.Second))
		}
	}

	if err := dm.WritePID(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer dm.RemovePID()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Recorder: sessions and snapshots, write-behind.
	recSub := b.Subscribe(256)
	recDone := make(chan struct{})
	go func() {
		rec.Run(ctx, recSub.Events())
		close(recDone)
	}()

	// Notifications on phase changes.
	if cfg.Notify.Enabled {
		notifySub := b.Subscribe(16)
		go notify.NewWatcher(notify.New()).Run(ctx, notifySub.Events())
	}

	// Idle watcher: pause focus when the user walks away.
	if cfg.Idle.Enabled {
		checker, idleErr := idle.NewChecker()
		if idleErr != nil {
			logging.Infof("idle watcher disabled: %v", idleErr)
		} else {
			defer checker.Close()
			go idle.NewWatcher(cfg.Idle, b, checker).Run(ctx)
		}
	}

	srv := web.NewServer(cfg, b, rec, 0)
	srv.OnConfigChange(func(tc timer.Config) {
		cfg.Timer = tc
		if saveErr := config.SaveFile(cfgPath, cfg); saveErr != nil {
			logging.Warnf("failed to persist config: %v", saveErr)
			b.Warn("configuration change not saved to disk")
		}
	})

	go func() {
		if srvErr := srv.Start(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			logging.Errorf("API server error: %v", srvErr)
			stop()
		}
	}()

	engineDone := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(engineDone)
	}()

	logging.Infof("kazarid daemon started")
	logging.Infof("API available at: http://%s", srv.GetAddress())
	logging.Debugf("%s", cfg.String())

	<-ctx.Done()
	logging.Infof("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warnf("error shutting down API server: %v", err)
	}

	// Engine stops, subscriptions close, the recorder writes its final
	// snapshot and drains.
	<-engineDone
	<-recDone

	logging.Infof("Daemon stopped successfully")
	return nil
}
