package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/backup"
	"github.com/eatd/backtar/internal/scheduler"
)

func newScheduleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run backups on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Schedule.Cron == "" {
				return fmt.Errorf("no cron expression configured under schedule.cron")
			}

			source, dest, err := sourceDest(a, nil)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			orch, err := backup.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			run := runOnce(a, orch, source, dest, a.cfg.Schedule.Rotate)
			sched, err := scheduler.New(a.cfg.Schedule.Cron, run, a.log)
			if err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", a.cfg.Schedule.Cron, err)
			}

			// Hot reload on SIGHUP; only retention settings take effect
			// without a restart, the cron spec is fixed at startup.
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			go func() {
				for range hup {
					if err := a.reload(); err != nil {
						a.log.Error("config reload failed", "error", err)
						continue
					}
					a.log.Info("config reloaded")
				}
			}()

			a.log.Info("scheduled backups", "cron", a.cfg.Schedule.Cron, "source", source, "destination", dest)
			sched.Start(ctx)
			return nil
		},
	}
}
