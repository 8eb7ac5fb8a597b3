package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/backup"
	"github.com/eatd/backtar/internal/retention"
	"github.com/eatd/backtar/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the source tree and back up on change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			run := runOnce(a, orch, source, dest, a.cfg.Watch.Rotate)
			w := watcher.New(a.cfg.Watch, source, run, a.log)

			// Hot reload on SIGHUP.
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			go func() {
				for range hup {
					if err := a.reload(); err != nil {
						a.log.Error("config reload failed", "error", err)
						continue
					}
					w.UpdateConfig(a.cfg.Watch)
					a.log.Info("config reloaded")
				}
			}()

			a.log.Info("watching for changes", "source", source, "destination", dest)
			return w.Start(ctx)
		},
	}
}

// runOnce builds the RunFunc shared by the watch and schedule daemons:
// one incremental create, then rotation when enabled.
func runOnce(a *app, orch *backup.Orchestrator, source, dest string, rotate bool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := orch.Create(ctx, source, dest, "", false)
		if err != nil {
			return err
		}
		if res.NothingToDo() {
			return nil
		}

		if rotate {
			if _, err := orch.Rotate(retention.Policy{
				MaxBackups:    a.cfg.Retention.MaxBackups,
				RetentionDays: a.cfg.Retention.RetentionDays,
			}); err != nil {
				return err
			}
		}
		return nil
	}
}
