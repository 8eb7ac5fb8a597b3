package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/backup"
	"github.com/eatd/backtar/internal/retention"
)

func newRotateCmd(a *app) *cobra.Command {
	var maxBackups int

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Prune old backups per the retention policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := backup.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			policy := retention.Policy{
				MaxBackups:    a.cfg.Retention.MaxBackups,
				RetentionDays: a.cfg.Retention.RetentionDays,
			}
			if maxBackups > 0 {
				policy.MaxBackups = maxBackups
			}

			res, err := orch.Rotate(policy)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d backup(s)\n", len(res.Removed))
			if res.Failed > 0 {
				return fmt.Errorf("%d deletion(s) failed; their records were kept for retry", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxBackups, "max-backups", 0, "override the configured backup count bound")
	return cmd
}
