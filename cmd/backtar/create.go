package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/backup"
	"github.com/eatd/backtar/internal/retention"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		name     string
		full     bool
		rotate   bool
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "create [source] [destination]",
		Short: "Create a new backup",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, dest, err := sourceDest(a, args)
			if err != nil {
				return err
			}
			if noVerify {
				a.cfg.Backup.Verify = false
			}

			orch, err := backup.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			res, err := orch.Create(cmd.Context(), source, dest, name, full)
			if err != nil {
				return err
			}

			if res.NothingToDo() {
				fmt.Println("No files to backup (no changes since last backup)")
				return nil
			}
			fmt.Printf("Backup created: %s\n", res.ArchivePath)

			if rotate {
				pruned, err := orch.Rotate(retention.Policy{
					MaxBackups:    a.cfg.Retention.MaxBackups,
					RetentionDays: a.cfg.Retention.RetentionDays,
				})
				if err != nil {
					return err
				}
				if n := len(pruned.Removed); n > 0 {
					fmt.Printf("Rotated out %d old backup(s)\n", n)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "custom archive file name")
	cmd.Flags().BoolVar(&full, "full", false, "force a full backup")
	cmd.Flags().BoolVar(&rotate, "rotate", false, "apply retention after a successful backup")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip archive verification")
	return cmd
}

func sourceDest(a *app, args []string) (string, string, error) {
	source := a.cfg.Source.Path
	dest := a.cfg.Destination.Path
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		dest = args[1]
	}
	if source == "" || dest == "" {
		return "", "", fmt.Errorf("source and destination must be given as arguments or configured")
	}
	return source, dest, nil
}
