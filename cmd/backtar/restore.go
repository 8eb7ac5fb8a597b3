package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/backup"
)

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive> <destination>",
		Short: "Restore a backup archive into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := backup.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			count, err := orch.Restore(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Restored %d file(s) to %s\n", count, args[1])
			return nil
		},
	}
}
