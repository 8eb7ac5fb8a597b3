package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/backup"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := backup.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			recs := orch.List()
			if len(recs) == 0 {
				fmt.Println("No backups found")
				return nil
			}

			fmt.Printf("Available backups (%d):\n", len(recs))
			for i := len(recs) - 1; i >= 0; i-- {
				rec := recs[i]
				fmt.Printf("%d. %s - %s\n", len(recs)-i, rec.Timestamp.Format("2006-01-02 15:04:05"), rec.BackupType)
				fmt.Printf("   Files: %d | Size: %s | Compression: %.1f%%\n",
					rec.FileCount, humanize.Bytes(rec.CompressedSizeBytes), rec.CompressionRatioPercent)
				fmt.Printf("   Path: %s\n", rec.ArchivePath)
			}
			return nil
		},
	}
}
