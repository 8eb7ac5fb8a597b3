// Command backtar is an incremental backup tool: it archives changed
// files into compressed tar files, keeps a durable history ledger, and
// rotates old backups by policy.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/eatd/backtar/internal/config"
	"github.com/eatd/backtar/internal/logging"
)

// app carries the loaded configuration and logger into subcommands.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     logging.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "backtar",
		Short:        "Incremental backups with verification and rotation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "backtar.yaml", "path to configuration file")

	root.AddCommand(
		newCreateCmd(a),
		newRestoreCmd(a),
		newListCmd(a),
		newRotateCmd(a),
		newWatchCmd(a),
		newScheduleCmd(a),
	)
	return root
}

// reload re-reads the config file, for the SIGHUP handling in the
// daemon commands.
func (a *app) reload() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
