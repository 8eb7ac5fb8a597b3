package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses Go duration strings ("5s", "250ms") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Backup      BackupConfig      `yaml:"backup"`
	Retention   RetentionConfig   `yaml:"retention"`
	Logging     LoggingConfig     `yaml:"logging"`
	Watch       WatchConfig       `yaml:"watch"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
}

type SourceConfig struct {
	Path            string   `yaml:"path"`
	ExcludePatterns []string `yaml:"excludePatterns"`
}

type DestinationConfig struct {
	Path   string `yaml:"path"`
	Ledger string `yaml:"ledger"` // defaults to <destination>/backup_history.json
}

type BackupConfig struct {
	Compression     string `yaml:"compression"`     // "none", "gzip", "zstd"
	Incremental     bool   `yaml:"incremental"`     //
	Verify          bool   `yaml:"verify"`          // structural check after write
	TraversalErrors string `yaml:"traversalErrors"` // "skip", "fail"
}

type RetentionConfig struct {
	MaxBackups    int `yaml:"maxBackups"`
	RetentionDays int `yaml:"retentionDays"` // 0 disables age-based pruning
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

type WatchConfig struct {
	Mode           string   `yaml:"mode"`           // "auto", "poll", "fsnotify"
	PollInterval   Duration `yaml:"pollInterval"`   // e.g. 5s
	DebounceWindow Duration `yaml:"debounceWindow"` // e.g. 500ms
	Rotate         bool     `yaml:"rotate"`         // prune after each run
}

type ScheduleConfig struct {
	Cron   string `yaml:"cron"`   // standard 5-field cron spec
	Rotate bool   `yaml:"rotate"` // prune after each run
}
