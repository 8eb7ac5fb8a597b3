package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			ExcludePatterns: []string{"*.tmp", "*.log", "__pycache__", ".git"},
		},
		Backup: BackupConfig{
			Compression:     "gzip",
			Incremental:     true,
			Verify:          true,
			TraversalErrors: "skip",
		},
		Retention: RetentionConfig{
			MaxBackups:    10,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Mode:           "auto",
			PollInterval:   Duration(5 * time.Second),
			DebounceWindow: Duration(500 * time.Millisecond),
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error: the defaults are returned, matching the optional-config
// behavior callers expect.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// expand $(ENV_VAR) placeholders
	expanded := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	return cfg, nil
}

// LedgerPath resolves the ledger location, defaulting to a file inside
// the destination directory.
func (c *Config) LedgerPath() string {
	if c.Destination.Ledger != "" {
		return c.Destination.Ledger
	}
	return filepath.Join(c.Destination.Path, "backup_history.json")
}
