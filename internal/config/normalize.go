package config

import (
	"fmt"
	"strings"
)

// normalize expands user paths and fills blanks back in from defaults so the
// rest of the system never sees an empty directory value.
func (c *Config) normalize() error {
	defaults := Default()

	if strings.TrimSpace(c.Paths.VaultDir) == "" {
		c.Paths.VaultDir = defaults.Paths.VaultDir
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaults.Paths.StagingDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaults.Paths.LogDir
	}

	for name, field := range map[string]*string{
		"paths.vault_dir":   &c.Paths.VaultDir,
		"paths.staging_dir": &c.Paths.StagingDir,
		"paths.log_dir":     &c.Paths.LogDir,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", name, err)
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	if strings.TrimSpace(c.Study.Database) == "" {
		c.Study.Database = defaults.Study.Database
	}

	return nil
}
