package config

const (
	defaultVaultDir      = "~/.local/share/cardvault/vault"
	defaultStagingDir    = "~/.local/share/cardvault/staging"
	defaultLogDir        = "~/.local/share/cardvault/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultStudyDatabase = "study.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VaultDir:   defaultVaultDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Study: Study{
			LogEnabled: true,
			Database:   defaultStudyDatabase,
		},
	}
}
