package config

const (
	defaultDataDir            = "~/.local/share/retitle"
	defaultLogDir             = "~/.local/share/retitle/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMinSimilarity      = 85
	defaultMaxDistance        = 5
	defaultReprocessLimit     = 1000
	defaultReprocessBatchSize = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Matching: Matching{
			FuzzyEnabled:  true,
			MinSimilarity: defaultMinSimilarity,
			MaxDistance:   defaultMaxDistance,
		},
		Reprocess: Reprocess{
			Limit:     defaultReprocessLimit,
			BatchSize: defaultReprocessBatchSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
