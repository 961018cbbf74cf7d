// internal/steps/load-rows/config.go
package loadrows

type Config struct {
	// ProgressEvery logs a progress line every N processed rows; 0 disables it.
	ProgressEvery int
}

func LoadConfig() *Config {
	return &Config{
		ProgressEvery: 1000,
	}
}
