// internal/steps/fetch-dataset/config.go
package fetchdataset

import (
	"net/http"
	"time"
)

type Config struct {
	Timeout time.Duration

	// Transport overrides the HTTP transport; nil uses the default.
	Transport http.RoundTripper
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
