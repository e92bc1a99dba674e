package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/audioscribe/internal/timex"
)

// JSONConfig is the on-disk form of Config. Durations accept "30s" or
// integer nanoseconds.
type JSONConfig struct {
	ServerURL            string         `json:"server_url"`
	SessionDir           string         `json:"session_dir"`
	SessionCheckInterval timex.Duration `json:"session_check_interval"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
}

// parseJSON overlays cfg with the non-zero values found in the file.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.SessionDir != "" {
		cfg.SessionDir = jc.SessionDir
	}
	if jc.SessionCheckInterval.Duration > 0 {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
