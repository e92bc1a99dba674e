package config

import "time"

// Config holds runtime settings for the AudioScribe CLI.
type Config struct {
	ServerURL            string
	SessionDir           string
	SessionCheckInterval time.Duration
	RequestTimeout       time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.SessionDir = ".audioscribe"
	c.SessionCheckInterval = 30 * time.Second
	c.RequestTimeout = 5 * time.Minute
}

// LoadConfig builds a Config from defaults overlaid by the JSON file at path.
// An empty path skips the file. Command-line flags are applied by the caller.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
