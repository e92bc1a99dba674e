package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name in the Config env tags.
const EnvPrefix = "AUDIOSCRIBE_"

// parseEnv overlays AUDIOSCRIBE_* environment variables onto config. Unset
// variables leave the current value alone. A malformed value panics.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
