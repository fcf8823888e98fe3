package commands

import (
	"github.com/rs/zerolog"

	"followup/internal/config"
	"followup/internal/logging"
)

// newLogger builds the process logger; --debug wins over the configured level.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	return logging.New(level, cfg.LogFile)
}
