package di

import (
	"io"

	"github.com/aristath/strata/internal/config"
	"github.com/aristath/strata/pkg/logger"
	"github.com/rs/zerolog"
)

// NewLogger builds the application logger from config and installs it as
// the global zerolog logger. A nil out writes to stdout.
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: out,
	})
	logger.SetGlobalLogger(log)
	return log
}
