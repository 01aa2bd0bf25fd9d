// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/strata/internal/config"
	"github.com/aristath/strata/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Metrics are registered on reg; a nil reg uses the Prometheus default
// registerer.
func Wire(cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	container := &Container{
		Metrics: metrics.NewRecorder(reg),
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
