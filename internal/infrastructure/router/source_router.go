package router

import (
	"fmt"
	"sort"
	"strings"

	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/internal/infrastructure/config"
	"flightwindow-service/pkg/logger"
)

// SourceRouter resolves a provider name to its FlightSource
type SourceRouter struct {
	sources map[string]repository.FlightSource
	logger  logger.Logger
}

// NewSourceRouter creates a new source router
func NewSourceRouter(logger logger.Logger) *SourceRouter {
	return &SourceRouter{
		sources: make(map[string]repository.FlightSource),
		logger:  logger,
	}
}

// Register adds source under its own name. A later registration with the
// same name replaces the earlier one.
func (r *SourceRouter) Register(source repository.FlightSource) {
	r.sources[strings.ToLower(source.Name())] = source
	r.logger.Info("Registered flight source", "provider", source.Name())
}

// Get returns the source registered as name
func (r *SourceRouter) Get(name string) (repository.FlightSource, error) {
	source, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", config.ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
	}
	return source, nil
}

// Names lists registered providers in order
func (r *SourceRouter) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
