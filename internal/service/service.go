// Package service implements the daily-update capture pipeline: session
// lifecycle, parse dispatch, the pending-update store and the review
// coordinator.
package service

import (
	"github.com/google/uuid"

	"github.com/daypulse/capture/internal/adapter/entries"
	"github.com/daypulse/capture/internal/adapter/parser"
	"github.com/daypulse/capture/internal/bus"
	"github.com/daypulse/capture/internal/config"
	"github.com/daypulse/capture/internal/policy"
	"github.com/daypulse/capture/internal/repository"
)

type Service struct {
	store   repository.Store
	parser  parser.Parser
	entries entries.Creator
	bus     *bus.Bus
	policy  *policy.Engine
	config  *config.Config
}

func New(store repository.Store, parserClient parser.Parser, entriesClient entries.Creator, eventBus *bus.Bus, policyEngine *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		parser:  parserClient,
		entries: entriesClient,
		bus:     eventBus,
		policy:  policyEngine,
		config:  cfg,
	}
}

// Bus exposes the event bus so consumers can subscribe and read diagnostics.
func (s *Service) Bus() *bus.Bus {
	return s.bus
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}
