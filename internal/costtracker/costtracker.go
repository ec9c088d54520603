package costtracker

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// CostEvent represents a single AI usage event and its cost.
type CostEvent struct {
	Operation string // e.g., "classification"
	AmountUSD float64
	Details   map[string]interface{}
}

// CostTracker provides methods to record and report costs.
type CostTracker interface {
	RecordCost(ctx context.Context, event CostEvent) error
	TotalCost(ctx context.Context) (float64, error)
}

// New returns an in-memory tracker. Costs live for the lifetime of the
// process only.
func New() CostTracker {
	return &memoryCostTracker{}
}

type memoryCostTracker struct {
	mu     sync.Mutex
	total  float64
	events int
}

func (m *memoryCostTracker) RecordCost(ctx context.Context, event CostEvent) error {
	m.mu.Lock()
	m.total += event.AmountUSD
	m.events++
	total, events := m.total, m.events
	m.mu.Unlock()

	log.WithFields(log.Fields(event.Details)).Debugf("Recorded %s cost $%.6f (running total $%.6f over %d calls)",
		event.Operation, event.AmountUSD, total, events)
	return nil
}

func (m *memoryCostTracker) TotalCost(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, nil
}
