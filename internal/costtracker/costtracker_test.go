package costtracker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCostTracker_AccumulatesConcurrently(t *testing.T) {
	tracker := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tracker.RecordCost(ctx, CostEvent{Operation: "classification", AmountUSD: 0.02})
		}()
	}
	wg.Wait()

	total, err := tracker.TotalCost(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 1e-9)
}
