package schema

import "sync"

// CostRecord accumulates token usage and dollar cost for one provider.
// Exactly one writer updates a given CostRecord per call, per the
// single-writer ownership rule in §5.
type CostRecord struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	TotalCost        float64
	LastCallCost     float64
}

// Add folds in one call's usage and cost.
func (c *CostRecord) Add(promptTokens, completionTokens int, callCost float64) {
	c.PromptTokens += promptTokens
	c.CompletionTokens += completionTokens
	c.TotalTokens += promptTokens + completionTokens
	c.LastCallCost = callCost
	c.TotalCost += callCost
}

// CostTracker guards a CostRecord behind a mutex so a provider can be
// shared across goroutines (e.g. parallel ensemble sub-workers using the
// same underlying provider instance).
type CostTracker struct {
	mu     sync.Mutex
	record CostRecord
}

func (t *CostTracker) Add(promptTokens, completionTokens int, callCost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record.Add(promptTokens, completionTokens, callCost)
}

func (t *CostTracker) Snapshot() CostRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record
}
