package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	outboxPublished uint64
	outboxFailed    uint64

	mu      sync.Mutex
	actions map[string]uint64
}

func New() *Collector {
	return &Collector{actions: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordAction counts a workflow action by name and outcome, e.g.
// "approve" / "ok" or "reject" / "MissingReason".
func (c *Collector) RecordAction(action, outcome string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actions[action+"."+outcome]++
	c.mu.Unlock()
}

func (c *Collector) RecordOutbox(published, failed int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.outboxPublished, uint64(published))
	atomic.AddUint64(&c.outboxFailed, uint64(failed))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	keys := make([]string, 0, len(c.actions))
	for k := range c.actions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	actions := make(map[string]uint64, len(keys))
	for _, k := range keys {
		actions[k] = c.actions[k]
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"rateLimitedTotal":     limited,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"workflowActions":      actions,
		"outboxPublishedTotal": atomic.LoadUint64(&c.outboxPublished),
		"outboxFailedTotal":    atomic.LoadUint64(&c.outboxFailed),
	}
}
