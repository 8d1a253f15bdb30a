package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 0)

	snap := c.Snapshot()
	assert.Equal(t, uint64(3), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, uint64(1), snap["rateLimitedTotal"])
	assert.InDelta(t, 13.33, snap["avgDurationMs"], 0.01)
}

func TestCollectorWorkflowCounters(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordAction("approve", "ok")
		}()
	}
	wg.Wait()
	c.RecordAction("reject", "MissingReason")
	c.RecordOutbox(3, 1)

	snap := c.Snapshot()
	actions := snap["workflowActions"].(map[string]uint64)
	assert.Equal(t, uint64(20), actions["approve.ok"])
	assert.Equal(t, uint64(1), actions["reject.MissingReason"])
	assert.Equal(t, uint64(3), snap["outboxPublishedTotal"])
	assert.Equal(t, uint64(1), snap["outboxFailedTotal"])
}

func TestNilCollectorIgnoresWorkflowCounters(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordAction("approve", "ok")
		c.RecordOutbox(1, 0)
	})
}
