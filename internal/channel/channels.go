package channel

import (
	"context"
	"sync"

	"portbridge/logger"
)

type ChannelStats struct {
	Sent    int64
	Dropped int64
}

// Channel is a buffered delivery channel whose sends never block the
// producer. A full buffer drops the message and counts it.
type Channel[T any] struct {
	C chan T

	name       string
	stats      ChannelStats
	statsMutex sync.RWMutex
	closeOnce  sync.Once
	log        *logger.Log
}

func New[T any](name string, bufferSize int) *Channel[T] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	log := logger.GetLogger()
	c := &Channel[T]{
		C:    make(chan T, bufferSize),
		name: name,
		log:  log,
	}

	log.WithComponent("channels").WithFields(logger.Fields{
		"channel":     name,
		"buffer_size": bufferSize,
	}).Debug("channel initialized")

	return c
}

// Send delivers msg without blocking. It reports false when the buffer is
// full or ctx is done.
func (c *Channel[T]) Send(ctx context.Context, msg T) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	select {
	case c.C <- msg:
		c.increment(&c.stats.Sent)
		return true
	default:
		c.increment(&c.stats.Dropped)
		logger.Count(c.name+"_dropped", 1)
		return false
	}
}

func (c *Channel[T]) increment(counter *int64) {
	c.statsMutex.Lock()
	*counter++
	c.statsMutex.Unlock()
}

func (c *Channel[T]) GetStats() ChannelStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}

// Close closes C. The producer must have stopped sending; Close is idempotent.
func (c *Channel[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.C)
		stats := c.GetStats()
		c.log.WithComponent("channels").WithFields(logger.Fields{
			"channel": c.name,
			"sent":    stats.Sent,
			"dropped": stats.Dropped,
		}).Debug("channel closed")
	})
}
