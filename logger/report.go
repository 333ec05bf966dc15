package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	errorsTotal sync.Map // map[string]*int64 keyed by component
	warnsTotal  sync.Map
	counters    sync.Map // map[string]*int64 keyed by counter name
)

func bump(m *sync.Map, key string, delta int64) {
	v, _ := m.LoadOrStore(key, new(int64))
	atomic.AddInt64(v.(*int64), delta)
}

func recordWarn(component string) {
	bump(&warnsTotal, component, 1)
}

func recordError(component string) {
	bump(&errorsTotal, component, 1)
}

// Count adds delta to a named runtime counter included in the periodic
// report.
func Count(name string, delta int64) {
	bump(&counters, name, delta)
}

// Snapshot returns the current value of every runtime counter.
func Snapshot() map[string]int64 {
	return snapshotOf(&counters)
}

func snapshotOf(m *sync.Map) map[string]int64 {
	out := map[string]int64{}
	m.Range(func(k, v any) bool {
		out[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	return out
}

// StartReport begins periodic logging of runtime counters until ctx is done.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logReport(log)
			}
		}
	}()
}

func logReport(log *Log) {
	log.WithComponent("report").WithFields(Fields{
		"counters":   Snapshot(),
		"warns":      snapshotOf(&warnsTotal),
		"errors":     snapshotOf(&errorsTotal),
		"goroutines": runtime.NumGoroutine(),
	}).Info("runtime report")
}
