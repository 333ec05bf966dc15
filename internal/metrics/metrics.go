// Registers:
//
//	#portbridge_handles_created_total{kind}
//	#portbridge_handles_released_total{kind}
//	#portbridge_operations_scheduled_total
//	#portbridge_operations_completed_total{outcome}
//	#portbridge_callbacks_delivered_total
//	#portbridge_pushes_total{outcome}
//	#go_* and process_* system metrics
//
// on a private registry exposed through Handler.
package metrics

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portbridge"

// Operation outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Push outcomes.
const (
	PushDecoded  = "decoded"
	PushFiltered = "filtered"
	PushFailed   = "failed"
	PushDropped  = "dropped"
)

var (
	once     sync.Once
	registry *prometheus.Registry

	handlesCreated      *prometheus.CounterVec
	handlesReleased     *prometheus.CounterVec
	operationsScheduled prometheus.Counter
	operationsCompleted *prometheus.CounterVec
	callbacksDelivered  prometheus.Counter
	pushes              *prometheus.CounterVec
)

func initRegistry() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		handlesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_created_total",
			Help:      "Number of handles issued",
		}, []string{"kind"})
		handlesReleased = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_released_total",
			Help:      "Number of handles released",
		}, []string{"kind"})
		operationsScheduled = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_scheduled_total",
			Help:      "Number of operations accepted by the async bridge",
		})
		operationsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_completed_total",
			Help:      "Number of operations finished, by outcome",
		}, []string{"outcome"})
		callbacksDelivered = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_delivered_total",
			Help:      "Number of completion callbacks invoked",
		})
		pushes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Number of trade pushes received, by outcome",
		}, []string{"outcome"})

		registry.MustRegister(handlesCreated, handlesReleased, operationsScheduled,
			operationsCompleted, callbacksDelivered, pushes)
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Registry returns the registry holding every portbridge collector.
func Registry() *prometheus.Registry {
	initRegistry()
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

func HandleCreated(kind string) {
	initRegistry()
	handlesCreated.WithLabelValues(kind).Inc()
}

func HandleReleased(kind string) {
	initRegistry()
	handlesReleased.WithLabelValues(kind).Inc()
}

func OperationScheduled() {
	initRegistry()
	operationsScheduled.Inc()
}

func OperationCompleted(outcome string) {
	initRegistry()
	operationsCompleted.WithLabelValues(outcome).Inc()
}

func CallbackDelivered() {
	initRegistry()
	callbacksDelivered.Inc()
}

func Push(outcome string) {
	initRegistry()
	pushes.WithLabelValues(outcome).Inc()
}

// Snapshot returns the current value of every portbridge counter keyed by
// metric name, with label values joined by dots ("pushes_total.decoded").
func Snapshot() map[string]float64 {
	families, err := Registry().Gather()
	if err != nil {
		return nil
	}
	out := make(map[string]float64)
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, namespace+"_") {
			continue
		}
		name = strings.TrimPrefix(name, namespace+"_")
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetValue())
			}
			sort.Strings(labels)
			key := name
			if len(labels) > 0 {
				key += "." + strings.Join(labels, ".")
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out
}
