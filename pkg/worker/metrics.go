package worker

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instrumentation for the worker pool,
// grounded on cmd/worker's promauto-registered vectors in the teacher
// repo, generalized to take an explicit Registerer instead of the default
// global registry so tests don't collide on repeated registration.
type Metrics struct {
	Processed      *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	QueueLatency   *prometheus.HistogramVec
	PublishLost    prometheus.Counter
	MalformedEntry prometheus.Counter
}

// NewMetrics registers the worker pool's instrumentation with reg and
// returns the handles used to record observations.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distributedq_tasks_processed_total",
			Help: "Total number of tasks processed, by terminal status and kind.",
		}, []string{"status", "kind"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "distributedq_task_duration_seconds",
			Help:    "Task handler execution duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		QueueLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "distributedq_queue_latency_seconds",
			Help:    "Time a task spent in the queue before an executor began processing it.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		PublishLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distributedq_result_publish_lost_total",
			Help: "Total number of task outcomes dropped after exhausting result-store publish retries.",
		}),
		MalformedEntry: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distributedq_malformed_entries_total",
			Help: "Total number of queue entries discarded because they could not be decoded.",
		}),
	}
	reg.MustRegister(m.Processed, m.Duration, m.QueueLatency, m.PublishLost, m.MalformedEntry)
	return m
}
