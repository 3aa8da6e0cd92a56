package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so tests and multiple servers in one process
// never collide on the global default.
type Collector struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	batchItems  *prometheus.CounterVec
	jobRuns     *prometheus.CounterVec
	poolConns   *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_transitions_total",
			Help: "Evaluation workflow transitions by action and outcome",
		}, []string{"action", "outcome"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_batch_items_total",
			Help: "Per-employee results of batch evaluation operations",
		}, []string{"action", "outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Background job runs by job and status",
		}, []string{"job", "status"}),
		poolConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "database_connections",
			Help: "Database pool connections by state",
		}, []string{"state"}),
	}
	c.registry.MustRegister(
		c.requests, c.duration, c.transitions, c.batchItems, c.jobRuns, c.poolConns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) Transition(action, outcome string) {
	c.transitions.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) BatchItem(action, outcome string) {
	c.batchItems.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) JobRun(job, status string) {
	c.jobRuns.WithLabelValues(job, status).Inc()
}

func (c *Collector) ObservePool(stat *pgxpool.Stat) {
	if stat == nil {
		return
	}
	c.poolConns.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
	c.poolConns.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	c.poolConns.WithLabelValues("max").Set(float64(stat.MaxConns()))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
