// Package metrics exposes circulation and inventory counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

const namespace = "library"

// Collector owns a private registry so tests and multiple servers never collide.
type Collector struct {
	registry *prometheus.Registry

	issued    prometheus.Counter
	returned  prometheus.Counter
	renewed   prometheus.Counter
	purged    prometheus.Counter
	available *prometheus.GaugeVec
	tasks     *prometheus.CounterVec
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "copies_issued_total",
			Help: "Copies lent to students.",
		}),
		returned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "copies_returned_total",
			Help: "Copies brought back.",
		}),
		renewed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "loans_renewed_total",
			Help: "Loan renewals.",
		}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "returned_records_purged_total",
			Help: "Returned records removed by reset.",
		}),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "book_copies_available",
			Help: "Copies on the shelf per book.",
		}, []string{"book_id"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_total",
			Help: "Background task runs by queue and outcome.",
		}, []string{"queue", "status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	c.registry.MustRegister(
		c.issued, c.returned, c.renewed, c.purged,
		c.available, c.tasks, c.requests, c.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry is exposed for tests and additional collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Watch subscribes to availability changes committed by l.
func (c *Collector) Watch(l *ledger.Ledger) {
	l.OnChange(c.BookChanged)
}

// BookChanged records the committed availability of one book.
func (c *Collector) BookChanged(book entities.Book) {
	c.available.WithLabelValues(book.ID).Set(float64(book.Available))
}

// Seed sets the availability gauge for every book, used at startup.
func (c *Collector) Seed(books []entities.Book) {
	for _, b := range books {
		c.BookChanged(b)
	}
}

// Forget drops the gauge for a deleted book.
func (c *Collector) Forget(bookID string) {
	c.available.DeleteLabelValues(bookID)
}

func (c *Collector) Issued(records []entities.BorrowRecord) {
	c.issued.Add(float64(len(records)))
}

func (c *Collector) Returned(records []entities.BorrowRecord) {
	c.returned.Add(float64(len(records)))
}

func (c *Collector) Renewed(entities.BorrowRecord) {
	c.renewed.Inc()
}

func (c *Collector) Purged(records []entities.BorrowRecord) {
	c.purged.Add(float64(len(records)))
}

// TaskFinished counts one background task run.
func (c *Collector) TaskFinished(queue string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	c.tasks.WithLabelValues(queue, status).Inc()
}

// Middleware records request counts and latency keyed by the matched route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.requests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

var _ circulation.Observer = (*Collector)(nil)
