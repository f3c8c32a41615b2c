package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "certify"

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	certificatesSubmitted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "certificates_submitted_total",
		Help:      "Certificates accepted for review",
	})
	certificatesReviewed = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "certificates_reviewed_total",
		Help:      "Review transitions by outcome",
	}, []string{"decision"})
	certificatesDeleted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "certificates_deleted_total",
		Help:      "Certificates removed by their owner",
	})
	retrievals = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "certificate_retrievals_total",
		Help:      "Payload retrievals by intent",
	}, []string{"intent"})
	blobDeleteFailures = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_delete_failures_total",
		Help:      "Blob deletions that failed and were left for cleanup",
	})
	cleanupJobs = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_jobs_total",
		Help:      "Orphan blob cleanup jobs by result",
	}, []string{"result"})
	blobOpDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "blob_operation_duration_ms",
		Help:      "Blob store operation duration in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"op"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncSubmitted increments the submitted counter.
func IncSubmitted() {
	certificatesSubmitted.Inc()
}

// IncReviewed increments the reviewed counter for a decision.
func IncReviewed(decision string) {
	certificatesReviewed.WithLabelValues(decision).Inc()
}

// IncDeleted increments the deleted counter.
func IncDeleted() {
	certificatesDeleted.Inc()
}

// IncRetrieval counts a payload retrieval.
func IncRetrieval(intent string) {
	retrievals.WithLabelValues(intent).Inc()
}

// IncBlobDeleteFailed counts a blob left behind by a failed delete.
func IncBlobDeleteFailed() {
	blobDeleteFailures.Inc()
}

// IncCleanupJob counts a processed cleanup job.
func IncCleanupJob(result string) {
	cleanupJobs.WithLabelValues(result).Inc()
}

// ObserveBlobOp records how long a blob store call took.
func ObserveBlobOp(op string, start time.Time) {
	blobOpDuration.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
