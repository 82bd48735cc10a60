package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialtest_caseset_uploads_total",
		Help: "Case set uploads by outcome.",
	}, []string{"outcome"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dialtest_ingest_duration_seconds",
		Help:    "Wall time of the ingestion pipeline per upload.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveUpload records one upload attempt. Outcomes: accepted,
// rejected, duplicate, failed.
func ObserveUpload(outcome string, elapsed time.Duration) {
	uploadsTotal.WithLabelValues(outcome).Inc()
	ingestDuration.Observe(elapsed.Seconds())
}

// Handler exposes the prometheus registry for the /metrics route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
