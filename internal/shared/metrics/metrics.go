package metrics

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	profilePictureOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainee_profile_picture_operations_total",
		Help: "Profile picture set/delete operations by outcome",
	}, []string{"op", "outcome"})

	letterOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainee_letters_generated_total",
		Help: "Letter generations by letter type and outcome",
	}, []string{"type", "outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trainee_asset_stage_duration_seconds",
		Help:    "Duration of asset pipeline stages",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"pipeline", "stage"})

	cleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trainee_tempfile_cleanup_failures_total",
		Help: "Temp files that could not be removed after a request",
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainee_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by route group",
	}, []string{"group"})

	panics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trainee_http_panics_total",
		Help: "Handler panics recovered by middleware",
	})

	storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainee_object_store_retries_total",
		Help: "Object store calls retried after a transient failure",
	}, []string{"op"})
)

// IncProfilePicture counts a profile picture operation.
func IncProfilePicture(op, outcome string) {
	profilePictureOps.WithLabelValues(op, outcome).Inc()
}

// IncLetter counts a letter generation.
func IncLetter(letterType, outcome string) {
	letterOps.WithLabelValues(letterType, outcome).Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(pipeline, stage string, d time.Duration) {
	stageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

// IncCleanupFailure counts a temp file that could not be removed.
func IncCleanupFailure() {
	cleanupFailures.Inc()
}

// IncStoreRetry counts a retried object store call.
func IncStoreRetry(op string) {
	storeRetries.WithLabelValues(op).Inc()
}

// IncRateLimited counts a request rejected for group.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// IncPanic counts a recovered handler panic.
func IncPanic() {
	panics.Inc()
}

// RegisterDB exports pool statistics for db under db_name=name. Registering
// the same name twice is not an error.
func RegisterDB(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
