package prometheus

import (
	"strconv"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultPrefix names the metrics until InitMetrics runs
const DefaultPrefix = "farmdash"

var (
	// Entity CRUD operations by entity and operation
	EntityOperationCounter *prometheus.CounterVec

	// Operations served from the local mirror after a remote failure
	MirrorFallbackCounter *prometheus.CounterVec

	// Database operation duration
	DBOperationDuration *prometheus.HistogramVec

	// Tenant resolutions by outcome
	TenantResolutionCounter *prometheus.CounterVec

	// Onboarding workflow resolutions by resulting step
	WorkflowResolutionCounter *prometheus.CounterVec

	// Application initialization checks by outcome
	InitCheckCounter *prometheus.CounterVec

	// Notifications by provider and result
	NotificationCounter *prometheus.CounterVec

	// Requests that needed a tenant but had none
	TenantContextMissingCounter prometheus.Counter

	// Authentication attempts and errors
	AuthErrorCounter *prometheus.CounterVec
)

func init() {
	build(DefaultPrefix)
}

// InitMetrics names the metrics with the configured prefix and registers
// them with the default registry. Call it once at startup.
func InitMetrics(cfg *config.Config) {
	Register(cfg.Metrics.Prefix, prometheus.DefaultRegisterer)
}

// Register rebuilds the metrics under prefix and registers them with reg
func Register(prefix string, reg prometheus.Registerer) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	build(prefix)
	reg.MustRegister(
		EntityOperationCounter,
		MirrorFallbackCounter,
		DBOperationDuration,
		TenantResolutionCounter,
		WorkflowResolutionCounter,
		InitCheckCounter,
		NotificationCounter,
		TenantContextMissingCounter,
		AuthErrorCounter,
	)
}

func build(prefix string) {
	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"entity", "operation"},
	)

	MirrorFallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_mirror_fallback_total",
			Help: "Total number of operations that fell back to the local mirror",
		},
		[]string{"entity", "operation"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	TenantResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_resolution_total",
			Help: "Total number of tenant resolutions by result",
		},
		[]string{"result"},
	)

	WorkflowResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_workflow_resolutions_total",
			Help: "Total number of workflow step resolutions by step",
		},
		[]string{"step"},
	)

	InitCheckCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_init_checks_total",
			Help: "Total number of application initialization checks by outcome",
		},
		[]string{"outcome"},
	)

	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"provider", "result"},
	)

	TenantContextMissingCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests served without tenant scope",
		},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by type",
		},
		[]string{"type"},
	)
}

// TrackDBOperation measures a database operation. Use as
// defer TrackDBOperation("query")(time.Now()).
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// RecordEntityOperation counts a CRUD operation on an entity
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.WithLabelValues(entity, operation).Inc()
}

// RecordMirrorFallback counts an operation served by the local mirror
func RecordMirrorFallback(entity, operation string) {
	MirrorFallbackCounter.WithLabelValues(entity, operation).Inc()
}

// RecordTenantResolution counts a tenant resolution outcome
func RecordTenantResolution(result string) {
	TenantResolutionCounter.WithLabelValues(result).Inc()
}

// RecordWorkflowStep counts a workflow resolution by its resulting step
func RecordWorkflowStep(step int) {
	WorkflowResolutionCounter.WithLabelValues(strconv.Itoa(step)).Inc()
}

// RecordInitCheck counts an initialization check outcome
func RecordInitCheck(outcome string) {
	InitCheckCounter.WithLabelValues(outcome).Inc()
}

// RecordNotification counts a notification attempt
func RecordNotification(provider string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	NotificationCounter.WithLabelValues(provider, result).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}
