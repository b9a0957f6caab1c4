package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProvisionTotal counts CreateTenantTables outcomes by status.
	ProvisionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provision_total",
			Help: "Tenant table provisioning attempts by outcome",
		},
		[]string{"status"},
	)

	// ProvisionDuration records how long a provisioning transaction took.
	ProvisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_provision_duration_seconds",
			Help:    "Duration of tenant table provisioning",
			Buckets: prometheus.DefBuckets,
		},
	)

	HandleCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenant_handle_cache_entries",
			Help: "Number of cached tenant handle templates",
		},
	)

	AuditWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_audit_write_failures_total",
			Help: "Audit records that could not be written and were dropped",
		},
		[]string{"action"},
	)

	OnboardTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_onboard_total",
			Help: "Onboarding runs by result",
		},
		[]string{"result"},
	)

	MismatchesFixed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_department_mismatches_fixed_total",
			Help: "Rows whose department value was rewritten to canonical form",
		},
		[]string{"kind"},
	)
)

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
