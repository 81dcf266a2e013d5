package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// rateLimitExceeded counts HTTP 429 events from the rate limit middleware.
	// Labels:
	// - endpoint: short name like "notify:password_reset"
	// - source:   "email" or "ip"
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "http",
			Name:      "rate_limit_exceeded_total",
			Help:      "Number of requests rejected due to rate limiting (HTTP 429)",
		},
		[]string{"endpoint", "source"},
	)

	// dispatchOutcomes counts dispatch results by notification type, entry path and result.
	// Labels:
	// - type:   welcome | password-reset | order-confirmation | ...
	// - origin: direct | event
	// - result: success | duplicate | skipped | <error kind>
	dispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "outcomes_total",
			Help:      "Dispatch outcomes by notification type, origin and result.",
		},
		[]string{"type", "origin", "result"},
	)

	// dispatchDuration observes the end-to-end time of one dispatch.
	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Dispatch duration in seconds by notification type.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// fanOutOutcomes counts operational copies by notification type and result.
	fanOutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "fanout_outcomes_total",
			Help:      "Operational fan-out send outcomes by notification type and result.",
		},
		[]string{"type", "result"},
	)

	// localeResolutions counts which source answered a locale lookup.
	// Labels:
	// - source: affiliates | customers | business_users | default
	localeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "locale",
			Name:      "resolutions_total",
			Help:      "Locale resolutions by answering source.",
		},
		[]string{"source"},
	)

	// localeSourceErrors counts lookups that failed and were skipped.
	localeSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "locale",
			Name:      "source_errors_total",
			Help:      "Locale source lookups that failed and were treated as a miss.",
		},
		[]string{"source"},
	)

	// orderEvents counts order-created events by consumer result.
	// Labels:
	// - result: handled | retried | dropped
	orderEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "events",
			Name:      "order_created_total",
			Help:      "Order-created events processed by the consumer, by result.",
		},
		[]string{"result"},
	)
)

// IncRateLimitExceeded increments the 429 counter for the given endpoint and source.
func IncRateLimitExceeded(endpoint, source string) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if source == "" {
		source = "unknown"
	}
	rateLimitExceeded.WithLabelValues(endpoint, source).Inc()
}

// IncDispatchOutcome increments the dispatch outcome counter.
func IncDispatchOutcome(notificationType, origin, result string) {
	if notificationType == "" {
		notificationType = "unknown"
	}
	if origin == "" {
		origin = "direct"
	}
	if result == "" {
		result = "unknown"
	}
	dispatchOutcomes.WithLabelValues(notificationType, origin, result).Inc()
}

// ObserveDispatchDuration records the duration of one dispatch.
func ObserveDispatchDuration(notificationType string, seconds float64) {
	if notificationType == "" {
		notificationType = "unknown"
	}
	dispatchDuration.WithLabelValues(notificationType).Observe(seconds)
}

// IncFanOutOutcome increments the fan-out outcome counter.
func IncFanOutOutcome(notificationType string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	if notificationType == "" {
		notificationType = "unknown"
	}
	fanOutOutcomes.WithLabelValues(notificationType, result).Inc()
}

// IncLocaleResolution increments the resolution counter for the answering source.
func IncLocaleResolution(source string) {
	if source == "" {
		source = "default"
	}
	localeResolutions.WithLabelValues(source).Inc()
}

// IncLocaleSourceError increments the skipped-source counter.
func IncLocaleSourceError(source string) {
	if source == "" {
		source = "unknown"
	}
	localeSourceErrors.WithLabelValues(source).Inc()
}

// IncOrderEvent increments the order-created consumer counter.
func IncOrderEvent(result string) {
	orderEvents.WithLabelValues(result).Inc()
}
