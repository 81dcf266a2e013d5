package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dbUp is 1 when the last ping to the database succeeded, else 0.
	dbUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "courier",
		Subsystem: "db",
		Name:      "up",
		Help:      "Database availability (1=up, 0=down).",
	})
	// dbPingSeconds observes database ping latency in seconds.
	dbPingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "courier",
		Subsystem: "db",
		Name:      "ping_seconds",
		Help:      "Database ping latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// redisUp is 1 when the last ping to Redis/Valkey succeeded, else 0.
	redisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "courier",
		Subsystem: "redis",
		Name:      "up",
		Help:      "Redis/Valkey availability (1=up, 0=down).",
	})
	// redisPingSeconds observes redis ping latency in seconds.
	redisPingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "courier",
		Subsystem: "redis",
		Name:      "ping_seconds",
		Help:      "Redis/Valkey ping latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// SetDBUp sets the db_up gauge to 1/0.
func SetDBUp(up bool) {
	if up {
		dbUp.Set(1)
		return
	}
	dbUp.Set(0)
}

// ObserveDBPing records a database ping latency in seconds.
func ObserveDBPing(seconds float64) { dbPingSeconds.Observe(seconds) }

// SetRedisUp sets the redis_up gauge to 1/0.
func SetRedisUp(up bool) {
	if up {
		redisUp.Set(1)
		return
	}
	redisUp.Set(0)
}

// ObserveRedisPing records a redis ping latency in seconds.
func ObserveRedisPing(seconds float64) { redisPingSeconds.Observe(seconds) }

var (
	// mailTransportUp is 1 when the last connectivity check succeeded, else 0.
	mailTransportUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "courier",
		Subsystem: "mail",
		Name:      "transport_up",
		Help:      "Mail transport availability from the last check (1=up, 0=down).",
	}, []string{"provider"})

	// mailSends counts primary and fan-out submissions by provider and result.
	mailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "mail",
		Name:      "sends_total",
		Help:      "Mail submissions by provider and result.",
	}, []string{"provider", "result"})

	// mailSendSeconds observes submission latency in seconds.
	mailSendSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "courier",
		Subsystem: "mail",
		Name:      "send_seconds",
		Help:      "Mail submission latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)

// SetMailTransportUp sets the transport_up gauge for provider.
func SetMailTransportUp(provider string, up bool) {
	if provider == "" {
		provider = "unknown"
	}
	if up {
		mailTransportUp.WithLabelValues(provider).Set(1)
		return
	}
	mailTransportUp.WithLabelValues(provider).Set(0)
}

// ObserveMailSend records one submission attempt.
func ObserveMailSend(provider string, success bool, seconds float64) {
	if provider == "" {
		provider = "unknown"
	}
	result := "failure"
	if success {
		result = "success"
	}
	mailSends.WithLabelValues(provider, result).Inc()
	mailSendSeconds.WithLabelValues(provider).Observe(seconds)
}
