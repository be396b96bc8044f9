package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DiscountEvaluationsTotal counts evaluated carts by resulting strategy.
	DiscountEvaluationsTotal *prometheus.CounterVec
	// DiscountLineOutcomesTotal counts evaluated cart lines by outcome.
	DiscountLineOutcomesTotal *prometheus.CounterVec
	// CallerAuthFailuresTotal counts rejected platform callers by reason.
	CallerAuthFailuresTotal *prometheus.CounterVec
	// RateLimitedTotal counts callback requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
// Only the first call has an effect.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_evaluations_total",
			Help:      "Count of evaluated carts by discount application strategy.",
		}, []string{"strategy"})
		DiscountLineOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_line_outcomes_total",
			Help:      "Count of evaluated cart lines by outcome.",
		}, []string{"outcome"})
		CallerAuthFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_caller_auth_failures_total",
			Help:      "Count of rejected platform callers by reason.",
		}, []string{"reason"})
		RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_rate_limited_total",
			Help:      "Number of callback requests rejected by the rate limiter.",
		})

		mustRegisterCollector(reg, DiscountEvaluationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountEvaluationsTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountLineOutcomesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountLineOutcomesTotal = v
			}
		})
		mustRegisterCollector(reg, CallerAuthFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CallerAuthFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, RateLimitedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RateLimitedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
