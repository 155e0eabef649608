package dependencies

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务指标，通过 /metrics 暴露
var (
	LinkOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_link",
		Name:      "link_operations_total",
		Help:      "Link table writes by kind (created, updated, race_recovered, removed) and result.",
	}, []string{"kind", "result"})

	ListStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_link",
		Name:      "list_users_total",
		Help:      "User listings by retrieval strategy (exact, full, page).",
	}, []string{"strategy"})

	TokenExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_link",
		Name:      "token_exchanges_total",
		Help:      "Token exchanges by outcome.",
	}, []string{"outcome"})

	ActivityDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "identity_link",
		Name:      "activity_dropped_total",
		Help:      "Activity log entries dropped because the queue was full.",
	})

	AutoLinkResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_link",
		Name:      "auto_link_users_total",
		Help:      "Users processed by the auto-link sweep by result (linked, skipped, error).",
	}, []string{"result"})
)
