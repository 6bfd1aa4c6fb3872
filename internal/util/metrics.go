package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketPurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticket_purchases_total",
		Help: "Total number of committed ticket purchases",
	})

	TicketsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickets_sold_total",
		Help: "Total number of admission units sold",
	})

	TicketPurchasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_purchases_failed_total",
		Help: "Total number of rejected or failed ticket purchases",
	}, []string{"reason"})

	TicketPurchaseReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticket_purchase_replays_total",
		Help: "Total number of purchases answered from an idempotency key",
	})

	TicketPurchaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticket_purchase_latency_seconds",
		Help:    "Latency of the purchase transaction",
		Buckets: prometheus.DefBuckets,
	})

	EventCacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_cache_requests_total",
		Help: "Event detail cache lookups",
	}, []string{"result"})

	TicketEventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_events_consumed_total",
		Help: "Total number of domain events handled by the worker",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
