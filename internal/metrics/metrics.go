package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolstats_events_processed_total",
		Help: "Pool events folded into the aggregates.",
	})

	EventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolstats_events_duplicate_total",
		Help: "Pool events skipped by the deduper.",
	})

	EventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolstats_events_failed_total",
		Help: "Pool events that could not be processed.",
	})

	DayBucketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolstats_day_buckets_created_total",
		Help: "Daily statistics buckets opened.",
	})

	PriceAdoptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolstats_price_adoptions_total",
		Help: "Token prices adopted from a reference pool.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
