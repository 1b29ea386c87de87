package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qa_votes_total",
		Help: "Votes cast, by target and direction.",
	}, []string{"target", "direction"})

	cascadeDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qa_cascade_deletes_total",
		Help: "Entities removed by cascade deletes, by root operation and entity kind.",
	}, []string{"root", "entity"})

	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qa_store_ops_total",
		Help: "Units of work run against the store, by operation and outcome.",
	}, []string{"op", "outcome"})

	storeRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qa_store_retries_total",
		Help: "Transient failures retried, by operation.",
	}, []string{"op"})

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qa_store_op_duration_seconds",
		Help:    "Duration of units of work including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func direction(delta int) string {
	if delta > 0 {
		return "up"
	}
	return "down"
}
