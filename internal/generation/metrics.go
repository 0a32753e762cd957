package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deskwise_generation_jobs_started_total",
		Help: "Number of knowledge-base generation jobs accepted.",
	})
	jobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deskwise_generation_jobs_completed_total",
		Help: "Number of generation jobs that finished successfully.",
	})
	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deskwise_generation_jobs_failed_total",
		Help: "Number of generation jobs that ended in error.",
	})
)
