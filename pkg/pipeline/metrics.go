package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_uploads_succeeded_total",
		Help: "Number of attachment uploads accepted by the media store.",
	})
	uploadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_uploads_failed_total",
		Help: "Number of attachment uploads rejected or timed out.",
	})
	pushesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_pushes_delivered_total",
		Help: "Number of events pushed to a connected recipient.",
	})
	pushesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_pushes_failed_total",
		Help: "Number of push writes that failed and were dropped.",
	})
	pushesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_pushes_skipped_total",
		Help: "Number of pushes skipped because the recipient was offline.",
	})
)
