package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_messages_saved_total",
		Help: "Number of messages written to the ledger.",
	})
	messagesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_messages_deleted_total",
		Help: "Number of messages hard-deleted from the ledger.",
	})
	messagesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_messages_purged_total",
		Help: "Number of messages removed by the retention sweeper.",
	})
)
