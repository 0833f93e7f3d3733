package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_producer_messages_total",
			Help: "Kafka messages by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Time spent writing one event to Kafka",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)
)

func observePublish(topic string, seconds float64, err error) {
	publishDuration.WithLabelValues(topic).Observe(seconds)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	messagesPublished.WithLabelValues(topic, outcome).Inc()
}
