// Package metrics exposes prometheus counters of the settlement service.
package metrics

import (
	"strconv"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapsettle_build_info",
			Help: "Build information of the settlement service",
		},
		[]string{"version", "commit"},
	)

	RequestsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapsettle_requests_sent_total",
			Help: "Total number of initiated cross chain requests",
		},
		[]string{"src_chain", "dst_chain"},
	)

	RequestsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapsettle_requests_settled_total",
			Help: "Total number of settled requests by outcome branch",
		},
		[]string{"dst_chain", "branch"},
	)

	NFTPurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapsettle_nft_purchases_total",
			Help: "Total number of nft purchases on destination",
		},
		[]string{"market_id"},
	)

	RelayDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapsettle_relay_deliveries_total",
			Help: "Total number of relay delivery attempts",
		},
		[]string{"dst_chain", "status"},
	)

	RelayDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swapsettle_relay_delivery_duration_seconds",
			Help:    "Duration of relay deliveries including retries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 0.001s to ~16s
		},
	)

	RelayQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swapsettle_relay_queue_length",
			Help: "Number of packets waiting for delivery",
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapsettle_api_requests_total",
			Help: "Total number of api requests",
		},
		[]string{"method"},
	)
)

// EventSink counts committed contract events
type EventSink struct{}

// HandleEvent impl tokens.IEventSink
func (EventSink) HandleEvent(ev tokens.Event) {
	switch e := ev.(type) {
	case *tokens.RequestSentEvent:
		RequestsSentTotal.WithLabelValues(chainLabel(e.SrcChainID), chainLabel(e.DstChainID)).Inc()
	case *tokens.RequestSettledEvent:
		RequestsSettledTotal.WithLabelValues(chainLabel(e.DstChainID), e.Branch.String()).Inc()
	case *tokens.NFTPurchasedEvent:
		NFTPurchasesTotal.WithLabelValues(strconv.FormatUint(e.MarketID, 10)).Inc()
	}
}

func chainLabel(chainID uint64) string {
	return strconv.FormatUint(chainID, 10)
}
