package trade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waifubot_trade_invites_total",
		Help: "Trade invitations by outcome",
	}, []string{"outcome"})

	tradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waifubot_trades_total",
		Help: "Finished trade sessions by outcome",
	}, []string{"outcome"})

	giftsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waifubot_gifts_total",
		Help: "Gift lifecycle events",
	}, []string{"event"})

	settlementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "waifubot_trade_settlement_duration_seconds",
		Help:    "Time spent settling a trade",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	notificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waifubot_trade_notification_failures_total",
		Help: "Notifications that could not be delivered",
	}, []string{"event"})
)
