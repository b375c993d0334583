// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration 按路由和状态码统计请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xclone_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// EngagementToggles 点赞、转发、收藏切换次数
	EngagementToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_engagement_toggles_total",
		Help: "Total engagement toggles by kind and direction",
	}, []string{"kind", "direction"})

	GraphOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_graph_operations_total",
		Help: "Total follow graph mutations by operation",
	}, []string{"operation"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_notifications_created_total",
		Help: "Total notifications created by type",
	}, []string{"type"})

	// NotificationsSuppressed 自己对自己的操作不产生通知
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_notifications_suppressed_total",
		Help: "Total self-action events discarded by the notification fan-out",
	}, []string{"type"})

	FeedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xclone_feed_duration_seconds",
		Help:    "Feed composition duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"feed"})

	CascadeDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_cascade_deletions_total",
		Help: "Total account deletions by result",
	}, []string{"result"})

	// RepairedRecords 恢复任务修复的记录数
	RepairedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_repaired_records_total",
		Help: "Total records repaired by the reconciliation pass",
	}, []string{"kind"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xclone_event_publish_failures_total",
		Help: "Total domain events that could not be published",
	}, []string{"type"})
)
