// Package metrics holds Prometheus instruments that are used across the
// hosting core.  All collectors are registered with the global registry,
// so importing this package in main.go is enough to expose them on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolveCacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resolve_cache_hit_total",
			Help: "Cumulative number of subdomain resolutions served from cache.",
		})

	ResolveCacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resolve_cache_miss_total",
			Help: "Cumulative number of subdomain resolutions that fell through to the registry.",
		})

	UploadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_upload_total",
			Help: "Cumulative number of completed asset uploads, by kind.",
		},
		[]string{"kind"})

	UploadAbortTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_upload_abort_total",
			Help: "Cumulative number of aborted uploads, by terminal step.",
		},
		[]string{"step"})

	QuotaRejectTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_reject_total",
			Help: "Cumulative number of uploads rejected for insufficient quota.",
		})

	DeleteWarningTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "delete_warning_total",
			Help: "Cumulative number of best-effort deletions that left remote objects behind.",
		})

	LedgerRollbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_rollback_total",
			Help: "Cumulative number of compensating ledger rollbacks.",
		})

	ActiveUploads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_uploads",
			Help: "Number of upload workflows currently in flight.",
		})
)

func init() {
	prometheus.MustRegister(
		ResolveCacheHitTotal,
		ResolveCacheMissTotal,
		UploadTotal,
		UploadAbortTotal,
		QuotaRejectTotal,
		DeleteWarningTotal,
		LedgerRollbackTotal,
		ActiveUploads,
	)
}
