package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the harvesting pipeline and dashboard

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbstats_api_calls_total",
			Help: "Total number of NBA Stats API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bbstats_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Harvest metrics
	HarvestUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbstats_harvest_units_total",
			Help: "Total number of (league, season) harvest units processed",
		},
		[]string{"league", "status"},
	)

	HarvestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bbstats_harvest_duration_seconds",
			Help:    "Duration of harvest runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"league"},
	)

	// Storage metrics
	PartitionSwapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbstats_partition_swaps_total",
			Help: "Total number of partition replacements",
		},
		[]string{"table", "status"},
	)

	PartitionSwapDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bbstats_partition_swap_duration_seconds",
			Help:    "Duration of partition replacements in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"table"},
	)

	TeamRecordsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bbstats_team_records_total",
			Help: "Total number of team records in storage",
		},
	)

	PlayerRecordsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bbstats_player_records_total",
			Help: "Total number of player records in storage",
		},
	)

	// Refresh job metrics
	RefreshJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbstats_refresh_jobs_total",
			Help: "Total number of refresh jobs by terminal status",
		},
		[]string{"status"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bbstats_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bbstats_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bbstats_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulHarvest = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bbstats_last_successful_harvest_timestamp",
			Help: "Timestamp of the last fully successful harvest",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordHarvestUnit records the outcome of one (league, season) unit
func RecordHarvestUnit(leagueName, status string) {
	HarvestUnitsTotal.WithLabelValues(leagueName, status).Inc()
}

// RecordHarvest records a completed harvest run
func RecordHarvest(leagueName string, duration float64, fullySuccessful bool) {
	HarvestDuration.WithLabelValues(leagueName).Observe(duration)
	if fullySuccessful {
		LastSuccessfulHarvest.SetToCurrentTime()
	}
}

// RecordPartitionSwap records a partition replacement
func RecordPartitionSwap(table, status string, duration float64) {
	PartitionSwapsTotal.WithLabelValues(table, status).Inc()
	PartitionSwapDuration.WithLabelValues(table).Observe(duration)
}

// RecordRefreshJob records a refresh job reaching a terminal status
func RecordRefreshJob(status string) {
	RefreshJobsTotal.WithLabelValues(status).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// UpdateStoredRecordCounts updates the stored record gauges
func UpdateStoredRecordCounts(teams, players int64) {
	TeamRecordsStored.Set(float64(teams))
	PlayerRecordsStored.Set(float64(players))
}
