// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ytranscript"

var (
	// TranscriptRequestsTotal tracks transcript pipeline outcomes.
	// Labels:
	//   - source: cache, youtube_captions, speech_model
	//   - status: success, error
	TranscriptRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_requests_total",
			Help:      "Total number of transcript requests by source and outcome",
		},
		[]string{"source", "status"},
	)

	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: disk, memory
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// AudioFetchAttemptsTotal tracks individual audio download attempts.
	// Labels:
	//   - status: success, error
	AudioFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_fetch_attempts_total",
			Help:      "Total number of audio download attempts, including retries",
		},
		[]string{"status"},
	)

	// EvictedEntriesTotal counts cache entries removed by eviction.
	EvictedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_entries_total",
			Help:      "Total number of cache entries removed by eviction",
		},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Request/attempt status constants.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeDisk   = "disk"
	CacheTypeMemory = "memory"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
