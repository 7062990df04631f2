package quizClient

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by quizClient APIs.
//
// MetricID values index the fixed counter table and are stable for the life of the process.
type MetricID uint16

const (
	// MetricSessionLoaded counts LoadSession calls that found a complete session.
	MetricSessionLoaded MetricID = iota
	// MetricSessionAbsent counts LoadSession calls that found no complete session.
	MetricSessionAbsent
	// MetricSessionEstablished counts successful EstablishSession calls.
	MetricSessionEstablished
	// MetricSessionEnded counts EndSession calls, including those forced by rejections.
	MetricSessionEnded
	// MetricVerificationBegun counts successful BeginVerification calls.
	MetricVerificationBegun
	// MetricVerificationCompleted counts successful CompleteVerification calls.
	MetricVerificationCompleted
	// MetricExpiredTokenDropped counts credentials removed because their exp claim passed.
	MetricExpiredTokenDropped
	// MetricStorageReadFailure counts failed reads of the persisted keys.
	MetricStorageReadFailure
	// MetricStorageWriteFailure counts failed writes or deletes of the persisted keys.
	MetricStorageWriteFailure
	// MetricAvatarFetchStarted counts avatar tasks started.
	MetricAvatarFetchStarted
	// MetricAvatarFetchSuccess counts avatar tasks that produced a URL.
	MetricAvatarFetchSuccess
	// MetricAvatarFetchEmpty counts avatar tasks that found no avatar.
	MetricAvatarFetchEmpty
	// MetricAvatarFetchFailure counts avatar tasks that failed on the network or a status.
	MetricAvatarFetchFailure
	// MetricAvatarFetchCanceled counts avatar tasks superseded before completion.
	MetricAvatarFetchCanceled
	// MetricResponseOK counts responses classified as OK.
	MetricResponseOK
	// MetricResponseUnauthenticated counts responses classified as UNAUTHENTICATED.
	MetricResponseUnauthenticated
	// MetricResponseServerError counts responses classified as SERVER_ERROR.
	MetricResponseServerError
	// MetricResponseOtherError counts responses classified as OTHER_ERROR.
	MetricResponseOtherError
	// MetricMalformedBody counts failed body decodes.
	MetricMalformedBody
	// MetricPromptRelogin counts re-login prompts shown.
	MetricPromptRelogin
	// MetricPromptRetryLater counts retry-later prompts shown.
	MetricPromptRetryLater
	// MetricStaleRejectionIgnored counts rejections of a credential that was already replaced.
	MetricStaleRejectionIgnored
	// MetricAvatarFetchLatency is the avatar fetch latency histogram.
	MetricAvatarFetchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the avatar fetch latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id. It is a no-op when metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricAvatarFetchLatency] has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAvatarFetchLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot returns empty maps when metrics are disabled. Counter reads are individually
// atomic but the snapshot as a whole is not.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAvatarFetchLatency].buckets[i])
		}
		s.Histograms[MetricAvatarFetchLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
