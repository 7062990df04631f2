package internaldefs

import (
	quizClient "github.com/MrEthical07/quizClient"
)

// CounterDef names one counter exported by every exporter.
type CounterDef struct {
	ID   quizClient.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram exported by every exporter.
type HistogramDef struct {
	ID   quizClient.MetricID
	Name string
	Help string
}

// CounterDefs lists the exported counters in output order.
var CounterDefs = []CounterDef{
	{ID: quizClient.MetricSessionLoaded, Name: "quizclient_session_loaded_total", Help: "Session loads that found a complete session."},
	{ID: quizClient.MetricSessionAbsent, Name: "quizclient_session_absent_total", Help: "Session loads that found no complete session."},
	{ID: quizClient.MetricSessionEstablished, Name: "quizclient_session_established_total", Help: "Sessions established after authentication."},
	{ID: quizClient.MetricSessionEnded, Name: "quizclient_session_ended_total", Help: "Sessions ended by logout or rejection."},
	{ID: quizClient.MetricVerificationBegun, Name: "quizclient_verification_begun_total", Help: "Verification flows started."},
	{ID: quizClient.MetricVerificationCompleted, Name: "quizclient_verification_completed_total", Help: "Verification flows completed."},
	{ID: quizClient.MetricExpiredTokenDropped, Name: "quizclient_expired_token_dropped_total", Help: "Persisted credentials dropped because they expired."},
	{ID: quizClient.MetricStorageReadFailure, Name: "quizclient_storage_read_failure_total", Help: "Failed reads of persisted session keys."},
	{ID: quizClient.MetricStorageWriteFailure, Name: "quizclient_storage_write_failure_total", Help: "Failed writes of persisted session keys."},
	{ID: quizClient.MetricAvatarFetchStarted, Name: "quizclient_avatar_fetch_started_total", Help: "Avatar fetch tasks started."},
	{ID: quizClient.MetricAvatarFetchSuccess, Name: "quizclient_avatar_fetch_success_total", Help: "Avatar fetches that returned a location."},
	{ID: quizClient.MetricAvatarFetchEmpty, Name: "quizclient_avatar_fetch_empty_total", Help: "Avatar fetches that found no avatar."},
	{ID: quizClient.MetricAvatarFetchFailure, Name: "quizclient_avatar_fetch_failure_total", Help: "Avatar fetches that failed."},
	{ID: quizClient.MetricAvatarFetchCanceled, Name: "quizclient_avatar_fetch_canceled_total", Help: "Avatar fetches superseded before completion."},
	{ID: quizClient.MetricResponseOK, Name: "quizclient_response_ok_total", Help: "Responses classified as OK."},
	{ID: quizClient.MetricResponseUnauthenticated, Name: "quizclient_response_unauthenticated_total", Help: "Responses classified as unauthenticated."},
	{ID: quizClient.MetricResponseServerError, Name: "quizclient_response_server_error_total", Help: "Responses classified as retryable server errors."},
	{ID: quizClient.MetricResponseOtherError, Name: "quizclient_response_other_error_total", Help: "Responses left to the caller."},
	{ID: quizClient.MetricMalformedBody, Name: "quizclient_malformed_body_total", Help: "Response bodies that could not be decoded."},
	{ID: quizClient.MetricPromptRelogin, Name: "quizclient_prompt_relogin_total", Help: "Re-login prompts shown."},
	{ID: quizClient.MetricPromptRetryLater, Name: "quizclient_prompt_retry_later_total", Help: "Retry-later prompts shown."},
	{ID: quizClient.MetricStaleRejectionIgnored, Name: "quizclient_stale_rejection_ignored_total", Help: "Rejections ignored because the credential was already replaced."},
}

// HistogramDefs lists the exported histograms.
var HistogramDefs = []HistogramDef{
	{ID: quizClient.MetricAvatarFetchLatency, Name: "quizclient_avatar_fetch_latency_seconds", Help: "Avatar fetch latency histogram."},
}

// EventsDroppedName is the counter for events discarded by the dispatcher.
const EventsDroppedName = "quizclient_events_dropped_total"

// EventsDroppedHelp describes [EventsDroppedName].
const EventsDroppedHelp = "Dropped session events due to dispatcher backpressure."

// HistogramBounds are the upper bounds, in seconds, of the core histogram buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix turns each bound into a metric-name-safe suffix.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into the running totals Prometheus expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
