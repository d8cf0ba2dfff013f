package cloud

import "fmt"

// ServiceError represents a non-2xx response from a StoryReel SaaS endpoint.
type ServiceError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s request failed: HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and rate limiting.
// Other client errors (4xx) are considered permanent.
func (e *ServiceError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// ImageResult is one generated scene image.
type ImageResult struct {
	URL  string `json:"url"`
	Seed int64  `json:"seed"`
}

const (
	SpeechStatusProcessing = "processing"
	SpeechStatusDone       = "done"
	SpeechStatusFailed     = "failed"
)

// SpeechResult is the state of a voice-over generation request. Generation
// is usually asynchronous on the SaaS side: Submit returns a tracking ID
// and the caller polls until Status leaves "processing". Short scripts can
// complete inline, in which case Submit's result is already done.
type SpeechResult struct {
	TrackingID string  `json:"tracking_id"`
	Status     string  `json:"status"`
	URL        string  `json:"url,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// StorageObject describes a file persisted to the SaaS object store.
type StorageObject struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}
