// Package cloud talks to the StoryReel SaaS: prompt and image generation,
// voice-over synthesis, transcription and object storage. A stub client
// keeps the agent usable offline.
package cloud

import (
	"context"
	"log/slog"
)

type PromptService interface {
	// GeneratePrompt turns scene text into an image generation prompt.
	// previousPrompt carries the prompt of the preceding scene so adjacent
	// scenes keep a consistent visual style; empty for the first scene.
	GeneratePrompt(ctx context.Context, sceneContent, previousPrompt string) (string, error)
}

type ImageService interface {
	// GenerateImage renders an image for the prompt. A zero seed asks the
	// service to pick one; the seed actually used comes back in the result.
	GenerateImage(ctx context.Context, prompt string, seed int64) (*ImageResult, error)
}

type SpeechService interface {
	// SubmitSpeech starts voice-over synthesis. Short scripts may come back
	// already done, with URL and duration filled in; otherwise the result
	// carries a tracking ID to poll.
	SubmitSpeech(ctx context.Context, script, voiceID string) (*SpeechResult, error)
	PollSpeech(ctx context.Context, trackingID string) (*SpeechResult, error)
}

type TranscriptService interface {
	// Transcribe returns word-level captions for the audio at url,
	// as WebVTT text.
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type StorageService interface {
	Upload(ctx context.Context, filename string, content []byte) (*StorageObject, error)
	// List returns every object in the account's media bucket.
	List(ctx context.Context) ([]StorageObject, error)
}

type Client interface {
	Prompts() PromptService
	Images() ImageService
	Speech() SpeechService
	Transcripts() TranscriptService
	Storage() StorageService
}

// StubClient satisfies Client without network access. Every call logs and
// returns an empty-but-valid result so flows remain exercisable offline.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) Prompts() PromptService         { return c }
func (c *StubClient) Images() ImageService           { return c }
func (c *StubClient) Speech() SpeechService          { return c }
func (c *StubClient) Transcripts() TranscriptService { return c }
func (c *StubClient) Storage() StorageService        { return c }

func (c *StubClient) GeneratePrompt(ctx context.Context, sceneContent, previousPrompt string) (string, error) {
	c.logger.Info("cloud stub: prompt generation requested", "has_previous", previousPrompt != "")
	return "", nil
}

func (c *StubClient) GenerateImage(ctx context.Context, prompt string, seed int64) (*ImageResult, error) {
	c.logger.Info("cloud stub: image generation requested", "seed", seed)
	return &ImageResult{Seed: seed}, nil
}

func (c *StubClient) SubmitSpeech(ctx context.Context, script, voiceID string) (*SpeechResult, error) {
	c.logger.Info("cloud stub: speech generation requested", "voice_id", voiceID)
	return &SpeechResult{TrackingID: "stub-tracking-id", Status: SpeechStatusDone}, nil
}

func (c *StubClient) PollSpeech(ctx context.Context, trackingID string) (*SpeechResult, error) {
	c.logger.Info("cloud stub: speech poll requested", "tracking_id", trackingID)
	return &SpeechResult{TrackingID: trackingID, Status: SpeechStatusDone}, nil
}

func (c *StubClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	c.logger.Info("cloud stub: transcription requested", "audio_url", audioURL)
	return "", nil
}

func (c *StubClient) Upload(ctx context.Context, filename string, content []byte) (*StorageObject, error) {
	c.logger.Info("cloud stub: storage upload requested", "filename", filename, "bytes", len(content))
	return &StorageObject{Key: filename, Size: int64(len(content))}, nil
}

func (c *StubClient) List(ctx context.Context) ([]StorageObject, error) {
	c.logger.Info("cloud stub: storage list requested")
	return []StorageObject{}, nil
}
