package cloud

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// HTTPClient is the real cloud client. It talks to the StoryReel SaaS
// generation endpoints over HTTPS with a bearer token.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Prompts() PromptService         { return c }
func (c *HTTPClient) Images() ImageService           { return c }
func (c *HTTPClient) Speech() SpeechService          { return c }
func (c *HTTPClient) Transcripts() TranscriptService { return c }
func (c *HTTPClient) Storage() StorageService        { return c }

func (c *HTTPClient) GeneratePrompt(ctx context.Context, sceneContent, previousPrompt string) (string, error) {
	var result struct {
		Prompt string `json:"prompt"`
	}
	err := c.postJSON(ctx, "prompts", "/api/generate/prompt",
		map[string]string{"content": sceneContent, "previous_prompt": previousPrompt}, &result)
	if err != nil {
		return "", err
	}
	return result.Prompt, nil
}

func (c *HTTPClient) GenerateImage(ctx context.Context, prompt string, seed int64) (*ImageResult, error) {
	var result ImageResult
	err := c.postJSON(ctx, "images", "/api/generate/image",
		map[string]any{"prompt": prompt, "seed": seed}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SubmitSpeech(ctx context.Context, script, voiceID string) (*SpeechResult, error) {
	var result SpeechResult
	err := c.postJSON(ctx, "speech", "/api/generate/speech",
		map[string]string{"script": script, "voice_id": voiceID}, &result)
	if err != nil {
		return nil, err
	}
	// Older service versions only return the tracking ID.
	if result.Status == "" {
		result.Status = SpeechStatusProcessing
	}
	return &result, nil
}

func (c *HTTPClient) PollSpeech(ctx context.Context, trackingID string) (*SpeechResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/generate/speech/"+trackingID, nil)
	if err != nil {
		return nil, err
	}

	var result SpeechResult
	if err := c.do("speech", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	var result struct {
		Captions string `json:"captions"`
	}
	err := c.postJSON(ctx, "transcripts", "/api/transcribe",
		map[string]string{"audio_url": audioURL}, &result)
	if err != nil {
		return "", err
	}
	return result.Captions, nil
}

func (c *HTTPClient) Upload(ctx context.Context, filename string, content []byte) (*StorageObject, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/storage/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("uploading to cloud storage", "filename", filename, "body_bytes", body.Len())

	var result StorageObject
	if err := c.do("storage", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) List(ctx context.Context) ([]StorageObject, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/storage", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Objects []StorageObject `json:"objects"`
	}
	if err := c.do("storage", req, &result); err != nil {
		return nil, err
	}
	return result.Objects, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, service, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", service, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(service, req, result)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-StoryReel-Request-Id", generateRequestID())
	return req, nil
}

func (c *HTTPClient) do(service string, req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{Service: service, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
