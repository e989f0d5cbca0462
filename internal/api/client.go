package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/omanicare/voice-client/internal/audio"
	"github.com/omanicare/voice-client/internal/config"
	"github.com/omanicare/voice-client/internal/observability"
	"github.com/omanicare/voice-client/internal/resilience"
)

// Backend endpoint paths
const (
	endpointChatMessage = "/api/chat/message"
	endpointTranscribe  = "/api/audio/transcribe"
	endpointProcess     = "/api/audio/process"
	endpointStatus      = "/api/system/status"
	endpointChatClear   = "/api/chat/clear"
	endpointHealth      = "/api/health"
	endpointUpload      = "/api/audio/upload"
	endpointSynthesize  = "/api/tts/synthesize"
	endpointHistory     = "/api/chat/history"
	endpointEmergency   = "/api/emergency/report"
)

// Timeout policy. Upload timeouts scale with payload size so long
// recordings are not starved by a flat deadline; the processing endpoint
// generates a full reply and is budgeted more generously.
const (
	transcribeTimeoutFloor  = 15 * time.Second
	transcribeTimeoutPerMiB = 15 * time.Second
	processTimeoutFloor     = 60 * time.Second
	processTimeoutPerMiB    = 30 * time.Second

	chatTimeout    = 30 * time.Second
	defaultTimeout = 15 * time.Second
	healthTimeout  = 5 * time.Second
	ttsTimeout     = 60 * time.Second
)

// TranscribeTimeout computes the request deadline for a transcription
// upload: max(15s, 15s per MiB of payload)
func TranscribeTimeout(sizeBytes int64) time.Duration {
	scaled := time.Duration(float64(transcribeTimeoutPerMiB) * float64(sizeBytes) / (1 << 20))
	if scaled < transcribeTimeoutFloor {
		return transcribeTimeoutFloor
	}
	return scaled
}

// ProcessTimeout computes the request deadline for a processing upload:
// max(60s, 30s per MiB of payload)
func ProcessTimeout(sizeBytes int64) time.Duration {
	scaled := time.Duration(float64(processTimeoutPerMiB) * float64(sizeBytes) / (1 << 20))
	if scaled < processTimeoutFloor {
		return processTimeoutFloor
	}
	return scaled
}

// Client talks to the therapist backend over HTTP. A circuit breaker
// guards the chat path and the health probe so a dead backend fails fast
// instead of eating a full timeout on every message.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     zerolog.Logger
}

// NewClient creates a backend client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.BackendURL,
		// Deadlines are per-request, computed from payload size
		httpClient: &http.Client{},
		breaker: resilience.NewCircuitBreaker(
			"backend",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: observability.GetLogger().With().Str("component", "api_client").Logger(),
	}
}

// SendMessage posts a text message to the chat endpoint and returns the
// reply. The caller is expected to degrade to a locally generated
// response on any failure.
func (c *Client) SendMessage(ctx context.Context, message, language string) (*ChatResponse, error) {
	reqBody := ChatRequest{
		Message:   message,
		Language:  language,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	var chatResp ChatResponse
	err = c.breaker.Call(func() error {
		data, err := c.do(ctx, http.MethodPost, endpointChatMessage, "application/json", bytes.NewReader(payload), chatTimeout)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &chatResp)
	})
	if err != nil {
		if err == resilience.ErrOpen {
			return nil, &Error{Kind: KindConnectionFailed, Endpoint: endpointChatMessage, Err: err}
		}
		return nil, err
	}

	if chatResp.Response == "" {
		return nil, &Error{Kind: KindEmptyReply, Endpoint: endpointChatMessage, Err: fmt.Errorf("reply has no response field")}
	}
	return &chatResp, nil
}

// Transcribe uploads an audio payload to the transcription endpoint.
// Size is re-validated before any network attempt, and a 200 reply with
// an empty text field is treated as a failure so the caller can fall
// back to full processing.
func (c *Client) Transcribe(ctx context.Context, payload *audio.Payload, language string) (*TranscriptionResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := buildMultipart(payload, map[string]string{"language": language})
	if err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}

	timeout := TranscribeTimeout(payload.Size())
	c.logger.Debug().
		Int64("bytes", payload.Size()).
		Dur("timeout", timeout).
		Msg("Uploading audio for transcription")

	data, err := c.do(ctx, http.MethodPost, endpointTranscribe, contentType, body, timeout)
	if err != nil {
		return nil, err
	}

	var result TranscriptionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription reply: %w", err)
	}
	if result.Text == "" {
		return nil, &Error{Kind: KindEmptyTranscript, Endpoint: endpointTranscribe, Err: fmt.Errorf("reply has no text field")}
	}
	return &result, nil
}

// Process uploads an audio payload to the full-processing endpoint, which
// transcribes and generates a reply in one call. A lightweight
// reachability probe runs first so an unreachable backend short-circuits
// without the heavy upload.
func (c *Client) Process(ctx context.Context, payload *audio.Payload, language string) (*ChatResponse, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	if err := c.probe(ctx); err != nil {
		return nil, &Error{Kind: KindBackendUnreachable, Endpoint: endpointProcess, Err: err}
	}

	body, contentType, err := buildMultipart(payload, map[string]string{"language": language})
	if err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}

	timeout := ProcessTimeout(payload.Size())
	c.logger.Debug().
		Int64("bytes", payload.Size()).
		Dur("timeout", timeout).
		Msg("Uploading audio for full processing")

	data, err := c.do(ctx, http.MethodPost, endpointProcess, contentType, body, timeout)
	if err != nil {
		return nil, err
	}

	var result ChatResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode processing reply: %w", err)
	}
	if result.Response == "" {
		return nil, &Error{Kind: KindEmptyReply, Endpoint: endpointProcess, Err: fmt.Errorf("reply has no response field")}
	}
	return &result, nil
}

// SubmitAudio runs the full submission sequence: transcribe, and on any
// failure process a freshly resliced copy of the payload. The two calls
// never run concurrently and neither is retried; if both fail the
// combined error is surfaced once.
func (c *Client) SubmitAudio(ctx context.Context, payload *audio.Payload, language string) (*SubmitResult, error) {
	transcript, err := c.Transcribe(ctx, payload, language)
	if err == nil {
		return &SubmitResult{
			Text:       transcript.Text,
			Confidence: transcript.Confidence,
			Language:   transcript.Language,
		}, nil
	}

	reason := err.Error()
	c.logger.Warn().Err(err).Msg("Transcription failed, falling back to full processing")
	observability.RecordFallback()

	reply, perr := c.Process(ctx, payload.Reslice(), language)
	if perr != nil {
		return nil, fmt.Errorf("transcription failed (%v); processing failed: %w", err, perr)
	}

	return &SubmitResult{
		Text:           reply.Response,
		Confidence:     reply.Confidence,
		Language:       reply.Language,
		UsedFallback:   true,
		FallbackReason: reason,
	}, nil
}

// Health checks the backend liveness endpoint
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, endpointHealth, "", nil, healthTimeout)
	return err
}

// probe runs the reachability check through the circuit breaker, so a
// backend already known to be down is skipped without a network attempt
func (c *Client) probe(ctx context.Context) error {
	return c.breaker.Call(func() error {
		return c.Health(ctx)
	})
}

// SystemStatus fetches the backend's component health snapshot
func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	data, err := c.do(ctx, http.MethodGet, endpointStatus, "", nil, defaultTimeout)
	if err != nil {
		return nil, err
	}

	var status SystemStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode system status: %w", err)
	}
	return &status, nil
}

// ClearHistory resets the server-side conversation history
func (c *Client) ClearHistory(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, endpointChatClear, "", nil, defaultTimeout)
	return err
}

// History fetches the server-side conversation history
func (c *Client) History(ctx context.Context) (*HistoryResponse, error) {
	data, err := c.do(ctx, http.MethodGet, endpointHistory, "", nil, defaultTimeout)
	if err != nil {
		return nil, err
	}

	var history HistoryResponse
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return &history, nil
}

// Upload sends an audio payload to the raw upload endpoint
func (c *Client) Upload(ctx context.Context, payload *audio.Payload) (*UploadResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := buildMultipart(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, endpointUpload, contentType, body, TranscribeTimeout(payload.Size()))
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload reply: %w", err)
	}
	return &result, nil
}

// Synthesize converts text to speech and returns the binary audio
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	payload, err := json.Marshal(TTSRequest{Text: text, Language: language})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, endpointSynthesize, "application/json", bytes.NewReader(payload), ttsTimeout)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &Error{Kind: KindEmptyReply, Endpoint: endpointSynthesize, Err: fmt.Errorf("reply has no audio")}
	}
	return data, nil
}

// ReportEmergency logs a crisis event on the backend
func (c *Client) ReportEmergency(ctx context.Context, details string) error {
	payload, err := json.Marshal(EmergencyReport{
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal emergency report: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, endpointEmergency, "application/json", bytes.NewReader(payload), defaultTimeout)
	return err
}

// do issues one request with a per-request deadline and maps transport and
// HTTP failures into the error taxonomy
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordAPIRequest(path, "error", time.Since(start))
		return nil, &Error{Kind: classifyTransport(err), Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	observability.RecordAPIRequest(path, strconv.Itoa(resp.StatusCode), time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(err), Endpoint: path, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:     kindForStatus(resp.StatusCode),
			Endpoint: path,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("backend returned status %d", resp.StatusCode),
		}
	}

	return data, nil
}

// buildMultipart assembles the multipart upload body with the payload's
// resolved MIME type on the audio part plus any extra form fields
func buildMultipart(payload *audio.Payload, fields map[string]string) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, payload.Filename))
	header.Set("Content-Type", payload.MIMEType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", err
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
