package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omanicare/voice-client/internal/audio"
	"github.com/omanicare/voice-client/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{
		BackendURL:                 srv.URL,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
	})
}

func testPayload(t *testing.T, filename, declared string, size int) *audio.Payload {
	t.Helper()
	p, err := audio.NewPayload(filename, declared, make([]byte, size))
	if err != nil {
		t.Fatalf("NewPayload() failed: %v", err)
	}
	return p
}

func TestTranscribeTimeout(t *testing.T) {
	tests := []struct {
		sizeBytes int64
		want      time.Duration
	}{
		{0, 15 * time.Second},
		{100 * 1024, 15 * time.Second},       // small file hits the floor
		{1 << 20, 15 * time.Second},          // 1 MiB is exactly the floor
		{5 << 20, 75 * time.Second},          // 5 MiB scales to 75s
		{10 << 20, 150 * time.Second},        // the 10 MiB cap scales to 150s
	}

	for _, tt := range tests {
		if got := TranscribeTimeout(tt.sizeBytes); got != tt.want {
			t.Errorf("TranscribeTimeout(%d) = %v, want %v", tt.sizeBytes, got, tt.want)
		}
	}
}

func TestProcessTimeout(t *testing.T) {
	tests := []struct {
		sizeBytes int64
		want      time.Duration
	}{
		{0, 60 * time.Second},
		{1 << 20, 60 * time.Second},   // 30s scaled is under the 60s floor
		{2 << 20, 60 * time.Second},   // 2 MiB scales to exactly the floor
		{5 << 20, 150 * time.Second},  // 5 MiB scales to 150s
		{10 << 20, 300 * time.Second}, // the 10 MiB cap scales to 300s
	}

	for _, tt := range tests {
		if got := ProcessTimeout(tt.sizeBytes); got != tt.want {
			t.Errorf("ProcessTimeout(%d) = %v, want %v", tt.sizeBytes, got, tt.want)
		}
	}
}

func TestSendMessage(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/message" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"response":"أهلاً بك","confidence":0.9,"language":"arabic"}`))
	}))

	resp, err := client.SendMessage(context.Background(), "مرحبا", "arabic")
	if err != nil {
		t.Fatalf("SendMessage() failed: %v", err)
	}
	if resp.Response != "أهلاً بك" {
		t.Errorf("Unexpected response: %s", resp.Response)
	}
}

func TestSendMessage_EmptyReply(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":""}`))
	}))

	_, err := client.SendMessage(context.Background(), "hello", "english")
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindEmptyReply {
		t.Errorf("Expected KindEmptyReply, got %v", err)
	}
}

func TestSendMessage_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		BackendURL:                 srv.URL,
		CircuitBreakerMaxFailures:  1,
		CircuitBreakerResetTimeout: 60,
	})

	if _, err := client.SendMessage(context.Background(), "hi", "english"); err == nil {
		t.Fatal("Expected first call to fail")
	}

	// Circuit is now open, the second attempt never reaches the backend
	_, err := client.SendMessage(context.Background(), "hi", "english")
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindConnectionFailed {
		t.Errorf("Expected KindConnectionFailed from open circuit, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected 1 backend call, got %d", n)
	}
}

func TestTranscribe_EmptyText(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"","confidence":0}`))
	}))

	_, err := client.Transcribe(context.Background(), testPayload(t, "voice.wav", "audio/wav", 1000), "arabic")
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindEmptyTranscript {
		t.Errorf("Expected KindEmptyTranscript for blank 200 reply, got %v", err)
	}
}

func TestTranscribe_SendsMultipartWithType(t *testing.T) {
	var gotType, gotLanguage string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() failed: %v", err)
		}
		gotType = r.MultipartForm.File["audio"][0].Header.Get("Content-Type")
		gotLanguage = r.FormValue("language")
		w.Write([]byte(`{"text":"hello","confidence":0.95,"language":"english"}`))
	}))

	result, err := client.Transcribe(context.Background(), testPayload(t, "voice.mp3", "audio/mpeg", 1000), "english")
	if err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("Unexpected transcript: %s", result.Text)
	}
	if gotType != "audio/mpeg" {
		t.Errorf("Expected audio part Content-Type 'audio/mpeg', got '%s'", gotType)
	}
	if gotLanguage != "english" {
		t.Errorf("Expected language field 'english', got '%s'", gotLanguage)
	}
}

func TestValidationFailure_NoNetworkCall(t *testing.T) {
	var calls int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))

	empty := &audio.Payload{Filename: "voice.wav", MIMEType: "audio/wav"}
	oversized := &audio.Payload{
		Filename: "voice.wav",
		MIMEType: "audio/wav",
		Data:     make([]byte, audio.MaxPayloadBytes+1),
	}

	for _, p := range []*audio.Payload{empty, oversized} {
		if _, err := client.Transcribe(context.Background(), p, "arabic"); err == nil {
			t.Error("Expected Transcribe to reject invalid payload")
		}
		if _, err := client.Process(context.Background(), p, "arabic"); err == nil {
			t.Error("Expected Process to reject invalid payload")
		}
		if _, err := client.Upload(context.Background(), p); err == nil {
			t.Error("Expected Upload to reject invalid payload")
		}
	}

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("Expected 0 network calls for invalid payloads, got %d", n)
	}
}

func TestProcess_ProbeShortCircuit(t *testing.T) {
	var processCalls int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/audio/process":
			atomic.AddInt32(&processCalls, 1)
		}
	}))

	_, err := client.Process(context.Background(), testPayload(t, "voice.wav", "audio/wav", 1000), "arabic")
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindBackendUnreachable {
		t.Errorf("Expected KindBackendUnreachable, got %v", err)
	}
	if n := atomic.LoadInt32(&processCalls); n != 0 {
		t.Errorf("Expected the heavy upload to be skipped, got %d calls", n)
	}
}

func TestSubmitAudio_TranscriptPath(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"كيف حالك","confidence":0.9,"language":"arabic"}`))
	}))

	result, err := client.SubmitAudio(context.Background(), testPayload(t, "voice.wav", "audio/wav", 1000), "arabic")
	if err != nil {
		t.Fatalf("SubmitAudio() failed: %v", err)
	}
	if result.UsedFallback {
		t.Error("Expected no fallback on a successful transcription")
	}
	if result.Text != "كيف حالك" {
		t.Errorf("Unexpected transcript: %s", result.Text)
	}
}

func TestSubmitAudio_FallbackOnEmptyTranscript(t *testing.T) {
	var transcribeCalls, processCalls int32
	var fallbackType string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/audio/transcribe":
			atomic.AddInt32(&transcribeCalls, 1)
			w.Write([]byte(`{"text":""}`))
		case "/api/health":
			w.Write([]byte(`{"status":"healthy"}`))
		case "/api/audio/process":
			atomic.AddInt32(&processCalls, 1)
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				t.Fatalf("ParseMultipartForm() failed: %v", err)
			}
			fallbackType = r.MultipartForm.File["audio"][0].Header.Get("Content-Type")
			w.Write([]byte(`{"response":"أنا هنا لمساعدتك","language":"arabic"}`))
		}
	}))

	// No declared type: the resliced fallback copy is forced to audio/wav
	payload := testPayload(t, "voice.m4a", "", 1000)

	result, err := client.SubmitAudio(context.Background(), payload, "arabic")
	if err != nil {
		t.Fatalf("SubmitAudio() failed: %v", err)
	}
	if !result.UsedFallback {
		t.Error("Expected the fallback path to be taken")
	}
	if result.FallbackReason == "" {
		t.Error("Expected the fallback reason to carry the transcription failure")
	}
	if result.Text != "أنا هنا لمساعدتك" {
		t.Errorf("Unexpected reply: %s", result.Text)
	}

	// Exactly one attempt each, never concurrent, never retried
	if n := atomic.LoadInt32(&transcribeCalls); n != 1 {
		t.Errorf("Expected 1 transcribe call, got %d", n)
	}
	if n := atomic.LoadInt32(&processCalls); n != 1 {
		t.Errorf("Expected 1 process call, got %d", n)
	}
	if fallbackType != "audio/wav" {
		t.Errorf("Expected fallback Content-Type 'audio/wav', got '%s'", fallbackType)
	}
}

func TestSubmitAudio_BothPathsFail(t *testing.T) {
	var transcribeCalls, processCalls int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/audio/transcribe":
			atomic.AddInt32(&transcribeCalls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/health":
			w.Write([]byte(`{"status":"healthy"}`))
		case "/api/audio/process":
			atomic.AddInt32(&processCalls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	_, err := client.SubmitAudio(context.Background(), testPayload(t, "voice.wav", "audio/wav", 1000), "arabic")
	if err == nil {
		t.Fatal("Expected a combined error when both paths fail")
	}
	if !strings.Contains(err.Error(), "processing failed") {
		t.Errorf("Expected the combined error to name both failures, got: %v", err)
	}

	if n := atomic.LoadInt32(&transcribeCalls); n != 1 {
		t.Errorf("Expected 1 transcribe call, got %d", n)
	}
	if n := atomic.LoadInt32(&processCalls); n != 1 {
		t.Errorf("Expected 1 process call, got %d", n)
	}
}

func TestDo_StatusMapping(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))

	_, err := client.Transcribe(context.Background(), testPayload(t, "voice.wav", "audio/wav", 1000), "arabic")
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("Expected a classified error, got %v", err)
	}
	if apiErr.Kind != KindPayloadTooLarge {
		t.Errorf("Expected KindPayloadTooLarge, got %v", apiErr.Kind)
	}
	if apiErr.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", apiErr.Status)
	}
}

func TestHealth(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health() failed: %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{1, 2, 3, 4})
	}))

	data, err := client.Synthesize(context.Background(), "hello", "english")
	if err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("Expected 4 audio bytes, got %d", len(data))
	}
}

func TestSynthesize_EmptyAudio(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.Synthesize(context.Background(), "hello", "english")
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindEmptyReply {
		t.Errorf("Expected KindEmptyReply for empty audio, got %v", err)
	}
}
