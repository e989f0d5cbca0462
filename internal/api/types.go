package api

// ChatRequest is the payload for POST /api/chat/message
type ChatRequest struct {
	Message   string `json:"message"`
	Language  string `json:"language"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatResponse is the reply shape of the chat and processing endpoints
type ChatResponse struct {
	Response    string  `json:"response"`
	Confidence  float64 `json:"confidence,omitempty"`
	Language    string  `json:"language,omitempty"`
	SafetyScore float64 `json:"safety_score,omitempty"`
}

// TranscriptionResult is the reply shape of POST /api/audio/transcribe
type TranscriptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	Duration   float64 `json:"duration"`
}

// SystemStatus is the reply shape of GET /api/system/status
type SystemStatus struct {
	STTReady        bool   `json:"stt_ready"`
	LLMReady        bool   `json:"llm_ready"`
	ServicesHealthy bool   `json:"services_healthy"`
	LastCheck       string `json:"last_check"`
}

// UploadResult is the reply shape of POST /api/audio/upload
type UploadResult struct {
	FileID string `json:"file_id"`
}

// HistoryMessage is one entry of the server-side conversation history
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is the reply shape of GET /api/chat/history
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// TTSRequest is the payload for POST /api/tts/synthesize
type TTSRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// EmergencyReport is the payload for POST /api/emergency/report
type EmergencyReport struct {
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// SubmitResult is the tagged outcome of a full audio submission: the
// transcript from the primary call, or the full reply from the fallback
type SubmitResult struct {
	Text           string
	Confidence     float64
	Language       string
	UsedFallback   bool
	FallbackReason string
}
