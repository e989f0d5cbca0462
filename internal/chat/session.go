// Package chat owns the conversation state: the message history, the
// transient processing placeholder, and the degraded-mode behavior that
// keeps the interaction alive when the backend is down.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omanicare/voice-client/internal/api"
	"github.com/omanicare/voice-client/internal/audio"
	"github.com/omanicare/voice-client/internal/locale"
	"github.com/omanicare/voice-client/internal/observability"
)

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the local chat history. Pending marks the
// transient placeholder shown while an audio submission is underway.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Pending   bool
}

// Session holds one conversation with the therapist backend
type Session struct {
	mu       sync.RWMutex
	client   *api.Client
	language locale.Language
	messages []Message
	logger   zerolog.Logger
}

// NewSession creates a conversation session in the given language
func NewSession(client *api.Client, language locale.Language) *Session {
	correlationID := observability.NewCorrelationID()
	return &Session{
		client:   client,
		language: language,
		logger:   observability.WithCorrelationID(correlationID).With().Str("component", "chat_session").Logger(),
	}
}

// Language returns the session language
func (s *Session) Language() locale.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage switches the session language
func (s *Session) SetLanguage(language locale.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = language
}

// Messages returns a copy of the local chat history
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SendText sends a text message and returns the reply. Any transport
// failure degrades to a locally generated canned response instead of
// surfacing a raw error, keeping the conversation alive.
func (s *Session) SendText(ctx context.Context, text string) string {
	s.append(RoleUser, text, false)
	return s.reply(ctx, text)
}

// SubmitAudio runs the audio submission pipeline against the backend and
// folds the outcome into the chat history. A pending placeholder is shown
// while processing and removed on completion, success or failure; a
// combined failure produces exactly one localized error message.
func (s *Session) SubmitAudio(ctx context.Context, payload *audio.Payload) (string, error) {
	lang := s.Language()
	pendingID := s.append(RoleAssistant, locale.T(lang, locale.KeyProcessingAudio), true)

	result, err := s.client.SubmitAudio(ctx, payload, string(lang))
	s.remove(pendingID)

	if err != nil {
		s.logger.Error().Err(err).Msg("Audio submission failed")
		msg := UserMessage(err, lang)
		s.append(RoleAssistant, msg, false)
		return "", err
	}

	if result.UsedFallback {
		// The fallback endpoint returns a full reply, not a transcript
		s.logger.Info().Str("reason", result.FallbackReason).Msg("Audio handled by processing fallback")
		s.append(RoleUser, "🎤", false)
		s.append(RoleAssistant, result.Text, false)
		return result.Text, nil
	}

	s.append(RoleUser, "🎤 "+result.Text, false)
	return s.reply(ctx, result.Text), nil
}

// reply requests a therapeutic response for text and appends it to the
// history, degrading to a canned response on failure
func (s *Session) reply(ctx context.Context, text string) string {
	lang := s.Language()

	resp, err := s.client.SendMessage(ctx, text, string(lang))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Chat request failed, using locally generated response")
		observability.RecordCannedResponse()
		canned := locale.CannedResponse(lang)
		s.append(RoleAssistant, canned, false)
		return canned
	}

	s.append(RoleAssistant, resp.Response, false)
	return resp.Response
}

// Clear resets both the server-side and local conversation history.
// The local history is cleared even when the backend call fails.
func (s *Session) Clear(ctx context.Context) error {
	err := s.client.ClearHistory(ctx)

	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	return err
}

func (s *Session) append(role Role, content string, pending bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.messages = append(s.messages, Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Pending:   pending,
	})
	return id
}

func (s *Session) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}
