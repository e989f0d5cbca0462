package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/omanicare/voice-client/internal/observability"
)

// MaxPayloadBytes is the largest audio payload accepted for upload (10 MiB)
const MaxPayloadBytes = 10 * 1024 * 1024

// DefaultMIME is the canonical audio type used when nothing better is known
const DefaultMIME = "audio/wav"

const audioMIMEPrefix = "audio/"

// Validation errors reported before any network call is attempted
var (
	ErrEmpty       = errors.New("audio payload is empty")
	ErrTooLarge    = fmt.Errorf("audio payload exceeds %d bytes", MaxPayloadBytes)
	ErrInvalidType = errors.New("unsupported audio file type")
)

// allowedExtensions is the fixed extension allow-list for uploaded files
var allowedExtensions = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"ogg":  true,
	"m4a":  true,
	"aac":  true,
	"wma":  true,
	"flac": true,
	"opus": true,
}

// extensionMIMEs maps recognized extensions to their MIME type.
// wma has no entry and resolves to DefaultMIME.
var extensionMIMEs = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"opus": "audio/opus",
}

// preferredRecordingMIMEs is the polling order used when negotiating a
// recording format against a source's capabilities
var preferredRecordingMIMEs = []string{"audio/webm", "audio/mp4", "audio/ogg"}

// Payload is a normalized audio unit ready for network submission.
// MIMEType is always resolved and non-empty; Declared keeps whatever the
// user supplied, possibly empty.
type Payload struct {
	Data     []byte
	MIMEType string
	Declared string
	Filename string
}

// NewPayload validates the supplied audio and builds a normalized payload.
// Rules are evaluated in order: empty, oversized, type acceptance. The
// first failure wins and no payload is built.
func NewPayload(filename, declaredMIME string, data []byte) (*Payload, error) {
	if len(data) == 0 {
		observability.RecordValidationFailure("empty")
		return nil, ErrEmpty
	}
	if len(data) > MaxPayloadBytes {
		observability.RecordValidationFailure("too_large")
		return nil, ErrTooLarge
	}
	if !acceptable(filename, declaredMIME) {
		observability.RecordValidationFailure("invalid_type")
		return nil, ErrInvalidType
	}

	return &Payload{
		Data:     data,
		MIMEType: ResolveMIME(filename, declaredMIME),
		Declared: declaredMIME,
		Filename: filename,
	}, nil
}

// Size returns the payload size in bytes
func (p *Payload) Size() int64 {
	return int64(len(p.Data))
}

// Validate re-checks the size invariant. The controller already validates
// at build time; the network client calls this again before uploading.
func (p *Payload) Validate() error {
	if len(p.Data) == 0 {
		return ErrEmpty
	}
	if len(p.Data) > MaxPayloadBytes {
		return ErrTooLarge
	}
	return nil
}

// Reslice returns a fresh, unconsumed copy of the payload for a second
// network attempt. The MIME type is forced to the canonical audio/wav when
// the originally declared type was empty.
func (p *Payload) Reslice() *Payload {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)

	mimeType := p.MIMEType
	if p.Declared == "" {
		mimeType = DefaultMIME
	}

	return &Payload{
		Data:     data,
		MIMEType: mimeType,
		Declared: p.Declared,
		Filename: p.Filename,
	}
}

// ResolveMIME returns the MIME type to submit for a file. A declared audio
// type is accepted as-is; otherwise the type is inferred from the extension
// table, defaulting to audio/wav.
func ResolveMIME(filename, declared string) string {
	if strings.HasPrefix(declared, audioMIMEPrefix) {
		return declared
	}
	if mimeType, ok := extensionMIMEs[extOf(filename)]; ok {
		return mimeType
	}
	return DefaultMIME
}

// PreferredMIME picks the best recording format from the supported list,
// polling in policy order. audio/wav is the fallback when nothing matches,
// meaning the recorder wraps raw PCM itself.
func PreferredMIME(supported []string) string {
	for _, want := range preferredRecordingMIMEs {
		for _, have := range supported {
			if have == want {
				return want
			}
		}
	}
	return DefaultMIME
}

// acceptable implements the upload type-acceptance rule: declared MIME type
// starts with audio/ or the extension is on the allow-list
func acceptable(filename, declared string) bool {
	if strings.HasPrefix(declared, audioMIMEPrefix) {
		return true
	}
	return allowedExtensions[extOf(filename)]
}

func extOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
