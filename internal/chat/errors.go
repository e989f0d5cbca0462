package chat

import (
	"errors"

	"github.com/omanicare/voice-client/internal/api"
	"github.com/omanicare/voice-client/internal/audio"
	"github.com/omanicare/voice-client/internal/locale"
)

// UserMessage maps any pipeline failure to a localized user-facing string.
// Nothing is silently swallowed: unknown failures fall back to the generic
// voice-message error.
func UserMessage(err error, lang locale.Language) string {
	switch {
	case errors.Is(err, audio.ErrEmpty):
		return locale.T(lang, locale.KeyEmptyFile)
	case errors.Is(err, audio.ErrTooLarge):
		return locale.T(lang, locale.KeyFileTooLarge)
	case errors.Is(err, audio.ErrInvalidType):
		return locale.T(lang, locale.KeyInvalidFileType)
	case errors.Is(err, audio.ErrEmptyRecording):
		return locale.T(lang, locale.KeyEmptyRecording)
	case errors.Is(err, audio.ErrMicrophone):
		return locale.T(lang, locale.KeyMicrophone)
	}

	if apiErr, ok := api.AsError(err); ok {
		switch apiErr.Kind {
		case api.KindConnectionFailed:
			return locale.T(lang, locale.KeyCannotConnect)
		case api.KindTimeout:
			return locale.T(lang, locale.KeyTimedOut)
		case api.KindBackendUnreachable:
			return locale.T(lang, locale.KeyBackendUnreachable)
		case api.KindInvalidContent:
			return locale.T(lang, locale.KeyInvalidContent)
		case api.KindPayloadTooLarge:
			return locale.T(lang, locale.KeyTooLarge)
		case api.KindUnsupportedFormat:
			return locale.T(lang, locale.KeyUnsupportedFormat)
		case api.KindUnprocessable:
			return locale.T(lang, locale.KeyUnprocessable)
		case api.KindServerError:
			return locale.T(lang, locale.KeyServerError)
		case api.KindUploadFailed:
			return locale.Tf(lang, locale.KeyUploadFailed, apiErr.Status)
		}
	}

	return locale.T(lang, locale.KeyAudioError)
}
