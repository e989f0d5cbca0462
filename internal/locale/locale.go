// Package locale holds the Arabic/English user-facing strings for the
// voice client. Every message shown to the user goes through this table so
// the interaction stays bilingual end to end.
package locale

import (
	"fmt"
	"math/rand"
)

// Language selects which translation table is used
type Language string

const (
	Arabic  Language = "arabic"
	English Language = "english"
)

// Key identifies a single user-facing message
type Key string

const (
	// Local validation failures
	KeyEmptyFile       Key = "empty_file"
	KeyFileTooLarge    Key = "file_too_large"
	KeyInvalidFileType Key = "invalid_file_type"
	KeyEmptyRecording  Key = "empty_recording"
	KeyMicrophone      Key = "microphone_error"

	// Transport failures
	KeyCannotConnect      Key = "cannot_connect"
	KeyTimedOut           Key = "timed_out"
	KeyBackendUnreachable Key = "backend_unreachable"

	// HTTP status failures
	KeyInvalidContent    Key = "invalid_content"     // 400
	KeyTooLarge          Key = "too_large"           // 413
	KeyUnsupportedFormat Key = "unsupported_format"  // 415
	KeyUnprocessable     Key = "unprocessable"       // 422
	KeyServerError       Key = "server_error"        // 500
	KeyUploadFailed      Key = "upload_failed"       // other; formatted with the status code

	// Result failures
	KeyAudioError Key = "audio_error" // combined transcribe+process failure

	// Chat UI
	KeyProcessingAudio Key = "processing_audio" // pending placeholder
	KeyRecording       Key = "recording"
	KeyEmergencyInfo   Key = "emergency_info"
)

var translations = map[Language]map[Key]string{
	Arabic: {
		KeyEmptyFile:          "الملف الصوتي فارغ",
		KeyFileTooLarge:       "الملف الصوتي كبير جداً. الحد الأقصى 10 ميجابايت",
		KeyInvalidFileType:    "نوع الملف غير مدعوم. الأنواع المدعومة: wav, mp3, ogg, m4a, aac, wma, flac, opus",
		KeyEmptyRecording:     "التسجيل فارغ. يرجى المحاولة مرة أخرى",
		KeyMicrophone:         "تعذر الوصول إلى الميكروفون. يرجى التحقق من الأذونات",
		KeyCannotConnect:      "تعذر الاتصال بالخادم. يرجى التحقق من اتصال الإنترنت",
		KeyTimedOut:           "انتهت مهلة الطلب. يرجى المحاولة مرة أخرى",
		KeyBackendUnreachable: "الخادم غير متاح حالياً. يرجى المحاولة لاحقاً",
		KeyInvalidContent:     "محتوى الملف الصوتي غير صالح",
		KeyTooLarge:           "رفض الخادم الملف لأنه كبير جداً",
		KeyUnsupportedFormat:  "صيغة الصوت غير مدعومة من الخادم",
		KeyUnprocessable:      "تعذر معالجة الرسالة الصوتية. لم يتم اكتشاف أي كلام",
		KeyServerError:        "حدث خطأ في الخادم. يرجى المحاولة مرة أخرى",
		KeyUploadFailed:       "فشل رفع الملف الصوتي (رمز الخطأ %d)",
		KeyAudioError:         "عذراً، لم أتمكن من فهم الرسالة الصوتية. يرجى المحاولة مرة أخرى.",
		KeyProcessingAudio:    "🎤 جاري معالجة الرسالة الصوتية...",
		KeyRecording:          "🎤 جاري التسجيل...",
		KeyEmergencyInfo: "🆘 في حالة الطوارئ:\n" +
			"- الطوارئ العامة: 999\n" +
			"- مستشفى السلطان قابوس: 24211411\n" +
			"- الصحة النفسية: متاح 24/7",
	},
	English: {
		KeyEmptyFile:          "The audio file is empty",
		KeyFileTooLarge:       "The audio file is too large. Maximum size is 10MB",
		KeyInvalidFileType:    "Unsupported file type. Supported formats: wav, mp3, ogg, m4a, aac, wma, flac, opus",
		KeyEmptyRecording:     "The recording is empty. Please try again",
		KeyMicrophone:         "Could not access the microphone. Please check permissions",
		KeyCannotConnect:      "Cannot connect to the server. Please check your internet connection",
		KeyTimedOut:           "The request timed out. Please try again",
		KeyBackendUnreachable: "The server is currently unavailable. Please try again later",
		KeyInvalidContent:     "The audio content is invalid",
		KeyTooLarge:           "The server rejected the file because it is too large",
		KeyUnsupportedFormat:  "The audio format is not supported by the server",
		KeyUnprocessable:      "Could not process the voice message. No speech detected",
		KeyServerError:        "A server error occurred. Please try again",
		KeyUploadFailed:       "Audio upload failed (error code %d)",
		KeyAudioError:         "Sorry, I couldn't understand the voice message. Please try again.",
		KeyProcessingAudio:    "🎤 Processing voice message...",
		KeyRecording:          "🎤 Recording...",
		KeyEmergencyInfo: "🆘 In case of emergency:\n" +
			"- General Emergency: 999\n" +
			"- Sultan Qaboos Hospital: 24211411\n" +
			"- Mental Health Hotline: Available 24/7",
	},
}

// Canned therapeutic responses shown when the chat backend is unreachable.
// The fallback is deliberately generic so the interaction stays alive
// without pretending to be a real reply.
var cannedResponses = map[Language][]string{
	Arabic: {
		"أفهم مشاعرك وأقدر ثقتك في التحدث معي.",
		"شكراً لك على مشاركة هذا معي. مشاعرك مهمة ومعتبرة.",
		"أسمعك وأفهم ما تمر به. هل تريد التحدث أكثر عن ما يضايقك؟",
		"يتطلب الأمر شجاعة للتواصل. أنا هنا لدعمك.",
		"صحتك النفسية مهمة. دعنا نعمل على هذا معاً.",
	},
	English: {
		"I understand your feelings and appreciate your trust in talking to me.",
		"Thank you for sharing this with me. Your feelings are important and valid.",
		"I hear you and understand what you're going through. Would you like to talk more about what's bothering you?",
		"It takes courage to reach out. I'm here to support you.",
		"Your mental health matters. Let's work through this together.",
	},
}

// T returns the message for key in the given language.
// Unknown languages fall back to English; unknown keys return the key itself.
func T(lang Language, key Key) string {
	table, ok := translations[lang]
	if !ok {
		table = translations[English]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return string(key)
}

// Tf returns the message for key formatted with args
func Tf(lang Language, key Key, args ...interface{}) string {
	return fmt.Sprintf(T(lang, key), args...)
}

// CannedResponse returns a locally generated therapeutic response in the
// given language, used when the chat backend cannot be reached
func CannedResponse(lang Language) string {
	responses, ok := cannedResponses[lang]
	if !ok {
		responses = cannedResponses[English]
	}
	return responses[rand.Intn(len(responses))]
}

// Parse converts a configuration string into a Language, defaulting to Arabic
func Parse(s string) Language {
	if s == string(English) {
		return English
	}
	return Arabic
}
