package locale

import (
	"strings"
	"testing"
)

var allKeys = []Key{
	KeyEmptyFile, KeyFileTooLarge, KeyInvalidFileType, KeyEmptyRecording,
	KeyMicrophone, KeyCannotConnect, KeyTimedOut, KeyBackendUnreachable,
	KeyInvalidContent, KeyTooLarge, KeyUnsupportedFormat, KeyUnprocessable,
	KeyServerError, KeyUploadFailed, KeyAudioError, KeyProcessingAudio,
	KeyRecording, KeyEmergencyInfo,
}

func TestT_AllKeysPresent(t *testing.T) {
	for _, lang := range []Language{Arabic, English} {
		for _, key := range allKeys {
			msg := T(lang, key)
			if msg == "" {
				t.Errorf("Expected non-empty message for %s/%s", lang, key)
			}
			if msg == string(key) {
				t.Errorf("Expected translation for %s/%s, got the key itself", lang, key)
			}
		}
	}
}

func TestT_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	msg := T(Language("french"), KeyTimedOut)
	if msg != T(English, KeyTimedOut) {
		t.Errorf("Expected English fallback, got '%s'", msg)
	}
}

func TestT_UnknownKeyReturnsKey(t *testing.T) {
	msg := T(English, Key("no_such_key"))
	if msg != "no_such_key" {
		t.Errorf("Expected key itself for unknown key, got '%s'", msg)
	}
}

func TestTf_FormatsStatusCode(t *testing.T) {
	msg := Tf(English, KeyUploadFailed, 502)
	if !strings.Contains(msg, "502") {
		t.Errorf("Expected formatted status code in '%s'", msg)
	}
}

func TestCannedResponse(t *testing.T) {
	for _, lang := range []Language{Arabic, English} {
		got := CannedResponse(lang)
		if got == "" {
			t.Fatalf("Expected non-empty canned response for %s", lang)
		}

		found := false
		for _, want := range cannedResponses[lang] {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Canned response '%s' not in the %s table", got, lang)
		}
	}
}

func TestParse(t *testing.T) {
	if Parse("english") != English {
		t.Error("Expected Parse('english') to return English")
	}
	if Parse("arabic") != Arabic {
		t.Error("Expected Parse('arabic') to return Arabic")
	}
	if Parse("") != Arabic {
		t.Error("Expected Parse('') to default to Arabic")
	}
}
