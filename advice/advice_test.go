package advice

import (
	"strings"
	"testing"
)

func TestColorTable(t *testing.T) {
	cases := map[string]string{
		"Dropout":  "red",
		"Enrolled": "orange",
		"Graduate": "green",
		"Unknown":  "blue",
		"graduate": "blue",
	}
	for label, want := range cases {
		if got := Color(label); got != want {
			t.Errorf("Color(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestForEnglish(t *testing.T) {
	l := New("en")
	a := l.For("Dropout")
	if a.Color != "red" || a.Severity != SeverityWarning {
		t.Fatalf("unexpected advice %+v", a)
	}
	if !strings.Contains(a.Message, "high risk") {
		t.Errorf("message %q", a.Message)
	}
	if got := l.For("Unknown"); got.Message != "" || got.Severity != SeverityNone {
		t.Errorf("unknown label advice %+v", got)
	}
}

func TestForIndonesian(t *testing.T) {
	l := New("id")
	if l.Lang() != "id" {
		t.Fatalf("Lang() = %q", l.Lang())
	}
	a := l.For("Graduate")
	if !strings.Contains(a.Message, "diprediksi akan lulus") {
		t.Errorf("message %q", a.Message)
	}
	if got := l.Text(KeySubmit); got != "Prediksi Status" {
		t.Errorf("submit text %q", got)
	}
}

func TestFallbackToEnglish(t *testing.T) {
	for _, lang := range []string{"", "fr", "not a tag"} {
		if got := New(lang).Lang(); got != "en" {
			t.Errorf("New(%q).Lang() = %q", lang, got)
		}
	}
}

func TestFromAcceptLanguage(t *testing.T) {
	if got := FromAcceptLanguage("id-ID,id;q=0.9,en;q=0.8", "en").Lang(); got != "id" {
		t.Errorf("got %q, want id", got)
	}
	if got := FromAcceptLanguage("", "id").Lang(); got != "id" {
		t.Errorf("empty header should use fallback, got %q", got)
	}
}

func TestConfidenceFormatting(t *testing.T) {
	if got := New("en").Confidence(0.8312); got != "Model confidence: 83.12%" {
		t.Errorf("en: %q", got)
	}
	if got := New("id").Confidence(0.8312); got != "Tingkat Keyakinan Model: 83,12%" {
		t.Errorf("id: %q", got)
	}
}
