package ml

import "testing"

func TestLabelEncoderLexicographic(t *testing.T) {
	e := &LabelEncoder{}
	codes, err := e.FitTransform([]string{"Graduate", "Dropout", "Enrolled", "Graduate"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Dropout", "Enrolled", "Graduate"}
	got := e.Classes()
	if len(got) != len(want) {
		t.Fatalf("classes: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("classes: got %v want %v", got, want)
		}
	}
	wantCodes := []int{2, 0, 1, 2}
	for i := range wantCodes {
		if codes[i] != wantCodes[i] {
			t.Fatalf("codes: got %v want %v", codes, wantCodes)
		}
	}
	for code, label := range want {
		if e.Label(code) != label {
			t.Fatalf("Label(%d) = %q, want %q", code, e.Label(code), label)
		}
	}
}

func TestLabelEncoderUnknown(t *testing.T) {
	e := NewLabelEncoder([]string{"Dropout", "Graduate"})
	if e.Label(2) != UnknownLabel || e.Label(-1) != UnknownLabel {
		t.Fatalf("expected %q for unmapped codes", UnknownLabel)
	}
	if _, err := e.Transform([]string{"Enrolled"}); err == nil {
		t.Fatal("expected error for unseen class")
	}
}
