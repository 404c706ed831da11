package ml

import (
	"fmt"
	"sort"
)

// UnknownLabel is reported for class codes the encoder never produced.
const UnknownLabel = "Unknown"

// LabelEncoder maps target strings to integer codes. Codes follow the
// lexicographic order of the distinct classes seen during Fit.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{}
	e.setClasses(append([]string(nil), classes...))
	return e
}

func (e *LabelEncoder) Fit(targets []string) error {
	if len(targets) == 0 {
		return ErrEmptyTrainingSet
	}
	seen := make(map[string]struct{})
	classes := make([]string, 0)
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		classes = append(classes, t)
	}
	sort.Strings(classes)
	e.setClasses(classes)
	return nil
}

func (e *LabelEncoder) setClasses(classes []string) {
	e.classes = classes
	e.index = make(map[string]int, len(classes))
	for i, c := range classes {
		e.index[c] = i
	}
}

func (e *LabelEncoder) Transform(targets []string) ([]int, error) {
	if e.index == nil {
		return nil, ErrNotFitted
	}
	codes := make([]int, len(targets))
	for i, t := range targets {
		code, ok := e.index[t]
		if !ok {
			return nil, fmt.Errorf("unseen class %q at row %d", t, i)
		}
		codes[i] = code
	}
	return codes, nil
}

func (e *LabelEncoder) FitTransform(targets []string) ([]int, error) {
	if err := e.Fit(targets); err != nil {
		return nil, err
	}
	return e.Transform(targets)
}

func (e *LabelEncoder) Label(code int) string {
	if code < 0 || code >= len(e.classes) {
		return UnknownLabel
	}
	return e.classes[code]
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}
