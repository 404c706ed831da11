package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Artifact is everything inference needs: the fitted pipeline, the feature
// order it was trained on and the encoder's class list.
type Artifact struct {
	FeatureNames []string  `json:"feature_names"`
	Classes      []string  `json:"classes"`
	Pipeline     *Pipeline `json:"pipeline"`
}

func (a *Artifact) Label(code int) string {
	if code < 0 || code >= len(a.Classes) {
		return UnknownLabel
	}
	return a.Classes[code]
}

func (a *Artifact) Validate() error {
	if len(a.Classes) == 0 {
		return errors.New("artifact has no classes")
	}
	if !sameFeatureNames(a.FeatureNames) {
		return fmt.Errorf("%w: artifact trained on %q", ErrDimensionMismatch, a.FeatureNames)
	}
	if a.Pipeline == nil || a.Pipeline.Scaler == nil || a.Pipeline.Classifier == nil {
		return ErrNotFitted
	}
	if len(a.Pipeline.Scaler.Mean) != NumFeatures() || len(a.Pipeline.Scaler.Std) != NumFeatures() {
		return fmt.Errorf("%w: scaler has %d features", ErrDimensionMismatch, len(a.Pipeline.Scaler.Mean))
	}
	for j, std := range a.Pipeline.Scaler.Std {
		mean := a.Pipeline.Scaler.Mean[j]
		if !(std > 0) || math.IsInf(std, 0) || math.IsNaN(mean) || math.IsInf(mean, 0) {
			return fmt.Errorf("scaler has invalid mean %v or std %v for %s", mean, std, a.FeatureNames[j])
		}
	}
	if !a.Pipeline.Classifier.fitted() {
		return ErrNotFitted
	}
	if err := a.Pipeline.Classifier.checkStructure(); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if n := a.Pipeline.Classifier.NumClasses; n > len(a.Classes) {
		return fmt.Errorf("artifact classifier expects %d classes, label list has %d", n, len(a.Classes))
	}
	for _, m := range a.Pipeline.Classifier.Machines {
		if len(m.SupportVectors) != len(m.Coef) {
			return errors.New("artifact machine has mismatched support vectors and coefficients")
		}
		for _, sv := range m.SupportVectors {
			if len(sv) != NumFeatures() {
				return fmt.Errorf("%w: support vector has %d values", ErrDimensionMismatch, len(sv))
			}
		}
	}
	return nil
}

func (a *Artifact) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// Save replaces path atomically: the artifact is written to a temporary file
// in the same directory and renamed over the old one.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	payload, err := a.Marshal()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}
