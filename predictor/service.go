// Package predictor answers prediction requests from a trained artifact loaded
// once per process.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"edupredict/db"
	"edupredict/logging"
	"edupredict/ml"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var ErrModelUnavailable = errors.New("model unavailable")

// UnavailableError wraps the load failure so callers can report it while
// still matching ErrModelUnavailable.
type UnavailableError struct {
	Reason error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrModelUnavailable, e.Reason)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrModelUnavailable, e.Reason}
}

// History receives every answered prediction. *db.Store satisfies it.
type History interface {
	SavePrediction(ctx context.Context, p db.PredictionRecord) (int64, error)
}

type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

type Prediction struct {
	Label     string `json:"label"`
	ClassCode int    `json:"class_code"`
	// Confidence is nil when the artifact cannot estimate probabilities.
	Confidence    *float64           `json:"confidence"`
	Probabilities []ClassProbability `json:"probabilities,omitempty"`
}

type Options struct {
	// CacheSize bounds the prediction cache. Zero disables it.
	CacheSize int
	Logger    *zap.Logger
	History   History
}

type Service struct {
	path    string
	logger  *zap.Logger
	history History
	cache   *lru.Cache[ml.FeatureRecord, Prediction]

	once  sync.Once
	state State
}

// NewService does no I/O. The artifact at modelPath is read on first use.
func NewService(modelPath string, opts Options) (*Service, error) {
	s := &Service{
		path:    modelPath,
		logger:  opts.Logger,
		history: opts.History,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[ml.FeatureRecord, Prediction](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// NewServiceFromArtifact wraps an artifact that is already in memory.
func NewServiceFromArtifact(artifact *ml.Artifact, opts Options) (*Service, error) {
	s, err := NewService("", opts)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {
		if err := artifact.Validate(); err != nil {
			s.state = Unavailable{Reason: err}
			return
		}
		s.state = Loaded{Artifact: artifact}
	})
	return s, nil
}

// State loads the artifact on the first call. The outcome is kept for the
// life of the process; a failed load is not retried.
func (s *Service) State() State {
	s.once.Do(func() {
		artifact, err := ml.LoadArtifact(s.path)
		if err != nil {
			s.logger.Error("model unavailable", zap.String("path", s.path), zap.Error(err))
			s.state = Unavailable{Path: s.path, Reason: err}
			return
		}
		s.logger.Info("model loaded",
			zap.String("path", s.path),
			zap.Strings("classes", artifact.Classes),
			zap.Bool("probability", artifact.Pipeline.SupportsProbability()),
		)
		s.state = Loaded{Artifact: artifact, Path: s.path}
	})
	return s.state
}

func (s *Service) Available() bool {
	_, ok := s.State().(Loaded)
	return ok
}

// Predict classifies one record. It returns ErrModelUnavailable (wrapped in
// *UnavailableError) when the artifact could not be loaded and
// *ml.ValidationError when the record is out of bounds.
func (s *Service) Predict(ctx context.Context, record ml.FeatureRecord) (Prediction, error) {
	var artifact *ml.Artifact
	switch st := s.State().(type) {
	case Loaded:
		artifact = st.Artifact
	case Unavailable:
		return Prediction{}, &UnavailableError{Reason: st.Reason}
	}
	if err := record.Validate(); err != nil {
		return Prediction{}, err
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	logger := logging.FromContext(ctx, s.logger)
	if s.cache != nil {
		if p, ok := s.cache.Get(record); ok {
			logger.Debug("prediction cache hit", zap.String("label", p.Label))
			s.record(ctx, record, p)
			return p, nil
		}
	}

	p, err := s.predict(artifact, artifact.Pipeline, record, logger)
	if err != nil {
		return Prediction{}, err
	}
	if s.cache != nil {
		s.cache.Add(record, p)
	}
	s.record(ctx, record, p)
	return p, nil
}

// scorer is the part of a fitted pipeline a single prediction needs.
type scorer interface {
	Predict(features [][]float64) ([]int, error)
	PredictProba(features [][]float64) ([][]float64, error)
}

func (s *Service) predict(artifact *ml.Artifact, model scorer, record ml.FeatureRecord, logger *zap.Logger) (Prediction, error) {
	row := [][]float64{record.Vector()}
	codes, err := model.Predict(row)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	code := codes[0]
	p := Prediction{Label: artifact.Label(code), ClassCode: code}

	proba, err := model.PredictProba(row)
	switch {
	case errors.Is(err, ml.ErrProbabilityUnsupported):
	case err != nil:
		logger.Warn("probability estimate failed", zap.Error(err))
	default:
		best := 0.0
		p.Probabilities = make([]ClassProbability, 0, len(proba[0]))
		for c, v := range proba[0] {
			best = max(best, v)
			p.Probabilities = append(p.Probabilities, ClassProbability{Label: artifact.Label(c), Probability: v})
		}
		p.Confidence = &best
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, record ml.FeatureRecord, p Prediction) {
	if s.history == nil {
		return
	}
	// The request context may already be cancelled once the response is
	// written; history is written on its own deadline.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	_, err := s.history.SavePrediction(hctx, db.PredictionRecord{
		RequestID:           logging.RequestID(ctx),
		TuitionFeesUpToDate: record.TuitionFeesUpToDate,
		ScholarshipHolder:   record.ScholarshipHolder,
		Sem1Approved:        record.Sem1Approved,
		Sem1Grade:           record.Sem1Grade,
		Sem2Approved:        record.Sem2Approved,
		Sem2Grade:           record.Sem2Grade,
		AgeAtEnrollment:     record.AgeAtEnrollment,
		Label:               p.Label,
		ClassCode:           p.ClassCode,
		Confidence:          p.Confidence,
	})
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to record prediction", zap.Error(err))
	}
}

type Info struct {
	Available      bool     `json:"available"`
	Path           string   `json:"path,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	Classes        []string `json:"classes,omitempty"`
	FeatureNames   []string `json:"feature_names,omitempty"`
	Probability    bool     `json:"probability"`
	Gamma          float64  `json:"gamma,omitempty"`
	C              float64  `json:"c,omitempty"`
	SupportVectors int      `json:"support_vectors,omitempty"`
}

// Info describes the loaded model for status endpoints.
func (s *Service) Info() Info {
	switch st := s.State().(type) {
	case Loaded:
		clf := st.Artifact.Pipeline.Classifier
		nsv := 0
		for _, m := range clf.Machines {
			nsv += len(m.SupportVectors)
		}
		return Info{
			Available:      true,
			Path:           st.Path,
			Classes:        st.Artifact.Classes,
			FeatureNames:   st.Artifact.FeatureNames,
			Probability:    st.Artifact.Pipeline.SupportsProbability(),
			Gamma:          clf.Gamma,
			C:              clf.Params.C,
			SupportVectors: nsv,
		}
	case Unavailable:
		info := Info{Path: st.Path}
		if st.Reason != nil {
			info.Reason = st.Reason.Error()
		}
		return info
	}
	return Info{}
}
