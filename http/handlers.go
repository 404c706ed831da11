package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"edupredict/advice"
	"edupredict/db"
	"edupredict/logging"
	"edupredict/ml"
	"edupredict/predictor"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Predictor is the inference side the handlers need. *predictor.Service
// satisfies it.
type Predictor interface {
	Predict(ctx context.Context, record ml.FeatureRecord) (predictor.Prediction, error)
	Info() predictor.Info
	Available() bool
}

// HistoryReader exposes stored predictions and training runs. *db.Store
// satisfies it.
type HistoryReader interface {
	RecentPredictions(ctx context.Context, limit int) ([]db.PredictionRecord, error)
	LoadTrainingLog(ctx context.Context) ([]db.TrainingLog, error)
}

type Handlers struct {
	predictor Predictor
	history   HistoryReader
	logger    *zap.Logger
	locale    string
}

type HandlersConfig struct {
	Predictor Predictor
	// History may be nil when prediction history is disabled.
	History HistoryReader
	Logger  *zap.Logger
	// Locale is the fallback language for the form and advice text.
	Locale string
}

func NewHandlers(config HandlersConfig) *Handlers {
	h := &Handlers{
		predictor: config.Predictor,
		history:   config.History,
		logger:    config.Logger,
		locale:    config.Locale,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handleFormPredict)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("POST /api/predict", h.handleAPIPredict)
	mux.HandleFunc("GET /api/predictions", h.handlePredictions)
	mux.HandleFunc("GET /api/training", h.handleTrainingLog)
	mux.HandleFunc("GET /api/ws/predict", h.handleWebSocket)
}

func (h *Handlers) localizer(r *http.Request) *advice.Localizer {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return advice.New(lang)
	}
	return advice.FromAcceptLanguage(r.Header.Get("Accept-Language"), h.locale)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.predictor.Available() {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          status,
		"model_available": h.predictor.Available(),
	})
}

func (h *Handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.predictor.Info())
}

// PredictResponse is a prediction plus the guidance shown for its label.
type PredictResponse struct {
	predictor.Prediction
	Advice advice.Advice `json:"advice"`
}

func (h *Handlers) predict(r *http.Request, record ml.FeatureRecord) (PredictResponse, error) {
	p, err := h.predictor.Predict(r.Context(), record)
	if err != nil {
		return PredictResponse{}, err
	}
	return PredictResponse{Prediction: p, Advice: h.localizer(r).For(p.Label)}, nil
}

// predictionStatus maps a Predict error to a status code and JSON body.
func predictionStatus(err error) (int, errorResponse) {
	var verr *ml.ValidationError
	var uerr *predictor.UnavailableError
	switch {
	case errors.As(err, &verr):
		body := errorResponse{Error: "invalid feature record"}
		for _, f := range verr.Fields {
			body.Fields = append(body.Fields, fieldErrorJSON{Field: f.Field, Rule: f.Rule, Param: f.Param})
		}
		return http.StatusBadRequest, body
	case errors.As(err, &uerr):
		return http.StatusServiceUnavailable, errorResponse{Error: predictor.ErrModelUnavailable.Error(), Reason: uerr.Reason.Error()}
	case errors.Is(err, predictor.ErrModelUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: predictor.ErrModelUnavailable.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "prediction failed"}
	}
}

func (h *Handlers) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	record, err := decodeRecord(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Reason: err.Error()})
		return
	}

	resp, err := h.predict(r, record)
	if err != nil {
		status, body := predictionStatus(err)
		if status == http.StatusInternalServerError {
			logging.FromContext(r.Context(), h.logger).Error("prediction failed", zap.Error(err))
		}
		respondJSON(w, status, body)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "prediction history disabled")
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	records, err := h.history.RecentPredictions(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("load prediction history", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load prediction history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":       len(records),
		"predictions": records,
	})
}

func (h *Handlers) handleTrainingLog(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "prediction history disabled")
		return
	}
	logs, err := h.history.LoadTrainingLog(r.Context())
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("load training log", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load training log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": logs})
}
