package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"edupredict/ml"
	"edupredict/ml/mltest"
	"edupredict/predictor"

	"github.com/gorilla/websocket"
)

type fakePredictor struct {
	prediction predictor.Prediction
	err        error
}

func (f *fakePredictor) Predict(ctx context.Context, record ml.FeatureRecord) (predictor.Prediction, error) {
	if err := record.Validate(); err != nil {
		return predictor.Prediction{}, err
	}
	return f.prediction, f.err
}

func (f *fakePredictor) Info() predictor.Info { return predictor.Info{Available: true} }
func (f *fakePredictor) Available() bool      { return true }

func postJSON(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func recordJSON(t *testing.T, r ml.FeatureRecord) string {
	t.Helper()
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestHandlePredict(t *testing.T) {
	conf := 0.75
	handler := newTestHandler(t, &fakePredictor{prediction: predictor.Prediction{Label: "Enrolled", ClassCode: 1, Confidence: &conf}}, nil)

	rr := postJSON(handler, recordJSON(t, mltest.HighAchiever()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["label"] != "Enrolled" || payload["class_code"].(float64) != 1 {
		t.Fatalf("unexpected prediction: %v", payload)
	}
	if payload["confidence"].(float64) != 0.75 {
		t.Fatalf("unexpected confidence: %v", payload["confidence"])
	}
	adv := payload["advice"].(map[string]any)
	if adv["color"] != "orange" || adv["severity"] != "info" {
		t.Fatalf("unexpected advice: %v", adv)
	}
}

func TestHandlePredictRealModel(t *testing.T) {
	handler := newTestHandler(t, loadedService(t, predictor.Options{}), nil)

	rr := postJSON(handler, recordJSON(t, mltest.AtRisk()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp PredictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Label != "Dropout" || resp.Advice.Color != "red" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Confidence == nil || *resp.Confidence < 0 || *resp.Confidence > 1 {
		t.Errorf("confidence out of range: %v", resp.Confidence)
	}
}

func TestHandlePredictUnavailable(t *testing.T) {
	handler := newTestHandler(t, missingService(t), nil)

	rr := postJSON(handler, recordJSON(t, mltest.HighAchiever()))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "model unavailable") {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestHandlePredictBadRequests(t *testing.T) {
	handler := newTestHandler(t, &fakePredictor{}, nil)

	cases := map[string]string{
		"malformed":     `{"sem1_grade":`,
		"unknown field": `{"gpa": 3.5}`,
		"wrong type":    `{"sem1_approved": "five"}`,
		"empty":         ``,
		"out of range":  `{"tuition_fees_up_to_date":1,"age_at_enrollment":12,"sem1_grade":25}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := postJSON(handler, body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}

	rr := postJSON(handler, `{"tuition_fees_up_to_date":1,"age_at_enrollment":12}`)
	var body errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "age_at_enrollment" {
		t.Errorf("unexpected field errors %+v", body.Fields)
	}
}

func TestHandlePredictInternalError(t *testing.T) {
	handler := newTestHandler(t, &fakePredictor{err: errors.New("solver exploded")}, nil)

	rr := postJSON(handler, recordJSON(t, mltest.HighAchiever()))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "exploded") {
		t.Error("internal error details leaked")
	}
}

func TestHandlePredictBodyLimit(t *testing.T) {
	handlers := NewHandlers(HandlersConfig{Predictor: &fakePredictor{}})
	config := DefaultServerConfig()
	config.MaxBodyBytes = 16
	handler := NewHandler(config, handlers, nil)

	rr := postJSON(handler, recordJSON(t, mltest.HighAchiever()))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func formBody(overrides map[string]string) string {
	v := url.Values{}
	v.Set("tuition_fees_up_to_date", "1")
	v.Set("scholarship_holder", "0")
	v.Set("sem1_approved", "20")
	v.Set("sem1_grade", "15.5")
	v.Set("sem2_approved", "20")
	v.Set("sem2_grade", "15.8")
	v.Set("age_at_enrollment", "19")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v.Encode()
}

func postForm(handler http.Handler, body string, lang string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexRendersForm(t *testing.T) {
	handler := newTestHandler(t, loadedService(t, predictor.Options{}), nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`name="age_at_enrollment"`, `min="15" max="100"`, `max="30"`, `max="20"`, "Predict status"} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
	if strings.Contains(body, "disabled") {
		t.Error("submit disabled with a loaded model")
	}
}

func TestIndexWithoutModelDisablesSubmit(t *testing.T) {
	handler := newTestHandler(t, missingService(t), nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "disabled") || !strings.Contains(body, "model is not loaded") {
		t.Errorf("expected warning and disabled submit, got %s", body)
	}

	rr = postForm(handler, formBody(nil), "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}

func TestFormPredictShowsResult(t *testing.T) {
	handler := newTestHandler(t, loadedService(t, predictor.Options{}), nil)

	rr := postForm(handler, formBody(nil), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-label="Graduate"`) || !strings.Contains(body, "color: green") {
		t.Errorf("missing graduate result in %s", body)
	}
	if !strings.Contains(body, "Model confidence:") || !strings.Contains(body, "predicted to graduate") {
		t.Error("missing confidence or advice")
	}
}

func TestFormPredictIndonesian(t *testing.T) {
	handler := newTestHandler(t, loadedService(t, predictor.Options{}), nil)

	rr := postForm(handler, formBody(map[string]string{
		"tuition_fees_up_to_date": "0",
		"sem1_approved":           "1",
		"sem1_grade":              "3",
		"sem2_approved":           "0",
		"sem2_grade":              "0",
		"age_at_enrollment":       "32",
	}), "id-ID,id;q=0.9")
	body := rr.Body.String()
	if !strings.Contains(body, `data-label="Dropout"`) || !strings.Contains(body, "bimbingan konseling") {
		t.Errorf("expected Indonesian dropout advice in %s", body)
	}
	if !strings.Contains(body, `lang="id"`) {
		t.Error("page language not set")
	}
}

func TestFormPredictValidation(t *testing.T) {
	handler := newTestHandler(t, loadedService(t, predictor.Options{}), nil)

	rr := postForm(handler, formBody(map[string]string{"age_at_enrollment": "101", "sem1_grade": "abc"}), "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "sem1_grade must be a number") {
		t.Error("missing parse error")
	}
	if !strings.Contains(body, `value="abc"`) {
		t.Error("submitted value not re-rendered")
	}

	rr = postForm(handler, formBody(map[string]string{"age_at_enrollment": "101"}), "")
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "age_at_enrollment failed max=100") {
		t.Errorf("expected bound error, got %d", rr.Code)
	}
}

func TestWebSocketPredict(t *testing.T) {
	server := httptest.NewServer(newTestHandler(t, loadedService(t, predictor.Options{}), nil))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	if err := conn.WriteJSON(mltest.HighAchiever()); err != nil {
		t.Fatal(err)
	}
	var reply wsReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "prediction" || reply.Seq != 1 || reply.Prediction == nil || reply.Prediction.Label != "Graduate" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"age_at_enrollment": 3}`)); err != nil {
		t.Fatal(err)
	}
	reply = wsReply{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "error" || reply.Seq != 2 || reply.Error == nil || len(reply.Error.Fields) == 0 {
		t.Fatalf("unexpected error reply %+v", reply)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	reply = wsReply{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "error" || reply.Seq != 3 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

type predictPanickingPredictor struct{ *fakePredictor }

func (predictPanickingPredictor) Predict(context.Context, ml.FeatureRecord) (predictor.Prediction, error) {
	panic("corrupt model")
}

func TestWebSocketClosesAfterPredictPanic(t *testing.T) {
	server := httptest.NewServer(newTestHandler(t, predictPanickingPredictor{&fakePredictor{}}, nil))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(mltest.HighAchiever()); err != nil {
		t.Fatal(err)
	}
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close after panic, got %v", err)
	}
}
