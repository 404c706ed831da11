package http

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"edupredict/advice"
	"edupredict/logging"
	"edupredict/ml"

	"go.uber.org/zap"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// formValues holds the raw submitted strings so the page can be re-rendered
// exactly as the user typed it.
type formValues struct {
	TuitionFees  string
	Scholarship  string
	Sem1Approved string
	Sem1Grade    string
	Sem2Approved string
	Sem2Grade    string
	Age          string
}

func defaultFormValues() formValues {
	return formValues{
		TuitionFees:  "1",
		Scholarship:  "1",
		Sem1Approved: "5",
		Sem1Grade:    "12.0",
		Sem2Approved: "5",
		Sem2Grade:    "12.0",
		Age:          "20",
	}
}

type formResult struct {
	Label      string
	Color      string
	Confidence string
	Advice     advice.Advice
}

type formView struct {
	L         *advice.Localizer
	Available bool
	Values    formValues
	Errors    map[string]string
	Error     string
	Result    *formResult
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formView{
		L:         h.localizer(r),
		Available: h.predictor.Available(),
		Values:    defaultFormValues(),
	})
}

func (h *Handlers) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	view := formView{
		L:         h.localizer(r),
		Available: h.predictor.Available(),
	}
	if !view.Available {
		view.Values = defaultFormValues()
		h.renderForm(w, r, http.StatusServiceUnavailable, view)
		return
	}
	if err := r.ParseForm(); err != nil {
		view.Values = defaultFormValues()
		view.Error = view.L.Text(advice.KeyInvalidInput)
		h.renderForm(w, r, http.StatusBadRequest, view)
		return
	}

	view.Values = formValues{
		TuitionFees:  r.PostFormValue("tuition_fees_up_to_date"),
		Scholarship:  r.PostFormValue("scholarship_holder"),
		Sem1Approved: r.PostFormValue("sem1_approved"),
		Sem1Grade:    r.PostFormValue("sem1_grade"),
		Sem2Approved: r.PostFormValue("sem2_approved"),
		Sem2Grade:    r.PostFormValue("sem2_grade"),
		Age:          r.PostFormValue("age_at_enrollment"),
	}
	record, fieldErrs := parseFormRecord(view.Values)
	if len(fieldErrs) > 0 {
		view.Errors = fieldErrs
		view.Error = view.L.Text(advice.KeyInvalidInput)
		h.renderForm(w, r, http.StatusBadRequest, view)
		return
	}

	resp, err := h.predict(r, record)
	if err != nil {
		status, body := predictionStatus(err)
		switch status {
		case http.StatusBadRequest:
			view.Errors = make(map[string]string, len(body.Fields))
			for _, f := range body.Fields {
				view.Errors[f.Field] = ml.FieldError{Field: f.Field, Rule: f.Rule, Param: f.Param}.String()
			}
			view.Error = view.L.Text(advice.KeyInvalidInput)
		case http.StatusServiceUnavailable:
			view.Available = false
		default:
			logging.FromContext(r.Context(), h.logger).Error("form prediction failed", zap.Error(err))
			view.Error = body.Error
		}
		h.renderForm(w, r, status, view)
		return
	}

	result := &formResult{
		Label:  resp.Label,
		Color:  resp.Advice.Color,
		Advice: resp.Advice,
	}
	if resp.Confidence != nil {
		result.Confidence = view.L.Confidence(*resp.Confidence)
	}
	view.Result = result
	h.renderForm(w, r, http.StatusOK, view)
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, view); err != nil {
		logging.FromContext(r.Context(), h.logger).Error("render form", zap.Error(err))
	}
}

// parseFormRecord converts submitted strings, reporting every field that is
// missing or not a number. Bounds are left to FeatureRecord.Validate.
func parseFormRecord(v formValues) (ml.FeatureRecord, map[string]string) {
	errs := make(map[string]string)
	parseInt := func(field, raw string) int {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs[field] = fmt.Sprintf("%s must be a whole number", field)
		}
		return n
	}
	parseFloat := func(field, raw string) float64 {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs[field] = fmt.Sprintf("%s must be a number", field)
		}
		return f
	}
	record := ml.FeatureRecord{
		TuitionFeesUpToDate: parseInt("tuition_fees_up_to_date", v.TuitionFees),
		ScholarshipHolder:   parseInt("scholarship_holder", v.Scholarship),
		Sem1Approved:        parseInt("sem1_approved", v.Sem1Approved),
		Sem1Grade:           parseFloat("sem1_grade", v.Sem1Grade),
		Sem2Approved:        parseInt("sem2_approved", v.Sem2Approved),
		Sem2Grade:           parseFloat("sem2_grade", v.Sem2Grade),
		AgeAtEnrollment:     parseInt("age_at_enrollment", v.Age),
	}
	return record, errs
}

// decodeRecord reads exactly one JSON FeatureRecord.
func decodeRecord(body io.Reader) (ml.FeatureRecord, error) {
	var record ml.FeatureRecord
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return record, errors.New("empty body")
		}
		return record, err
	}
	if dec.More() {
		return record, errors.New("unexpected data after JSON object")
	}
	return record, nil
}
