package ml

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ColTuitionFees   = "Tuition fees up to date"
	ColScholarship   = "Scholarship holder"
	ColSem1Approved  = "Curricular units 1st sem (approved)"
	ColSem1Grade     = "Curricular units 1st sem (grade)"
	ColSem2Approved  = "Curricular units 2nd sem (approved)"
	ColSem2Grade     = "Curricular units 2nd sem (grade)"
	ColAgeEnrollment = "Age at enrollment"
)

// FeatureRecord is one student as seen by the classifier. Field order matches
// FeatureNames and must not change without retraining.
type FeatureRecord struct {
	TuitionFeesUpToDate int     `json:"tuition_fees_up_to_date" validate:"oneof=0 1"`
	ScholarshipHolder   int     `json:"scholarship_holder" validate:"oneof=0 1"`
	Sem1Approved        int     `json:"sem1_approved" validate:"min=0,max=30"`
	Sem1Grade           float64 `json:"sem1_grade" validate:"min=0,max=20"`
	Sem2Approved        int     `json:"sem2_approved" validate:"min=0,max=30"`
	Sem2Grade           float64 `json:"sem2_grade" validate:"min=0,max=20"`
	AgeAtEnrollment     int     `json:"age_at_enrollment" validate:"min=15,max=100"`
}

var validate = validator.New()

func FeatureNames() []string {
	return []string{
		ColTuitionFees,
		ColScholarship,
		ColSem1Approved,
		ColSem1Grade,
		ColSem2Approved,
		ColSem2Grade,
		ColAgeEnrollment,
	}
}

func NumFeatures() int {
	return len(FeatureNames())
}

func (r FeatureRecord) Vector() []float64 {
	return []float64{
		float64(r.TuitionFeesUpToDate),
		float64(r.ScholarshipHolder),
		float64(r.Sem1Approved),
		r.Sem1Grade,
		float64(r.Sem2Approved),
		r.Sem2Grade,
		float64(r.AgeAtEnrollment),
	}
}

// RecordFromVector is the inverse of Vector. Integer fields are truncated.
func RecordFromVector(v []float64) (FeatureRecord, error) {
	if len(v) != NumFeatures() {
		return FeatureRecord{}, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(v), NumFeatures())
	}
	return FeatureRecord{
		TuitionFeesUpToDate: int(v[0]),
		ScholarshipHolder:   int(v[1]),
		Sem1Approved:        int(v[2]),
		Sem1Grade:           v[3],
		Sem2Approved:        int(v[4]),
		Sem2Grade:           v[5],
		AgeAtEnrollment:     int(v[6]),
	}, nil
}

// FieldError describes a single out-of-bounds field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (e FieldError) String() string {
	if e.Param == "" {
		return fmt.Sprintf("%s failed %s", e.Field, e.Rule)
	}
	return fmt.Sprintf("%s failed %s=%s", e.Field, e.Rule, e.Param)
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid feature record: " + strings.Join(parts, "; ")
}

// Validate reports every out-of-range field. A non-finite grade is reported
// once, as "finite", ahead of the tag failures.
func (r FeatureRecord) Validate() error {
	// min/max comparisons are false for NaN, so non-finite grades pass the
	// struct tags unnoticed.
	out := &ValidationError{}
	flagged := make(map[string]bool, 2)
	for _, g := range []struct {
		field string
		value float64
	}{{"sem1_grade", r.Sem1Grade}, {"sem2_grade", r.Sem2Grade}} {
		if math.IsNaN(g.value) || math.IsInf(g.value, 0) {
			out.Fields = append(out.Fields, FieldError{Field: g.field, Rule: "finite"})
			flagged[g.field] = true
		}
	}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			field := jsonFieldName(fe.StructField())
			if flagged[field] {
				continue
			}
			out.Fields = append(out.Fields, FieldError{Field: field, Rule: fe.Tag(), Param: fe.Param()})
		}
	}
	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

func jsonFieldName(structField string) string {
	switch structField {
	case "TuitionFeesUpToDate":
		return "tuition_fees_up_to_date"
	case "ScholarshipHolder":
		return "scholarship_holder"
	case "Sem1Approved":
		return "sem1_approved"
	case "Sem1Grade":
		return "sem1_grade"
	case "Sem2Approved":
		return "sem2_approved"
	case "Sem2Grade":
		return "sem2_grade"
	case "AgeAtEnrollment":
		return "age_at_enrollment"
	default:
		return structField
	}
}

func sameFeatureNames(names []string) bool {
	want := FeatureNames()
	if len(names) != len(want) {
		return false
	}
	for i := range want {
		if names[i] != want[i] {
			return false
		}
	}
	return true
}
