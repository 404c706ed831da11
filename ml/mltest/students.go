// Package mltest generates synthetic student datasets for tests.
package mltest

import (
	"math/rand"

	"edupredict/ml"
)

type profile struct {
	feesPaid   float64
	approved   [2]int
	grade      [2]float64
	age        [2]int
	scholarPct float64
}

var profiles = map[string]profile{
	"Dropout":  {feesPaid: 0.3, approved: [2]int{0, 4}, grade: [2]float64{0, 9}, age: [2]int{20, 40}, scholarPct: 0.05},
	"Enrolled": {feesPaid: 0.9, approved: [2]int{6, 11}, grade: [2]float64{10, 12.5}, age: [2]int{18, 30}, scholarPct: 0.2},
	"Graduate": {feesPaid: 1.0, approved: [2]int{14, 22}, grade: [2]float64{12.5, 16}, age: [2]int{18, 24}, scholarPct: 0.4},
}

// fallback profiles for class names without a dedicated profile, indexed by
// the class position.
var fallback = []profile{
	profiles["Dropout"],
	profiles["Graduate"],
	profiles["Enrolled"],
}

// Students returns n rows cycling through classes, in FeatureNames order.
func Students(n int, seed int64, classes ...string) ([][]float64, []string) {
	rnd := rand.New(rand.NewSource(seed))
	features := make([][]float64, 0, n)
	targets := make([]string, 0, n)
	for i := 0; i < n; i++ {
		class := classes[i%len(classes)]
		p, ok := profiles[class]
		if !ok {
			p = fallback[(i%len(classes))%len(fallback)]
		}
		features = append(features, record(rnd, p).Vector())
		targets = append(targets, class)
	}
	return features, targets
}

func record(rnd *rand.Rand, p profile) ml.FeatureRecord {
	fees := 0
	if rnd.Float64() < p.feesPaid {
		fees = 1
	}
	scholar := 0
	if rnd.Float64() < p.scholarPct {
		scholar = 1
	}
	return ml.FeatureRecord{
		TuitionFeesUpToDate: fees,
		ScholarshipHolder:   scholar,
		Sem1Approved:        between(rnd, p.approved),
		Sem1Grade:           betweenFloat(rnd, p.grade),
		Sem2Approved:        between(rnd, p.approved),
		Sem2Grade:           betweenFloat(rnd, p.grade),
		AgeAtEnrollment:     between(rnd, p.age),
	}
}

func between(rnd *rand.Rand, r [2]int) int {
	return r[0] + rnd.Intn(r[1]-r[0]+1)
}

func betweenFloat(rnd *rand.Rand, r [2]float64) float64 {
	return r[0] + rnd.Float64()*(r[1]-r[0])
}

// HighAchiever is a record every reasonable model should call a graduate.
func HighAchiever() ml.FeatureRecord {
	return ml.FeatureRecord{
		TuitionFeesUpToDate: 1,
		ScholarshipHolder:   0,
		Sem1Approved:        20,
		Sem1Grade:           15.5,
		Sem2Approved:        20,
		Sem2Grade:           15.8,
		AgeAtEnrollment:     19,
	}
}

// AtRisk is a record every reasonable model should call a dropout.
func AtRisk() ml.FeatureRecord {
	return ml.FeatureRecord{
		TuitionFeesUpToDate: 0,
		ScholarshipHolder:   0,
		Sem1Approved:        1,
		Sem1Grade:           3,
		Sem2Approved:        0,
		Sem2Grade:           0,
		AgeAtEnrollment:     32,
	}
}
