package ml

// ClassMetrics are one-vs-rest scores for a single class.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Evaluation struct {
	Accuracy       float64        `json:"accuracy"`
	MacroPrecision float64        `json:"macro_precision"`
	MacroRecall    float64        `json:"macro_recall"`
	MacroF1        float64        `json:"macro_f1"`
	PerClass       []ClassMetrics `json:"per_class"`
	// Confusion[i][j] counts rows of true class i predicted as j.
	Confusion [][]int `json:"confusion"`
	Samples   int     `json:"samples"`
}

func Evaluate(classes []string, actual, predicted []int) Evaluation {
	k := len(classes)
	ev := Evaluation{
		Confusion: make([][]int, k),
		PerClass:  make([]ClassMetrics, k),
		Samples:   len(actual),
	}
	for i := range ev.Confusion {
		ev.Confusion[i] = make([]int, k)
	}
	if len(actual) == 0 {
		for i, c := range classes {
			ev.PerClass[i].Class = c
		}
		return ev
	}

	correct := 0
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a == p {
			correct++
		}
		if a >= 0 && a < k && p >= 0 && p < k {
			ev.Confusion[a][p]++
		}
	}
	ev.Accuracy = float64(correct) / float64(len(actual))

	for c := 0; c < k; c++ {
		tp := ev.Confusion[c][c]
		predictedPositive, actualPositive := 0, 0
		for o := 0; o < k; o++ {
			predictedPositive += ev.Confusion[o][c]
			actualPositive += ev.Confusion[c][o]
		}
		m := ClassMetrics{Class: classes[c], Support: actualPositive}
		if predictedPositive > 0 {
			m.Precision = float64(tp) / float64(predictedPositive)
		}
		if actualPositive > 0 {
			m.Recall = float64(tp) / float64(actualPositive)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		ev.PerClass[c] = m
		ev.MacroPrecision += m.Precision
		ev.MacroRecall += m.Recall
		ev.MacroF1 += m.F1
	}
	if k > 0 {
		ev.MacroPrecision /= float64(k)
		ev.MacroRecall /= float64(k)
		ev.MacroF1 /= float64(k)
	}
	return ev
}
