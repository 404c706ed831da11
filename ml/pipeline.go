package ml

// Pipeline standardizes raw feature vectors and hands them to the SVC.
type Pipeline struct {
	Scaler     *StandardScaler `json:"scaler"`
	Classifier *SVC            `json:"classifier"`
}

func NewPipeline(params SVCParams) *Pipeline {
	return &Pipeline{
		Scaler:     NewStandardScaler(),
		Classifier: NewSVC(params),
	}
}

func (p *Pipeline) Fit(features [][]float64, labels []int) error {
	scaled, err := p.Scaler.FitTransform(features)
	if err != nil {
		return err
	}
	return p.Classifier.Fit(scaled, labels)
}

func (p *Pipeline) Predict(features [][]float64) ([]int, error) {
	if p.Scaler == nil || p.Classifier == nil {
		return nil, ErrNotFitted
	}
	scaled, err := p.Scaler.Transform(features)
	if err != nil {
		return nil, err
	}
	return p.Classifier.Predict(scaled)
}

func (p *Pipeline) PredictProba(features [][]float64) ([][]float64, error) {
	if p.Scaler == nil || p.Classifier == nil {
		return nil, ErrNotFitted
	}
	scaled, err := p.Scaler.Transform(features)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictProba(scaled)
}

func (p *Pipeline) SupportsProbability() bool {
	return p.Classifier != nil && p.Classifier.Params.Probability
}
