package predictor

import "edupredict/ml"

// State is the outcome of the one-time artifact load. It is either Loaded or
// Unavailable.
type State interface {
	isState()
}

type Loaded struct {
	Artifact *ml.Artifact
	Path     string
}

type Unavailable struct {
	Path   string
	Reason error
}

func (Loaded) isState()      {}
func (Unavailable) isState() {}
