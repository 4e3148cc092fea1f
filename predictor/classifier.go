package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrUnknownClassifierKind is returned when the configured classifier kind is not supported.
	ErrUnknownClassifierKind = errors.New("unknown classifier kind")
	// ErrFeatureDimension is returned when a feature vector does not fit the classifier.
	ErrFeatureDimension = errors.New("feature dimension mismatch")
)

// LinearArtifact is the JSON export of a fitted linear model: one coefficient row per
// class, or a single row for a binary model.
type LinearArtifact struct {
	Kind      string      `json:"kind"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LinearClassifier scores coef·x + intercept and picks the best class.
type LinearClassifier struct {
	classes   []int
	coef      [][]float64
	intercept []float64
	dim       int
}

// LoadLinearClassifier reads a LinearArtifact from path.
func LoadLinearClassifier(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier: %w", err)
	}
	var artifact LinearArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode classifier %s: %w", path, err)
	}
	return NewLinearClassifier(artifact)
}

// NewLinearClassifier validates the artifact shape.
func NewLinearClassifier(artifact LinearArtifact) (*LinearClassifier, error) {
	if artifact.Kind != "" && artifact.Kind != ClassifierLinear {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifierKind, artifact.Kind)
	}
	rows := len(artifact.Coef)
	switch {
	case len(artifact.Classes) < 2:
		return nil, fmt.Errorf("classifier needs at least two classes, got %d", len(artifact.Classes))
	case rows == 1 && len(artifact.Classes) == 2:
	case rows == len(artifact.Classes):
	default:
		return nil, fmt.Errorf("classifier has %d coefficient rows for %d classes", rows, len(artifact.Classes))
	}
	dim := len(artifact.Coef[0])
	if dim == 0 {
		return nil, errors.New("classifier coefficients are empty")
	}
	for i, row := range artifact.Coef {
		if len(row) != dim {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), dim)
		}
	}
	intercept := artifact.Intercept
	switch len(intercept) {
	case 0:
		intercept = make([]float64, rows)
	case rows:
	default:
		return nil, fmt.Errorf("classifier has %d intercepts for %d rows", len(intercept), rows)
	}
	return &LinearClassifier{
		classes:   artifact.Classes,
		coef:      artifact.Coef,
		intercept: intercept,
		dim:       dim,
	}, nil
}

// Features returns the expected feature vector length.
func (c *LinearClassifier) Features() int {
	return c.dim
}

// Predict returns the class code with the highest decision score. Ties go to the
// earlier class.
func (c *LinearClassifier) Predict(_ context.Context, fv FeatureVector) (int, error) {
	if len(fv.Values) != c.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureDimension, len(fv.Values), c.dim)
	}
	if len(c.coef) == 1 {
		if c.score(0, fv.Values) > 0 {
			return c.classes[1], nil
		}
		return c.classes[0], nil
	}
	best := 0
	bestScore := c.score(0, fv.Values)
	for i := 1; i < len(c.coef); i++ {
		if s := c.score(i, fv.Values); s > bestScore {
			best, bestScore = i, s
		}
	}
	return c.classes[best], nil
}

func (c *LinearClassifier) score(row int, x []float32) float64 {
	total := c.intercept[row]
	for j, w := range c.coef[row] {
		if x[j] != 0 {
			total += w * float64(x[j])
		}
	}
	return total
}
