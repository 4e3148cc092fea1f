package predictor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinearClassifierArgmax(t *testing.T) {
	c, err := NewLinearClassifier(LinearArtifact{
		Classes:   []int{0, 1, 2},
		Coef:      [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}},
		Intercept: []float64{0, 0, 0.2},
	})
	require.NoError(t, err)
	ctx := context.Background()

	code, err := c.Predict(ctx, FeatureVector{Values: []float32{1, 0}})
	require.NoError(t, err)
	require.Equal(t, 0, code)

	code, err = c.Predict(ctx, FeatureVector{Values: []float32{0, 1}})
	require.NoError(t, err)
	require.Equal(t, 1, code)

	code, err = c.Predict(ctx, FeatureVector{Values: []float32{0, 0}})
	require.NoError(t, err)
	require.Equal(t, 2, code, "intercept decides an all-zero vector")
}

func TestLinearClassifierTieGoesToFirstClass(t *testing.T) {
	c, err := NewLinearClassifier(LinearArtifact{
		Classes: []int{7, 3},
		Coef:    [][]float64{{1}, {1}},
	})
	require.NoError(t, err)
	code, err := c.Predict(context.Background(), FeatureVector{Values: []float32{1}})
	require.NoError(t, err)
	require.Equal(t, 7, code)
}

func TestLinearClassifierBinary(t *testing.T) {
	c, err := NewLinearClassifier(LinearArtifact{
		Classes:   []int{0, 2},
		Coef:      [][]float64{{1, -1}},
		Intercept: []float64{0},
	})
	require.NoError(t, err)
	ctx := context.Background()

	code, err := c.Predict(ctx, FeatureVector{Values: []float32{1, 0}})
	require.NoError(t, err)
	require.Equal(t, 2, code)

	code, err = c.Predict(ctx, FeatureVector{Values: []float32{0, 1}})
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestLinearClassifierDimensionMismatch(t *testing.T) {
	c, err := NewLinearClassifier(LinearArtifact{Classes: []int{0, 1}, Coef: [][]float64{{1, 2}, {3, 4}}})
	require.NoError(t, err)
	_, err = c.Predict(context.Background(), FeatureVector{Values: []float32{1}})
	require.ErrorIs(t, err, ErrFeatureDimension)
	_, err = c.Predict(context.Background(), FeatureVector{TokenIDs: []int64{101, 102}})
	require.ErrorIs(t, err, ErrFeatureDimension)
}

func TestNewLinearClassifierValidation(t *testing.T) {
	cases := map[string]LinearArtifact{
		"one class":      {Classes: []int{0}, Coef: [][]float64{{1}}},
		"row mismatch":   {Classes: []int{0, 1, 2}, Coef: [][]float64{{1}, {1}}},
		"ragged rows":    {Classes: []int{0, 1}, Coef: [][]float64{{1, 2}, {1}}},
		"empty rows":     {Classes: []int{0, 1}, Coef: [][]float64{{}, {}}},
		"bad intercepts": {Classes: []int{0, 1}, Coef: [][]float64{{1}, {1}}, Intercept: []float64{1}},
		"wrong kind":     {Kind: "tree", Classes: []int{0, 1}, Coef: [][]float64{{1}, {1}}},
	}
	for name, artifact := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLinearClassifier(artifact)
			require.Error(t, err)
		})
	}
	_, err := NewLinearClassifier(cases["wrong kind"])
	require.ErrorIs(t, err, ErrUnknownClassifierKind)
}
