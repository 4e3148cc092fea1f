package predictor

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func newTestTfidf(t *testing.T, artifact TfidfArtifact) *TfidfVectorizer {
	t.Helper()
	v, err := NewTfidfVectorizer(artifact)
	require.NoError(t, err)
	return v
}

func TestTfidfTransformL2(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary: map[string]int{"sad": 0, "hopeless": 1, "thirst": 2},
		IDF:        []float64{1, 1, 1},
	})
	fv, err := v.Transform(context.Background(), "Sad, SAD and hopeless.")
	require.NoError(t, err)
	require.Len(t, fv.Values, 3)
	require.InDelta(t, 2/math.Sqrt(5), fv.Values[0], 1e-6)
	require.InDelta(t, 1/math.Sqrt(5), fv.Values[1], 1e-6)
	require.Zero(t, fv.Values[2])
}

func TestTfidfTransformIdfAndSublinear(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary:  map[string]int{"tired": 0, "sleep": 1},
		IDF:         []float64{2, 1},
		Norm:        "none",
		SublinearTF: true,
	})
	fv, err := v.Transform(context.Background(), "tired tired sleep")
	require.NoError(t, err)
	require.InDelta(t, (1+math.Log(2))*2, fv.Values[0], 1e-6)
	require.InDelta(t, 1.0, fv.Values[1], 1e-6)
}

func TestTfidfTransformBinaryL1(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary: map[string]int{"tired": 0, "sleep": 1},
		UseIDF:     boolPtr(false),
		Norm:       "l1",
		Binary:     true,
	})
	fv, err := v.Transform(context.Background(), "tired tired tired sleep")
	require.NoError(t, err)
	require.InDelta(t, 0.5, fv.Values[0], 1e-6)
	require.InDelta(t, 0.5, fv.Values[1], 1e-6)
}

func TestTfidfTransformBigramsAndStopWords(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary: map[string]int{"blood": 0, "pressure": 1, "blood pressure": 2, "high blood": 3},
		IDF:        []float64{1, 1, 1, 1},
		NgramRange: [2]int{1, 2},
		StopWords:  []string{"high"},
	})
	fv, err := v.Transform(context.Background(), "high blood pressure")
	require.NoError(t, err)
	third := 1 / math.Sqrt(3)
	require.InDelta(t, third, fv.Values[0], 1e-6)
	require.InDelta(t, third, fv.Values[1], 1e-6)
	require.InDelta(t, third, fv.Values[2], 1e-6)
	require.Zero(t, fv.Values[3], "stop words are removed before n-grams are built")
}

func TestTfidfDefaultPatternSkipsSingleCharacters(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary: map[string]int{"a": 0, "café": 1},
		IDF:        []float64{1, 1},
	})
	fv, err := v.Transform(context.Background(), "a Café")
	require.NoError(t, err)
	require.Zero(t, fv.Values[0])
	require.InDelta(t, 1.0, fv.Values[1], 1e-6)
}

func TestTfidfStripAccentsAndCustomPattern(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary:   map[string]int{"cafe": 0, "x": 1},
		IDF:          []float64{1, 1},
		StripAccents: "unicode",
		TokenPattern: `(?u)\b\w+\b`,
		Norm:         "none",
	})
	fv, err := v.Transform(context.Background(), "Café x")
	require.NoError(t, err)
	require.InDelta(t, 1.0, fv.Values[0], 1e-6)
	require.InDelta(t, 1.0, fv.Values[1], 1e-6)
}

func TestTfidfCaptureGroupPattern(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{
		Vocabulary:   map[string]int{"sugar": 0},
		IDF:          []float64{1},
		TokenPattern: `#(\w+)`,
		Norm:         "none",
	})
	fv, err := v.Transform(context.Background(), "#sugar sugar")
	require.NoError(t, err)
	require.InDelta(t, 1.0, fv.Values[0], 1e-6)
}

func TestTfidfEmptyTextIsZeroVector(t *testing.T) {
	v := newTestTfidf(t, TfidfArtifact{Vocabulary: map[string]int{"sad": 0}, IDF: []float64{1}})
	fv, err := v.Transform(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []float32{0}, fv.Values)
}

func TestNewTfidfVectorizerRejectsBadArtifacts(t *testing.T) {
	cases := map[string]TfidfArtifact{
		"empty vocabulary": {},
		"wrong kind":       {Kind: "bert", Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}},
		"index out of range": {
			Vocabulary: map[string]int{"a": 0, "b": 5},
			IDF:        []float64{1, 1},
		},
		"missing idf":   {Vocabulary: map[string]int{"a": 0}},
		"bad norm":      {Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, Norm: "max"},
		"bad ngrams":    {Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, NgramRange: [2]int{2, 1}},
		"bad pattern":   {Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, TokenPattern: `(`},
		"two groups":    {Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, TokenPattern: `(a)(b)`},
		"strip accents": {Vocabulary: map[string]int{"a": 0}, IDF: []float64{1}, StripAccents: "latin"},
	}
	for name, artifact := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTfidfVectorizer(artifact)
			require.Error(t, err)
		})
	}
	_, err := NewTfidfVectorizer(cases["wrong kind"])
	require.ErrorIs(t, err, ErrUnknownVectorizerKind)
}

func TestLoadTfidfVectorizer(t *testing.T) {
	v, err := LoadTfidfVectorizer(filepath.Join("testdata", "vectorizer.json"))
	require.NoError(t, err)
	require.Equal(t, 15, v.Features())

	_, err = LoadTfidfVectorizer(filepath.Join("testdata", "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadTfidfVectorizer(bad)
	require.Error(t, err)
}

func TestTfidfArtifactNullNorm(t *testing.T) {
	var artifact TfidfArtifact
	require.NoError(t, json.Unmarshal([]byte(`{"vocabulary": {"sad": 0, "tired": 1}, "idf": [1, 1], "norm": null, "strip_accents": null}`), &artifact))
	require.Equal(t, "none", artifact.Norm)
	require.Equal(t, map[string]int{"sad": 0, "tired": 1}, artifact.Vocabulary)

	v := newTestTfidf(t, artifact)
	fv, err := v.Transform(context.Background(), "sad sad tired")
	require.NoError(t, err)
	require.InDelta(t, 2.0, fv.Values[0], 1e-6, "no normalization")

	var absent TfidfArtifact
	require.NoError(t, json.Unmarshal([]byte(`{"vocabulary": {"sad": 0}, "idf": [1]}`), &absent))
	require.Empty(t, absent.Norm)
	fv, err = newTestTfidf(t, absent).Transform(context.Background(), "sad sad")
	require.NoError(t, err)
	require.InDelta(t, 1.0, fv.Values[0], 1e-6, "l2 by default")

	var bad TfidfArtifact
	require.Error(t, json.Unmarshal([]byte(`{"norm": 2}`), &bad))
}
