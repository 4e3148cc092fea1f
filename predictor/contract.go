//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package predictor

import "context"

// FeatureVector is the numeric form of one text. Bag-of-words vectorizers fill
// Values; sequence tokenizers fill TokenIDs and AttentionMask.
type FeatureVector struct {
	Values        []float32
	TokenIDs      []int64
	AttentionMask []int64
}

// Dim returns the length of the populated representation.
func (f FeatureVector) Dim() int {
	if len(f.TokenIDs) > 0 {
		return len(f.TokenIDs)
	}
	return len(f.Values)
}

// Vectorizer turns text into a feature vector.
type Vectorizer interface {
	Transform(ctx context.Context, text string) (FeatureVector, error)
}

// Classifier maps a feature vector to a single class code.
type Classifier interface {
	Predict(ctx context.Context, features FeatureVector) (int, error)
}

// Normalizer cleans text before it reaches the vectorizer.
type Normalizer interface {
	Normalize(text string) (string, error)
}
