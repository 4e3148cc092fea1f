package predictor

import (
	"errors"
	"fmt"
	"io"
)

// Artifacts holds the fitted vectorizer and classifier loaded at start-up.
// Both are read-only after loading and safe for concurrent use.
type Artifacts struct {
	Vectorizer Vectorizer
	Classifier Classifier
}

// LoadArtifacts loads the configured vectorizer and classifier pair.
func LoadArtifacts(cfg ArtifactConfig) (*Artifacts, error) {
	var vec Vectorizer
	switch cfg.VectorizerKind {
	case VectorizerTfidf, "":
		v, err := LoadTfidfVectorizer(cfg.VectorizerPath)
		if err != nil {
			return nil, err
		}
		vec = v
	case VectorizerTokenizer:
		v, err := LoadTokenizerVectorizer(cfg.VectorizerPath, cfg.MaxSeqLen)
		if err != nil {
			return nil, err
		}
		vec = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVectorizerKind, cfg.VectorizerKind)
	}

	var clf Classifier
	switch cfg.ClassifierKind {
	case ClassifierLinear, "":
		if cfg.VectorizerKind == VectorizerTokenizer {
			return nil, errors.New("linear classifier needs a tfidf vectorizer")
		}
		c, err := LoadLinearClassifier(cfg.ClassifierPath)
		if err != nil {
			return nil, err
		}
		if tv, ok := vec.(*TfidfVectorizer); ok && tv.Features() != c.Features() {
			return nil, fmt.Errorf("%w: vectorizer has %d features, classifier expects %d",
				ErrFeatureDimension, tv.Features(), c.Features())
		}
		clf = c
	case ClassifierOnnx:
		c, err := NewOrtClassifier(cfg, cfg.VectorizerKind == VectorizerTokenizer)
		if err != nil {
			return nil, err
		}
		clf = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifierKind, cfg.ClassifierKind)
	}
	return &Artifacts{Vectorizer: vec, Classifier: clf}, nil
}

// Close releases any native resources held by the artifacts.
func (a *Artifacts) Close() error {
	if a == nil {
		return nil
	}
	if c, ok := a.Classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
