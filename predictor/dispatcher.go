package predictor

import (
	"context"
	"errors"
	"fmt"
)

// DispatcherOptions selects how text is prepared before vectorizing.
type DispatcherOptions struct {
	Normalize  bool
	Normalizer Normalizer
}

// Dispatcher feeds text through the vectorizer and classifier.
type Dispatcher struct {
	vectorizer Vectorizer
	classifier Classifier
	opts       DispatcherOptions
}

// NewDispatcher wires a vectorizer and classifier. A normalizer is required when
// Normalize is set.
func NewDispatcher(v Vectorizer, c Classifier, opts DispatcherOptions) (*Dispatcher, error) {
	if v == nil {
		return nil, errors.New("vectorizer is required")
	}
	if c == nil {
		return nil, errors.New("classifier is required")
	}
	if opts.Normalize && opts.Normalizer == nil {
		return nil, errors.New("normalizer is required when normalize is enabled")
	}
	return &Dispatcher{vectorizer: v, classifier: c, opts: opts}, nil
}

// Normalizing reports whether text is normalized before vectorizing.
func (d *Dispatcher) Normalizing() bool {
	return d.opts.Normalize
}

// Prepare returns the text handed to the vectorizer. Without normalization the
// text is passed through untouched.
func (d *Dispatcher) Prepare(text string) (string, error) {
	if !d.opts.Normalize {
		return text, nil
	}
	out, err := d.opts.Normalizer.Normalize(text)
	if err != nil {
		return "", fmt.Errorf("normalize text: %w", err)
	}
	return out, nil
}

// Classify vectorizes prepared text and returns the class code.
func (d *Dispatcher) Classify(ctx context.Context, text string) (int, error) {
	fv, err := d.vectorizer.Transform(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("vectorize text: %w", err)
	}
	code, err := d.classifier.Predict(ctx, fv)
	if err != nil {
		return 0, fmt.Errorf("classify text: %w", err)
	}
	return code, nil
}

// Dispatch prepares and classifies text in one step.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) (int, error) {
	prepared, err := d.Prepare(text)
	if err != nil {
		return 0, err
	}
	return d.Classify(ctx, prepared)
}
