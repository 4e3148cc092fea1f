package predictor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// OrtClassifier runs an ONNX classification model through ONNX Runtime.
type OrtClassifier struct {
	cfg      ArtifactConfig
	session  *ort.DynamicAdvancedSession
	sequence bool
	mu       sync.RWMutex
}

var ortInitMu sync.Mutex

// NewOrtClassifier initializes the runtime and opens the model session. The
// sequence flag selects token-id inputs instead of a dense float vector.
func NewOrtClassifier(cfg ArtifactConfig, sequence bool) (*OrtClassifier, error) {
	cfg = withOnnxDefaults(cfg, sequence)
	if err := initRuntime(cfg.OrtDLL); err != nil {
		return nil, err
	}
	inputs := []string{cfg.InputName}
	if sequence && cfg.MaskName != "" {
		inputs = append(inputs, cfg.MaskName)
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ClassifierPath, inputs, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("open onnx session %s: %w", filepath.Base(cfg.ClassifierPath), err)
	}
	return &OrtClassifier{cfg: cfg, session: session, sequence: sequence}, nil
}

func withOnnxDefaults(cfg ArtifactConfig, sequence bool) ArtifactConfig {
	if cfg.InputName == "" {
		cfg.InputName = "float_input"
		if sequence {
			cfg.InputName = "input_ids"
		}
	}
	if sequence && cfg.MaskName == "" {
		cfg.MaskName = "attention_mask"
	}
	if cfg.OutputKind == "" {
		cfg.OutputKind = OutputLabel
		if sequence {
			cfg.OutputKind = OutputScores
		}
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output_label"
		if cfg.OutputKind == OutputScores {
			cfg.OutputName = "logits"
		}
	}
	return cfg
}

func initRuntime(dll string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if dll != "" {
		ort.SetSharedLibraryPath(dll)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	return nil
}

// Close releases the session. The runtime environment stays up for the process.
func (o *OrtClassifier) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

// Predict runs the model on one feature vector.
func (o *OrtClassifier) Predict(_ context.Context, fv FeatureVector) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.session == nil {
		return 0, errors.New("onnx classifier is closed")
	}
	inputs, err := o.inputs(fv)
	if err != nil {
		return 0, err
	}
	defer destroyValues(inputs)

	outputs := []ort.Value{nil}
	if err := o.session.Run(inputs, outputs); err != nil {
		return 0, fmt.Errorf("run onnx model: %w", err)
	}
	defer destroyValues(outputs)
	return o.decode(outputs[0])
}

func (o *OrtClassifier) inputs(fv FeatureVector) ([]ort.Value, error) {
	if !o.sequence {
		if len(fv.Values) == 0 {
			return nil, fmt.Errorf("%w: onnx model expects a dense vector", ErrFeatureDimension)
		}
		t, err := ort.NewTensor(ort.NewShape(1, int64(len(fv.Values))), fv.Values)
		if err != nil {
			return nil, fmt.Errorf("create input tensor: %w", err)
		}
		return []ort.Value{t}, nil
	}
	if len(fv.TokenIDs) == 0 {
		return nil, fmt.Errorf("%w: onnx model expects token ids", ErrFeatureDimension)
	}
	shape := ort.NewShape(1, int64(len(fv.TokenIDs)))
	ids, err := ort.NewTensor(shape, fv.TokenIDs)
	if err != nil {
		return nil, fmt.Errorf("create ids tensor: %w", err)
	}
	values := []ort.Value{ids}
	if o.cfg.MaskName != "" {
		mask, err := ort.NewTensor(shape, fv.AttentionMask)
		if err != nil {
			ids.Destroy()
			return nil, fmt.Errorf("create mask tensor: %w", err)
		}
		values = append(values, mask)
	}
	return values, nil
}

func (o *OrtClassifier) decode(out ort.Value) (int, error) {
	switch o.cfg.OutputKind {
	case OutputLabel:
		t, ok := out.(*ort.Tensor[int64])
		if !ok {
			return 0, fmt.Errorf("onnx output %q is not an int64 tensor", o.cfg.OutputName)
		}
		data := t.GetData()
		if len(data) == 0 {
			return 0, fmt.Errorf("onnx output %q is empty", o.cfg.OutputName)
		}
		return int(data[0]), nil
	case OutputScores:
		t, ok := out.(*ort.Tensor[float32])
		if !ok {
			return 0, fmt.Errorf("onnx output %q is not a float32 tensor", o.cfg.OutputName)
		}
		return o.mapClass(argmax(t.GetData()))
	default:
		return 0, fmt.Errorf("unsupported onnx output kind %q", o.cfg.OutputKind)
	}
}

func (o *OrtClassifier) mapClass(idx int) (int, error) {
	if idx < 0 {
		return 0, fmt.Errorf("onnx output %q is empty", o.cfg.OutputName)
	}
	if len(o.cfg.Classes) == 0 {
		return idx, nil
	}
	if idx >= len(o.cfg.Classes) {
		return 0, fmt.Errorf("onnx score index %d outside %d classes", idx, len(o.cfg.Classes))
	}
	return o.cfg.Classes[idx], nil
}

func argmax(scores []float32) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			_ = v.Destroy()
		}
	}
}
