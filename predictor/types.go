package predictor

import (
	"encoding/json"
	"time"
)

// Vectorizer kinds understood by LoadArtifacts.
const (
	VectorizerTfidf     = "tfidf"
	VectorizerTokenizer = "tokenizer"
)

// Classifier kinds understood by LoadArtifacts.
const (
	ClassifierLinear = "linear"
	ClassifierOnnx   = "onnx"
)

// ONNX output kinds.
const (
	OutputLabel  = "label"
	OutputScores = "scores"
)

// Page themes. Both render the same form; they differ only in styling.
const (
	ThemePlain  = "plain"
	ThemeStyled = "styled"
)

// Status describes how a single interaction ended.
type Status string

const (
	// StatusPredicted means the text went through the classifier.
	StatusPredicted Status = "predicted"
	// StatusRejected means the gate refused the input and nothing was classified.
	StatusRejected Status = "rejected"
)

// User-facing warnings.
const (
	WarningEmptyInput      = "Please enter a health description."
	WarningNothingToVector = "Nothing left to classify after cleaning the description. Please add more detail."
)

// Result is the outcome of one interaction. It is never stored.
type Result struct {
	ID              string        `json:"id"`
	Input           string        `json:"input"`
	Text            string        `json:"text"`
	Normalized      bool          `json:"normalized"`
	NormalizedEmpty bool          `json:"normalizedEmpty,omitempty"`
	Status          Status        `json:"status"`
	Warning         string        `json:"warning,omitempty"`
	Code            int           `json:"code"`
	Label           string        `json:"label,omitempty"`
	Language        string        `json:"language,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Predicted reports whether the classifier produced a label for this result.
func (r Result) Predicted() bool {
	return r.Status == StatusPredicted
}

// InputRecord represents a text sample optionally accompanied by metadata.
type InputRecord struct {
	Index string `json:"index,omitempty"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Text  string `json:"text"`
}

// ArtifactConfig locates the vectorizer and classifier artifacts and describes how to run them.
type ArtifactConfig struct {
	VectorizerKind string `json:"vectorizerKind" env:"PREDICTOR_VECTORIZER_KIND" validate:"oneof=tfidf tokenizer"`
	VectorizerPath string `json:"vectorizerPath" env:"PREDICTOR_VECTORIZER_PATH" validate:"required"`
	ClassifierKind string `json:"classifierKind" env:"PREDICTOR_CLASSIFIER_KIND" validate:"oneof=linear onnx"`
	ClassifierPath string `json:"classifierPath" env:"PREDICTOR_CLASSIFIER_PATH" validate:"required"`

	// ONNX runtime settings, used when ClassifierKind is onnx.
	OrtDLL     string `json:"ortDll" env:"PREDICTOR_ORT_DLL"`
	InputName  string `json:"inputName,omitempty" env:"PREDICTOR_ONNX_INPUT"`
	MaskName   string `json:"maskName,omitempty" env:"PREDICTOR_ONNX_MASK"`
	OutputName string `json:"outputName,omitempty" env:"PREDICTOR_ONNX_OUTPUT"`
	OutputKind string `json:"outputKind,omitempty" env:"PREDICTOR_ONNX_OUTPUT_KIND" validate:"omitempty,oneof=label scores"`
	Classes    []int  `json:"classes,omitempty"`

	// MaxSeqLen truncates token sequences from the tokenizer vectorizer.
	MaxSeqLen int `json:"maxSeqLen" env:"PREDICTOR_MAX_SEQ_LEN" validate:"gte=0"`
}

// UIConfig holds cosmetic settings shared by the web and desktop front ends.
type UIConfig struct {
	Theme string `json:"theme" env:"PREDICTOR_THEME" validate:"oneof=plain styled"`
}

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr string `json:"addr" env:"PREDICTOR_ADDR" validate:"required"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Normalize             bool           `json:"normalize" env:"PREDICTOR_NORMALIZE"`
	RejectEmptyNormalized bool           `json:"rejectEmptyNormalized" env:"PREDICTOR_REJECT_EMPTY_NORMALIZED"`
	LogLevel              string         `json:"logLevel" env:"PREDICTOR_LOG_LEVEL" validate:"oneof=debug info warn error"`
	Artifacts             ArtifactConfig `json:"artifacts"`
	UI                    UIConfig       `json:"ui"`
	Server                ServerConfig   `json:"server"`

	// Columns overrides the header names recognized in CSV/TSV input.
	Columns ColumnCandidates `json:"columns"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Artifacts.VectorizerKind == "" {
		c.Artifacts.VectorizerKind = VectorizerTfidf
	}
	if c.Artifacts.VectorizerPath == "" {
		c.Artifacts.VectorizerPath = "artifacts/vectorizer.json"
	}
	if c.Artifacts.ClassifierKind == "" {
		c.Artifacts.ClassifierKind = ClassifierLinear
	}
	if c.Artifacts.ClassifierPath == "" {
		c.Artifacts.ClassifierPath = "artifacts/model.json"
	}
	if c.Artifacts.MaxSeqLen == 0 {
		c.Artifacts.MaxSeqLen = 512
	}
	if c.UI.Theme == "" {
		c.UI.Theme = ThemeStyled
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
}
