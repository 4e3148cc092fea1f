package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownVectorizerKind is returned when the configured vectorizer kind is not supported.
var ErrUnknownVectorizerKind = errors.New("unknown vectorizer kind")

const defaultTokenPattern = `(?u)\b\w\w+\b`

// TfidfArtifact is the JSON export of a fitted scikit-learn TfidfVectorizer or
// CountVectorizer. A CountVectorizer export sets use_idf to false and norm to "none".
type TfidfArtifact struct {
	Kind         string         `json:"kind"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf,omitempty"`
	NgramRange   [2]int         `json:"ngram_range"`
	Lowercase    *bool          `json:"lowercase,omitempty"`
	StripAccents string         `json:"strip_accents,omitempty"`
	TokenPattern string         `json:"token_pattern,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty"`
	Norm         string         `json:"norm,omitempty"`
	UseIDF       *bool          `json:"use_idf,omitempty"`
	SublinearTF  bool           `json:"sublinear_tf,omitempty"`
	Binary       bool           `json:"binary,omitempty"`
}

// UnmarshalJSON reads "norm": null, scikit-learn's norm=None, as "none". An
// absent key keeps the l2 default.
func (a *TfidfArtifact) UnmarshalJSON(data []byte) error {
	type plain TfidfArtifact
	aux := struct {
		*plain
		Norm json.RawMessage `json:"norm"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch norm := bytes.TrimSpace(aux.Norm); {
	case len(norm) == 0:
	case string(norm) == "null":
		a.Norm = "none"
	default:
		if err := json.Unmarshal(norm, &a.Norm); err != nil {
			return fmt.Errorf("decode norm: %w", err)
		}
	}
	return nil
}

// TfidfVectorizer reproduces scikit-learn's bag-of-words transform.
type TfidfVectorizer struct {
	vocabulary   map[string]int
	idf          []float64
	minN, maxN   int
	lowercase    bool
	stripAccents string
	pattern      *regexp.Regexp
	stopWords    map[string]struct{}
	norm         string
	useIDF       bool
	sublinear    bool
	binary       bool
	nFeatures    int
}

// LoadTfidfVectorizer reads a TfidfArtifact from path.
func LoadTfidfVectorizer(path string) (*TfidfVectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer: %w", err)
	}
	var artifact TfidfArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode vectorizer %s: %w", path, err)
	}
	return NewTfidfVectorizer(artifact)
}

// NewTfidfVectorizer validates artifact and builds a vectorizer from it.
func NewTfidfVectorizer(artifact TfidfArtifact) (*TfidfVectorizer, error) {
	if artifact.Kind != "" && artifact.Kind != VectorizerTfidf {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVectorizerKind, artifact.Kind)
	}
	if len(artifact.Vocabulary) == 0 {
		return nil, errors.New("vectorizer vocabulary is empty")
	}
	v := &TfidfVectorizer{
		vocabulary:   artifact.Vocabulary,
		idf:          artifact.IDF,
		minN:         artifact.NgramRange[0],
		maxN:         artifact.NgramRange[1],
		lowercase:    artifact.Lowercase == nil || *artifact.Lowercase,
		stripAccents: artifact.StripAccents,
		norm:         strings.ToLower(artifact.Norm),
		useIDF:       artifact.UseIDF == nil || *artifact.UseIDF,
		sublinear:    artifact.SublinearTF,
		binary:       artifact.Binary,
	}
	if v.minN == 0 && v.maxN == 0 {
		v.minN, v.maxN = 1, 1
	}
	if v.minN < 1 || v.maxN < v.minN {
		return nil, fmt.Errorf("invalid ngram_range %v", artifact.NgramRange)
	}
	if v.norm == "" {
		v.norm = "l2"
	}
	switch v.norm {
	case "l1", "l2", "none":
	default:
		return nil, fmt.Errorf("unsupported norm %q", artifact.Norm)
	}
	switch v.stripAccents {
	case "", "unicode", "ascii":
	default:
		return nil, fmt.Errorf("unsupported strip_accents %q", artifact.StripAccents)
	}

	v.nFeatures = len(artifact.Vocabulary)
	if v.useIDF && len(v.idf) > 0 {
		v.nFeatures = len(v.idf)
	}
	for term, idx := range artifact.Vocabulary {
		if idx < 0 || idx >= v.nFeatures {
			return nil, fmt.Errorf("vocabulary term %q has index %d outside [0,%d)", term, idx, v.nFeatures)
		}
	}
	if v.useIDF && len(v.idf) == 0 {
		return nil, errors.New("use_idf is set but idf weights are missing")
	}

	pattern := artifact.TokenPattern
	if pattern == "" {
		pattern = defaultTokenPattern
	}
	re, err := compileTokenPattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile token_pattern: %w", err)
	}
	if re.NumSubexp() > 1 {
		return nil, fmt.Errorf("token_pattern %q has more than one capturing group", pattern)
	}
	v.pattern = re

	if len(artifact.StopWords) > 0 {
		v.stopWords = make(map[string]struct{}, len(artifact.StopWords))
		for _, w := range artifact.StopWords {
			v.stopWords[w] = struct{}{}
		}
	}
	return v, nil
}

// Features returns the length of the vectors produced by Transform.
func (v *TfidfVectorizer) Features() int {
	return v.nFeatures
}

// Transform converts text into a dense weighted term vector.
func (v *TfidfVectorizer) Transform(_ context.Context, text string) (FeatureVector, error) {
	counts := make(map[int]float64)
	for _, term := range v.analyze(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}
	values := make([]float64, v.nFeatures)
	for idx, tf := range counts {
		switch {
		case v.binary:
			tf = 1
		case v.sublinear:
			tf = 1 + math.Log(tf)
		}
		if v.useIDF {
			tf *= v.idf[idx]
		}
		values[idx] = tf
	}
	normalizeVector(values, v.norm)

	out := make([]float32, len(values))
	for i, x := range values {
		out[i] = float32(x)
	}
	return FeatureVector{Values: out}, nil
}

func (v *TfidfVectorizer) analyze(text string) []string {
	if v.stripAccents != "" {
		text = stripAccents(text, v.stripAccents)
	}
	if v.lowercase {
		text = strings.ToLower(text)
	}
	var tokens []string
	if v.pattern.NumSubexp() == 1 {
		for _, m := range v.pattern.FindAllStringSubmatch(text, -1) {
			tokens = append(tokens, m[1])
		}
	} else {
		tokens = v.pattern.FindAllString(text, -1)
	}
	if v.stopWords != nil {
		kept := tokens[:0]
		for _, t := range tokens {
			if _, stop := v.stopWords[t]; !stop {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}
	return wordNgrams(tokens, v.minN, v.maxN)
}

func wordNgrams(tokens []string, minN, maxN int) []string {
	if maxN == 1 {
		return tokens
	}
	original := tokens
	var out []string
	if minN == 1 {
		out = append(out, original...)
		minN++
	}
	for n := minN; n <= maxN && n <= len(original); n++ {
		for i := 0; i+n <= len(original); i++ {
			out = append(out, strings.Join(original[i:i+n], " "))
		}
	}
	return out
}

func normalizeVector(values []float64, kind string) {
	var total float64
	switch kind {
	case "l2":
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}

func stripAccents(text, mode string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	if mode == "ascii" {
		out = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, out)
	}
	return out
}

// compileTokenPattern translates a Python token pattern into RE2 syntax.
// Python's \w matches Unicode word characters; RE2's is ASCII only.
func compileTokenPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == defaultTokenPattern || pattern == `\b\w\w+\b` {
		return regexp.Compile(`[\p{L}\p{N}_]{2,}`)
	}
	pattern = strings.TrimPrefix(pattern, "(?u)")
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			next := pattern[i+1]
			i++
			if next == 'w' {
				if inClass {
					b.WriteString(`\p{L}\p{N}_`)
				} else {
					b.WriteString(`[\p{L}\p{N}_]`)
				}
				continue
			}
			b.WriteByte(c)
			b.WriteByte(next)
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return regexp.Compile(b.String())
}
