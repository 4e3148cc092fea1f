package predictor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/abadojack/whatlanggo"
	bluen "github.com/blugelabs/bluge/analysis/lang/en"
	"github.com/jdkato/prose/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Collapse internal control characters except newlines.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// Clitics split off by the tokenizer ("don't" -> "do" "n't").
var cliticStopWords = []string{"n't", "'s", "'m", "'re", "'ve", "'d", "'ll", "’s", "n’t"}

// Modal verbs the snowball list leaves out.
var modalStopWords = []string{"can", "cannot", "will", "shall", "may", "might", "must", "would"}

// Heads the tokenizer leaves behind when it splits "can't", "won't" and "shan't".
var cliticHeads = map[string]string{"ca": "can", "wo": "will", "sha": "shall"}

// Verb tags whose token is an inflected form.
var inflectedVerbTags = map[string]struct{}{
	"VBD": {}, "VBG": {}, "VBN": {}, "VBZ": {},
}

var numberWords = map[string]struct{}{
	"zero": {}, "one": {}, "two": {}, "three": {}, "four": {}, "five": {}, "six": {},
	"seven": {}, "eight": {}, "nine": {}, "ten": {}, "eleven": {}, "twelve": {},
	"thirteen": {}, "fourteen": {}, "fifteen": {}, "sixteen": {}, "seventeen": {},
	"eighteen": {}, "nineteen": {}, "twenty": {}, "thirty": {}, "forty": {}, "fifty": {},
	"sixty": {}, "seventy": {}, "eighty": {}, "ninety": {}, "hundred": {}, "thousand": {},
	"million": {}, "billion": {}, "trillion": {},
}

// Penn Treebank tags the tagger uses for punctuation and brackets.
var punctTags = map[string]struct{}{
	".": {}, ",": {}, ":": {}, "``": {}, "''": {}, "\"": {}, "(": {}, ")": {},
	"-LRB-": {}, "-RRB-": {}, "HYPH": {}, "NFP": {}, "LS": {},
}

var symbolTags = map[string]struct{}{
	"SYM": {}, "#": {}, "$": {},
}

// TextNormalizer lowercases English text, drops stop words, punctuation,
// numerals, brackets and symbols, and reduces the remaining words to their lemma.
// It holds only read-only state after construction.
type TextNormalizer struct {
	model      *prose.Model
	lemmatizer *golem.Lemmatizer
	verbBases  map[string]string
	stopWords  map[string]bool
}

// NewTextNormalizer loads the lemma dictionary and the part-of-speech model once.
func NewTextNormalizer() (*TextNormalizer, error) {
	pack := en.New()
	lemmatizer, err := golem.New(pack)
	if err != nil {
		return nil, fmt.Errorf("load lemma dictionary: %w", err)
	}
	verbBases, err := loadVerbBases(pack, lemmatizer)
	if err != nil {
		return nil, err
	}
	stop := make(map[string]bool)
	for word := range bluen.StopWords() {
		stop[word] = true
	}
	for _, word := range append(cliticStopWords, modalStopWords...) {
		stop[word] = true
	}
	model, err := loadTaggingModel()
	if err != nil {
		return nil, err
	}
	return &TextNormalizer{
		model:      model,
		lemmatizer: lemmatizer,
		verbBases:  verbBases,
		stopWords:  stop,
	}, nil
}

// loadTaggingModel decodes prose's embedded tagger weights. prose panics on a
// corrupt model, so the panic is turned into an error here, at start-up.
func loadTaggingModel() (model *prose.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("load part-of-speech model: %v", r)
		}
	}()
	return prose.ModelFromData("en"), nil
}

// loadVerbBases indexes inflected forms that golem resolves to themselves because
// the same spelling is also a base word ("felt", "found", "left"). golem keeps only
// the first base per spelling, so the verb reading is recovered from the raw dictionary.
func loadVerbBases(pack golem.LanguagePack, lemmatizer *golem.Lemmatizer) (map[string]string, error) {
	data, err := pack.GetResource()
	if err != nil {
		return nil, fmt.Errorf("read lemma dictionary: %w", err)
	}
	bases := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		forms := strings.Split(line, "\t")
		if len(forms) < 2 {
			continue
		}
		base := forms[0]
		for _, form := range forms[1:] {
			if form == base || lemmatizer.LemmaLower(form) != form {
				continue
			}
			if _, seen := bases[form]; !seen {
				bases[form] = base
			}
		}
	}
	return bases, nil
}

// Normalize returns the lemmas of the content words of text, joined by single spaces.
// The result may be empty.
func (n *TextNormalizer) Normalize(text string) (string, error) {
	lowered := cases.Lower(language.English).String(NormalizeText(text))
	if strings.TrimSpace(lowered) == "" {
		return "", nil
	}
	tokens, err := n.tag(lowered)
	if err != nil {
		return "", fmt.Errorf("tag text: %w", err)
	}
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		// The tokenizer keeps "{word}" and "<word>" whole.
		for _, word := range strings.FieldsFunc(tok.Text, isBracket) {
			if n.drop(word, tok.Tag) {
				continue
			}
			lemma := n.lemma(word, tok.Tag)
			if n.stopWords[lemma] || isNumeral(lemma) {
				continue
			}
			kept = append(kept, lemma)
		}
	}
	return strings.Join(kept, " "), nil
}

func (n *TextNormalizer) drop(word, tag string) bool {
	word = strings.TrimSpace(word)
	if word == "" || n.stopWords[word] {
		return true
	}
	if _, ok := punctTags[tag]; ok {
		return true
	}
	if _, ok := symbolTags[tag]; ok {
		return true
	}
	if tag == "CD" || isNumeral(word) {
		return true
	}
	return !strings.ContainsFunc(word, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

func (n *TextNormalizer) lemma(word, tag string) string {
	if head, ok := cliticHeads[word]; ok {
		return head
	}
	if _, ok := inflectedVerbTags[tag]; ok {
		if base, ok := n.verbBases[word]; ok {
			return base
		}
	}
	lemma := strings.TrimSpace(n.lemmatizer.LemmaLower(word))
	if lemma == "" || strings.ContainsFunc(lemma, unicode.IsSpace) {
		return word
	}
	return lemma
}

func (n *TextNormalizer) tag(text string) ([]prose.Token, error) {
	doc, err := prose.NewDocument(text,
		prose.UsingModel(n.model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}
	return doc.Tokens(), nil
}

func isBracket(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '<', '>':
		return true
	}
	return false
}

func isNumeral(word string) bool {
	if _, ok := numberWords[word]; ok {
		return true
	}
	if !strings.ContainsFunc(word, unicode.IsDigit) {
		return false
	}
	clean := strings.NewReplacer(",", "", "_", "").Replace(word)
	if _, err := strconv.ParseFloat(clean, 64); err == nil {
		return true
	}
	if num, den, ok := strings.Cut(clean, "/"); ok {
		_, errNum := strconv.Atoi(num)
		_, errDen := strconv.Atoi(den)
		return errNum == nil && errDen == nil
	}
	return false
}

// DetectLanguage returns the ISO 639-1 code of text when the guess is reliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
