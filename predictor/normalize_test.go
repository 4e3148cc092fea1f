package predictor

import (
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/require"
)

var (
	sharedNormalizer     *TextNormalizer
	sharedNormalizerErr  error
	sharedNormalizerOnce sync.Once
)

func testNormalizer(t *testing.T) *TextNormalizer {
	t.Helper()
	sharedNormalizerOnce.Do(func() {
		sharedNormalizer, sharedNormalizerErr = NewTextNormalizer()
	})
	require.NoError(t, sharedNormalizerErr)
	return sharedNormalizer
}

func TestNormalizeKeepsContentWords(t *testing.T) {
	n := testNormalizer(t)
	out, err := n.Normalize("I feel constantly sad and hopeless")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Subset(t, fields, []string{"feel", "sad", "hopeless"})
	require.NotContains(t, fields, "i")
	require.NotContains(t, fields, "and")
	require.Equal(t, strings.Join(fields, " "), out, "single spaces only")
}

func TestNormalizeLowercasesAndLemmatizes(t *testing.T) {
	n := testNormalizer(t)
	out, err := n.Normalize("My HEADACHES were terrible")
	require.NoError(t, err)
	require.Contains(t, strings.Fields(out), "headache")
	require.Equal(t, strings.ToLower(out), out)
}

func TestNormalizeDropsNumeralsPunctuationAndSymbols(t *testing.T) {
	n := testNormalizer(t)
	out, err := n.Normalize("I slept 3 hours, (maybe 2.5) & lost 10% weight!!! $ # :)")
	require.NoError(t, err)
	for _, field := range strings.Fields(out) {
		require.False(t, strings.ContainsFunc(field, unicode.IsDigit), "numeral kept: %q in %q", field, out)
		require.True(t, strings.ContainsFunc(field, unicode.IsLetter), "non-word kept: %q in %q", field, out)
	}
	require.Contains(t, strings.Fields(out), "weight")
}

func TestNormalizeDropsBrackets(t *testing.T) {
	n := testNormalizer(t)
	out, err := n.Normalize("my head hurts [badly] {really} <very> and I'm anxious (again)")
	require.NoError(t, err)
	require.False(t, strings.ContainsAny(out, "()[]{}<>"), "bracket kept in %q", out)
	fields := strings.Fields(out)
	require.Subset(t, fields, []string{"head", "hurt", "badly", "really", "anxious"})
	require.NotContains(t, fields, "very")
}

func TestNormalizeDropsContractionHeads(t *testing.T) {
	n := testNormalizer(t)
	out, err := n.Normalize("I can't sleep and won't eat")
	require.NoError(t, err)
	require.Equal(t, "sleep eat", out)

	out, err = n.Normalize("I can't sleep and I'm worried; won't eat")
	require.NoError(t, err)
	require.Equal(t, "sleep worry eat", out)
}

func TestNormalizeUsesVerbLemmaForInflectedVerbs(t *testing.T) {
	n := testNormalizer(t)
	out, err := n.Normalize("Since Monday I have felt dizzy")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Contains(t, fields, "feel")
	require.NotContains(t, fields, "felt")

	require.Equal(t, "feel", n.lemma("felt", "VBD"))
	require.Equal(t, "find", n.lemma("found", "VBN"))
	require.Equal(t, "felt", n.lemma("felt", "NN"), "noun reading is kept")
	require.Equal(t, "can", n.lemma("ca", "MD"))
}

func TestNormalizeReusesTaggingModel(t *testing.T) {
	n := testNormalizer(t)
	require.NotNil(t, n.model)

	// Building a tagger decodes its weights and takes hundreds of milliseconds;
	// tagging with the loaded model takes about one.
	start := time.Now()
	for range 25 {
		_, err := n.Normalize("I feel constantly sad and hopeless")
		require.NoError(t, err)
	}
	require.Less(t, time.Since(start), 3*time.Second)
}

func BenchmarkNormalize(b *testing.B) {
	n, err := NewTextNormalizer()
	require.NoError(b, err)
	b.ResetTimer()
	for b.Loop() {
		if _, err := n.Normalize("I feel constantly sad and hopeless"); err != nil {
			b.Fatal(err)
		}
	}
}

func TestNormalizeEmptyResults(t *testing.T) {
	n := testNormalizer(t)
	for _, in := range []string{"", "   ", "and the of", "42 !!! ..."} {
		out, err := n.Normalize(in)
		require.NoError(t, err)
		require.Empty(t, out, "input %q", in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := testNormalizer(t)
	for _, in := range []string{
		"I feel constantly sad and hopeless",
		"My blood pressure was high and I felt dizzy",
		"Always thirsty, tired, and my vision is blurry",
	} {
		once, err := n.Normalize(in)
		require.NoError(t, err)
		twice, err := n.Normalize(once)
		require.NoError(t, err)
		require.Equal(t, once, twice, "input %q", in)
	}
}

func TestIsNumeral(t *testing.T) {
	for _, word := range []string{"3", "2.5", "1,000", "1/2", "twelve", "-4"} {
		require.True(t, isNumeral(word), word)
	}
	for _, word := range []string{"nan", "inf", "sad", "b12", "covid-19", ""} {
		require.False(t, isNumeral(word), word)
	}
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "ABC 12", NormalizeText("  ＡＢＣ １２\u0007 "))
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, "en", DetectLanguage("I have been feeling very tired and thirsty for the last few weeks, and my vision is blurry."))
	require.Empty(t, DetectLanguage(""))
}
