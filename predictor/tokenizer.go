package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// TokenizerVectorizer turns text into token ids for sequence classifiers.
type TokenizerVectorizer struct {
	tk        *tokenizer.Tokenizer
	maxSeqLen int
}

// LoadTokenizerVectorizer reads a Hugging Face tokenizer.json.
func LoadTokenizerVectorizer(path string, maxSeqLen int) (*TokenizerVectorizer, error) {
	if path == "" {
		return nil, errors.New("tokenizer path is empty")
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &TokenizerVectorizer{tk: tk, maxSeqLen: maxSeqLen}, nil
}

// Transform encodes text with special tokens, truncated to the configured length.
// Truncation drops tokens from the end of the text but keeps a closing special
// token such as [SEP].
func (v *TokenizerVectorizer) Transform(_ context.Context, text string) (FeatureVector, error) {
	enc, err := v.tk.EncodeSingle(text, true)
	if err != nil {
		return FeatureVector{}, fmt.Errorf("tokenize: %w", err)
	}
	ids := enc.Ids
	mask := enc.AttentionMask
	if v.maxSeqLen > 0 && len(ids) > v.maxSeqLen {
		ids, mask = truncateSequence(ids, mask, enc.SpecialTokenMask, v.maxSeqLen)
	}
	fv := FeatureVector{
		TokenIDs:      make([]int64, len(ids)),
		AttentionMask: make([]int64, len(ids)),
	}
	for i, id := range ids {
		fv.TokenIDs[i] = int64(id)
		if i < len(mask) {
			fv.AttentionMask[i] = int64(mask[i])
		} else {
			fv.AttentionMask[i] = 1
		}
	}
	return fv, nil
}

func truncateSequence(ids, mask, special []int, maxLen int) ([]int, []int) {
	last := len(ids) - 1
	keepLast := maxLen > 1 && last < len(special) && special[last] == 1
	if !keepLast {
		return ids[:maxLen], mask[:min(maxLen, len(mask))]
	}
	outIDs := append(append(make([]int, 0, maxLen), ids[:maxLen-1]...), ids[last])
	outMask := make([]int, 0, maxLen)
	if len(mask) == len(ids) {
		outMask = append(append(outMask, mask[:maxLen-1]...), mask[last])
	}
	return outIDs, outMask
}
