package predictor

// ColumnCandidates lists header names recognized when auto-detecting CSV/TSV columns.
type ColumnCandidates struct {
	Text  []string `json:"text"`
	Title []string `json:"title"`
	Body  []string `json:"body"`
	Index []string `json:"index"`
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Text:  []string{"text", "symptoms", "symptom", "content", "message", "note"},
		Title: []string{"title", "subject", "complaint", "chief_complaint"},
		Body:  []string{"description", "summary", "details", "body", "history"},
		Index: []string{"id", "index", "no", "patient_id", "record_id"},
	}
}

// withDefaults fills nil fields from the built-in candidates.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := DefaultColumnCandidates()
	return ColumnCandidates{
		Text:  pickStrings(c.Text, defaults.Text),
		Title: pickStrings(c.Title, defaults.Title),
		Body:  pickStrings(c.Body, defaults.Body),
		Index: pickStrings(c.Index, defaults.Index),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return fallback
	}
	return custom
}
