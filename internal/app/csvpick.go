package app

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"yashubustudio/healthpredictor/predictor"
)

type csvColumnChoice struct {
	Index int
	Label string
}

func readCSVRecords(data []byte, delim rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("the CSV file is empty")
	}
	return records, nil
}

func extractCSVColumn(records [][]string, idx int, hasHeader bool) []string {
	start := 0
	if hasHeader {
		start = 1
	}
	res := make([]string, 0, len(records))
	for _, row := range records[start:] {
		if idx >= len(row) {
			continue
		}
		if val := strings.TrimSpace(row[idx]); val != "" {
			res = append(res, val)
		}
	}
	return res
}

func buildCSVColumnChoices(records [][]string, hasHeader bool) []csvColumnChoice {
	maxCols := lo.Max(lo.Map(records, func(row []string, _ int) int { return len(row) }))
	choices := make([]csvColumnChoice, 0, maxCols)
	for col := 0; col < maxCols; col++ {
		header := fmt.Sprintf("Column %d", col+1)
		if hasHeader && col < len(records[0]) {
			if h := strings.TrimSpace(records[0][col]); h != "" {
				header = h
			}
		}
		label := fmt.Sprintf("[%d] %s", col+1, header)
		if sample := csvColumnSample(records, col, hasHeader); sample != "" {
			label = fmt.Sprintf("%s (e.g. %s)", label, sample)
		}
		choices = append(choices, csvColumnChoice{Index: col, Label: label})
	}
	return choices
}

func csvColumnSample(records [][]string, col int, hasHeader bool) string {
	values := extractCSVColumn(records, col, hasHeader)
	if len(values) == 0 {
		return ""
	}
	return truncateText(values[0], 20)
}

func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

// suggestTextColumn returns the column auto-detection picks for the descriptions
// and whether the first row is a header. Body columns win over text columns.
func suggestTextColumn(header []string, candidates predictor.ColumnCandidates) (int, bool) {
	suggested := predictor.SuggestInputColumns(header, candidates)
	cleaned := lo.Map(header, func(h string, _ int) string {
		return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	})
	for _, name := range []string{suggested.BodyColumn, suggested.TextColumn} {
		if name == "" {
			continue
		}
		if idx := lo.IndexOf(cleaned, name); idx >= 0 {
			return idx, true
		}
	}
	return 0, false
}
