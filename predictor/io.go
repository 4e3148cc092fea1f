package predictor

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// InputParseOptions chooses which CSV columns map to record fields. Columns are
// named by header or by 1-based "#N" position.
type InputParseOptions struct {
	IndexColumn string
	TitleColumn string
	BodyColumn  string
	TextColumn  string
	Candidates  ColumnCandidates
}

// ParseInputRecords reads a text/CSV/TSV file using automatic column detection.
func ParseInputRecords(path string) ([]InputRecord, error) {
	return ParseInputRecordsWithOptions(path, InputParseOptions{})
}

// ParseInputRecordsWithOptions reads a file. Plain text yields one record per
// non-blank line; CSV and TSV combine title and body columns.
func ParseInputRecordsWithOptions(path string, opts InputParseOptions) ([]InputRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseDelimitedRecords(path, ',', opts)
	case ".tsv":
		return parseDelimitedRecords(path, '\t', opts)
	default:
		return parsePlainTextRecords(path)
	}
}

// RecordTexts returns the text of every record.
func RecordTexts(records []InputRecord) []string {
	return lo.Map(records, func(rec InputRecord, _ int) string { return rec.Text })
}

// SplitLines splits pasted text into trimmed non-blank lines.
func SplitLines(data string) []string {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	return lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		line = cleanCell(line)
		return line, line != ""
	})
}

func parsePlainTextRecords(path string) ([]InputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()
	var out []InputRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, InputRecord{Index: strconv.Itoa(len(out) + 1), Text: line, Body: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text file: %w", err)
	}
	return out, nil
}

func parseDelimitedRecords(path string, comma rune, opts InputParseOptions) ([]InputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := lo.Map(rows[0], func(cell string, _ int) string { return cleanCell(cell) })
	resolved, skipHeader, err := resolveInputColumns(header, opts)
	if err != nil {
		return nil, err
	}
	start := 0
	if skipHeader {
		start = 1
	}
	records := make([]InputRecord, 0, len(rows)-start)
	for _, row := range rows[start:] {
		rec := InputRecord{
			Index: cellAt(row, resolved.Index.Index),
			Title: cellAt(row, resolved.Title.Index),
		}
		body := cellAt(row, resolved.Body.Index)
		text := cellAt(row, resolved.Text.Index)
		if body == "" {
			body = text
		}
		combined := combineParts(rec.Title, body)
		if combined == "" {
			continue
		}
		rec.Body = body
		if rec.Body == "" {
			rec.Body = combined
		}
		rec.Text = combined
		records = append(records, rec)
	}
	return records, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanCell(row[idx])
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}

func findColumn(header []string, candidates []string) int {
	_, idx, ok := lo.FindIndexOf(header, func(col string) bool {
		return lo.ContainsBy(candidates, func(cand string) bool { return strings.EqualFold(col, cand) })
	})
	if !ok {
		return -1
	}
	return idx
}

func combineParts(title, body string) string {
	var parts []string
	if title != "" {
		parts = append(parts, title)
	}
	if body != "" && body != title {
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n")
}

type columnResult struct {
	Index      int
	FromHeader bool
	HeaderName string
}

type resolvedColumns struct {
	Index columnResult
	Title columnResult
	Body  columnResult
	Text  columnResult
}

func resolveInputColumns(header []string, opts InputParseOptions) (resolvedColumns, bool, error) {
	res := resolvedColumns{}
	candidates := opts.Candidates.withDefaults()
	var err error
	if res.Index, err = pickColumn(header, opts.IndexColumn, candidates.Index); err != nil {
		return res, false, err
	}
	if res.Title, err = pickColumn(header, opts.TitleColumn, candidates.Title); err != nil {
		return res, false, err
	}
	if res.Body, err = pickColumn(header, opts.BodyColumn, candidates.Body); err != nil {
		return res, false, err
	}
	if res.Text, err = pickColumn(header, opts.TextColumn, candidates.Text); err != nil {
		return res, false, err
	}
	skipHeader := res.Index.FromHeader || res.Title.FromHeader || res.Body.FromHeader || res.Text.FromHeader
	if !skipHeader && res.Text.Index < 0 && len(header) > 0 {
		res.Text.Index = 0
	}
	for _, c := range []*columnResult{&res.Index, &res.Title, &res.Body, &res.Text} {
		c.HeaderName = headerNameForIndex(header, c.Index, c.FromHeader)
	}
	return res, skipHeader, nil
}

func pickColumn(header []string, explicit string, candidates []string) (columnResult, error) {
	res := columnResult{Index: -1}
	if strings.TrimSpace(explicit) != "" {
		idx, fromHeader, err := matchExplicitColumn(header, explicit)
		if err != nil {
			return res, err
		}
		res.Index = idx
		res.FromHeader = fromHeader
		return res, nil
	}
	if idx := findColumn(header, candidates); idx >= 0 {
		res.Index = idx
		res.FromHeader = true
	}
	return res, nil
}

func matchExplicitColumn(header []string, explicit string) (int, bool, error) {
	trimmed := strings.TrimSpace(explicit)
	for i, col := range header {
		if strings.EqualFold(col, trimmed) {
			return i, true, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, false, err
		}
		if idx >= len(header) {
			return -1, false, fmt.Errorf("column index %s is out of range", trimmed)
		}
		return idx, false, nil
	}
	return -1, false, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}

func headerNameForIndex(header []string, idx int, fromHeader bool) string {
	if idx < 0 {
		return ""
	}
	if fromHeader && idx < len(header) && header[idx] != "" {
		return header[idx]
	}
	return fmt.Sprintf("#%d", idx+1)
}

// SuggestInputColumns returns the header names auto-detection picks for each
// record field. Fields with no matching header are left empty.
func SuggestInputColumns(header []string, candidates ColumnCandidates) InputParseOptions {
	header = lo.Map(header, func(cell string, _ int) string { return cleanCell(cell) })
	resolved, _, err := resolveInputColumns(header, InputParseOptions{Candidates: candidates})
	if err != nil {
		return InputParseOptions{Candidates: candidates}
	}
	fromHeader := func(c columnResult) string {
		if !c.FromHeader {
			return ""
		}
		return c.HeaderName
	}
	return InputParseOptions{
		IndexColumn: fromHeader(resolved.Index),
		TitleColumn: fromHeader(resolved.Title),
		BodyColumn:  fromHeader(resolved.Body),
		TextColumn:  fromHeader(resolved.Text),
		Candidates:  candidates,
	}
}

// ResultHeader is the header row written by WriteResultsCSV.
var ResultHeader = []string{"index", "title", "text", "status", "code", "condition", "warning"}

// WriteResultsCSV writes one row per record. records and results must line up.
func WriteResultsCSV(w io.Writer, records []InputRecord, results []Result) error {
	if len(records) != len(results) {
		return fmt.Errorf("records/results length mismatch: %d vs %d", len(records), len(results))
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(ResultHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		res := results[i]
		body := rec.Body
		if body == "" {
			body = rec.Text
		}
		code := ""
		if res.Predicted() {
			code = strconv.Itoa(res.Code)
		}
		row := []string{rec.Index, rec.Title, body, string(res.Status), code, res.Label, res.Warning}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

// WriteResultsFile writes results to path, creating parent directories.
func WriteResultsFile(path string, records []InputRecord, results []Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := WriteResultsCSV(f, records, results); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}
	return nil
}
