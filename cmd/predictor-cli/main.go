package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"yashubustudio/healthpredictor/predictor"
)

type cliOptions struct {
	configPath string
	text       string
	inputPath  string
	outputPath string
	outputDir  string
	inputOpts  predictor.InputParseOptions
	normalize  string
	stdout     bool
	noColor    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("predictor-cli: %v", err)
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("predictor-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.text, "text", "", "Single description to classify")
	flag.StringVar(&opts.inputPath, "input", "", "CSV/TSV/text file containing descriptions to classify")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	flag.StringVar(&opts.inputOpts.IndexColumn, "input-index-column", "", "Column name or #index for the record id column")
	flag.StringVar(&opts.inputOpts.TitleColumn, "input-title-column", "", "Column name or #index for the title column")
	flag.StringVar(&opts.inputOpts.BodyColumn, "input-body-column", "", "Column name or #index for the description column")
	flag.StringVar(&opts.inputOpts.TextColumn, "input-text-column", "", "Column name or #index for the fallback text column")
	flag.StringVar(&opts.normalize, "normalize", "", "Override text normalization (true/false)")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print a summary table to STDOUT")
	flag.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s (--text TEXT | --input FILE) [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)

	if opts.inputPath == "" && opts.text == "" {
		flag.Usage()
		return opts, errors.New("one of --text or --input is required")
	}
	if opts.inputPath != "" && opts.text != "" {
		return opts, errors.New("--text and --input are mutually exclusive")
	}
	return opts, nil
}

func run(opts cliOptions, out io.Writer) error {
	if opts.noColor {
		color.Disable()
	}
	cfg, err := predictor.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.normalize != "" {
		on, err := strconv.ParseBool(opts.normalize)
		if err != nil {
			return fmt.Errorf("parse --normalize: %w", err)
		}
		cfg.Normalize = on
	}
	logger, err := predictor.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	service, err := predictor.Open(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("init predictor: %w", err)
	}
	defer service.Close()

	ctx := context.Background()
	if opts.text != "" {
		res, err := service.Predict(ctx, opts.text)
		if err != nil {
			return err
		}
		printResult(out, res)
		return nil
	}

	opts.inputOpts.Candidates = cfg.Columns
	records, err := predictor.ParseInputRecordsWithOptions(opts.inputPath, opts.inputOpts)
	if err != nil {
		return fmt.Errorf("read input records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("input file does not contain any texts")
	}
	results, err := service.PredictAll(ctx, predictor.RecordTexts(records), nil)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := predictor.WriteResultsFile(outputPath, records, results); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %d predictions to %s\n", len(results), outputPath)

	if opts.stdout {
		printSummary(out, records, results)
	}
	return nil
}

func printResult(out io.Writer, res predictor.Result) {
	if !res.Predicted() {
		fmt.Fprintln(out, color.Warn.Render("⚠️ "+res.Warning))
		return
	}
	fmt.Fprintf(out, "🧠 Predicted Condition: %s\n", color.Info.Render(res.Label))
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func printSummary(out io.Writer, records []predictor.InputRecord, results []predictor.Result) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Description", "Condition", "Note"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, rec := range records {
		res := results[i]
		note := ""
		condition := res.Label
		if !res.Predicted() {
			note = color.Warn.Render(res.Warning)
		} else if res.NormalizedEmpty {
			note = "no content words after cleaning"
		}
		table.Append([]string{summarizeIndex(rec, i), summarizeText(rec.Text), condition, note})
	}
	table.Render()

	counts := lo.CountValuesBy(lo.Filter(results, func(r predictor.Result, _ int) bool { return r.Predicted() }),
		func(r predictor.Result) string { return r.Label })
	for _, entry := range predictor.Conditions() {
		fmt.Fprintf(out, "%-22s %d\n", entry.Label, counts[entry.Label])
	}
	if n := counts[predictor.UnknownLabel]; n > 0 {
		fmt.Fprintf(out, "%-22s %d\n", predictor.UnknownLabel, n)
	}
	rejected := lo.CountBy(results, func(r predictor.Result) bool { return !r.Predicted() })
	if rejected > 0 {
		fmt.Fprintln(out, color.Warn.Sprintf("%d descriptions were skipped", rejected))
	}
}

func summarizeIndex(rec predictor.InputRecord, i int) string {
	if idx := strings.TrimSpace(rec.Index); idx != "" {
		return idx
	}
	return strconv.Itoa(i + 1)
}

func summarizeText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "(empty)"
	}
	runes := []rune(text)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return text
}
