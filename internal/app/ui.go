package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/healthpredictor/predictor"
)

const logDebounceInterval = 150 * time.Millisecond

// Window copy.
const (
	windowTitle   = "Health Condition Predictor"
	pageTitle     = "🩺 Health Condition Predictor"
	pageSubtitle  = "Describe your symptoms or health issue, and we’ll predict a possible condition."
	inputLabel    = "💬 Describe your current symptoms or health issue:"
	predictLabel  = "🔍 Predict Condition"
	warningPrefix = "⚠️ "
	resultPrefix  = "🧠 Predicted Condition: "
	footerText    = "Built with ❤️ using Go and fyne"
)

type tableColumn struct {
	Title  string
	Width  float32
	Render func(predictor.Result) string
}

type uiState struct {
	service *predictor.Service
	logger  *zap.Logger
	cfg     predictor.Config

	w fyne.Window

	// single prediction
	entry      *widget.Entry
	predictBtn *widget.Button
	result     *widget.Label

	// batch
	input        *widget.Entry
	log          *widget.Entry
	status       *widget.Label
	progress     *widget.ProgressBar
	resTbl       *widget.Table
	columns      []tableColumn
	rows         []predictor.Result
	records      []predictor.InputRecord
	statusBind   binding.String
	logBind      binding.String
	progressBind binding.Float
	logLines     []string
	logMu        sync.Mutex
	logUpdateCh  chan struct{}

	classifyBtn *widget.Button
	exportBtn   *widget.Button
	loadBtn     *widget.Button
}

func buildUI(a fyne.App, svc *predictor.Service, logger *zap.Logger) *uiState {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := &uiState{service: svc, logger: logger, cfg: svc.Config()}
	u.w = a.NewWindow(windowTitle)

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.progressBind = binding.NewFloat()
	u.logBind = binding.NewString()
	u.startLogUpdater()

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Predict", theme.SearchIcon(), u.buildSingle()),
		container.NewTabItemWithIcon("Batch", theme.ListIcon(), u.buildBatch()),
	)
	u.w.SetContent(tabs)
	u.w.Resize(fyne.NewSize(1080, 720))
	return u
}

func (u *uiState) buildSingle() fyne.CanvasObject {
	u.entry = widget.NewMultiLineEntry()
	u.entry.Wrapping = fyne.TextWrapWord
	u.entry.SetMinRowsVisible(6)
	u.result = widget.NewLabel("")
	u.result.Wrapping = fyne.TextWrapWord
	u.predictBtn = widget.NewButtonWithIcon(predictLabel, theme.ConfirmIcon(), func() { u.onPredict() })
	u.predictBtn.Importance = widget.HighImportance

	form := container.NewVBox(
		widget.NewLabelWithStyle(inputLabel, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.entry,
		u.predictBtn,
		u.result,
	)
	if u.cfg.UI.Theme != predictor.ThemeStyled {
		return container.NewPadded(form)
	}
	title := widget.NewLabelWithStyle(pageTitle, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	title.SizeName = theme.SizeNameHeadingText
	subtitle := widget.NewLabelWithStyle(pageSubtitle, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	subtitle.Wrapping = fyne.TextWrapWord
	footer := widget.NewLabelWithStyle(footerText, fyne.TextAlignCenter, fyne.TextStyle{})
	footer.Importance = widget.LowImportance
	return container.NewPadded(container.NewBorder(
		container.NewVBox(title, subtitle, widget.NewSeparator()),
		container.NewVBox(widget.NewSeparator(), footer),
		nil, nil,
		form,
	))
}

// onPredict runs one interaction synchronously and shows the outcome.
func (u *uiState) onPredict() {
	res, err := u.service.Predict(context.Background(), u.entry.Text)
	if err != nil {
		u.result.SetText("")
		dialog.ShowError(err, u.w)
		return
	}
	u.result.SetText(formatResult(res))
}

func formatResult(res predictor.Result) string {
	if !res.Predicted() {
		return warningPrefix + res.Warning
	}
	text := resultPrefix + res.Label
	if res.Language != "" && res.Language != "en" {
		text += fmt.Sprintf("\n(The description looks like %q text; the model was trained on English.)", res.Language)
	}
	return text
}

func (u *uiState) buildBatch() fyne.CanvasObject {
	u.input = widget.NewMultiLineEntry()
	u.input.SetPlaceHolder("One description per line")

	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("Log")
	u.log.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.progress = widget.NewProgressBarWithData(u.progressBind)
	u.progress.Hide()

	u.classifyBtn = widget.NewButtonWithIcon("Predict all", theme.ConfirmIcon(), func() { u.onClassify() })
	u.exportBtn = widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.loadBtn = widget.NewButtonWithIcon("Load file", theme.FolderOpenIcon(), func() { u.onLoadFile() })

	u.columns = makeColumns()
	u.resTbl = widget.NewTable(
		func() (int, int) {
			return len(u.rows) + 1, len(u.columns)
		},
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.Wrapping = fyne.TextWrapWord
			return lbl
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Row == 0 {
				lbl.SetText(u.columns[id.Col].Title)
				lbl.Alignment = fyne.TextAlignCenter
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			lbl.TextStyle = fyne.TextStyle{}
			lbl.Alignment = fyne.TextAlignLeading
			rowIdx := id.Row - 1
			if rowIdx >= len(u.rows) || id.Col >= len(u.columns) {
				lbl.SetText("")
				return
			}
			val := u.columns[id.Col].Render(u.rows[rowIdx])
			lbl.SetText(val)
			if id.Col == 0 {
				need := wrappedHeightFor(val, u.columns[0].Width)
				if need < 32 {
					need = 32
				}
				u.resTbl.SetRowHeight(id.Row, need)
			}
		},
	)
	for i, col := range u.columns {
		u.resTbl.SetColumnWidth(i, col.Width)
	}
	u.resTbl.SetRowHeight(0, 32)

	left := container.NewVBox(
		widget.NewLabelWithStyle("Descriptions", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewStack(u.input),
		container.NewGridWithColumns(3, u.classifyBtn, u.loadBtn, u.exportBtn),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Progress", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.progress,
		u.status,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewStack(u.log),
	)
	split := container.NewHSplit(left, u.resTbl)
	split.Offset = 0.35
	return split
}

func makeColumns() []tableColumn {
	return []tableColumn{
		{Title: "Description", Width: 380, Render: func(r predictor.Result) string { return r.Input }},
		{Title: "Condition", Width: 190, Render: func(r predictor.Result) string {
			if !r.Predicted() {
				return ""
			}
			return r.Label
		}},
		{Title: "Code", Width: 60, Render: func(r predictor.Result) string {
			if !r.Predicted() {
				return ""
			}
			return strconv.Itoa(r.Code)
		}},
		{Title: "Note", Width: 220, Render: func(r predictor.Result) string {
			if r.Warning != "" {
				return r.Warning
			}
			if r.NormalizedEmpty {
				return "no content words left after cleaning"
			}
			return ""
		}},
	}
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.classifyBtn, u.exportBtn, u.loadBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
	})
}

func (u *uiState) appendLog(line string) {
	u.logMu.Lock()
	u.logLines = append(u.logLines, line)
	if len(u.logLines) > 200 {
		u.logLines = u.logLines[len(u.logLines)-200:]
	}
	u.logMu.Unlock()

	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	go u.logUpdateLoop()
}

func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) onClassify() {
	lines := predictor.SplitLines(u.input.Text)
	if len(lines) == 0 {
		dialog.ShowInformation("Info", predictor.WarningEmptyInput, u.w)
		return
	}
	records := make([]predictor.InputRecord, len(lines))
	for i, line := range lines {
		records[i] = predictor.InputRecord{Index: strconv.Itoa(i + 1), Text: line, Body: line}
	}
	total := len(lines)
	fyne.Do(func() {
		u.progress.Min = 0
		u.progress.Max = float64(total)
		u.progress.Show()
	})
	_ = u.progressBind.Set(0)
	u.setStatus("Working...")
	u.setBusy(true)
	u.logger.Info("batch started", zap.Int("count", total))
	start := time.Now()

	go func() {
		rows, err := u.service.PredictAll(context.Background(), lines, func(done, total int) {
			_ = u.progressBind.Set(float64(done))
			u.setStatus(fmt.Sprintf("Working %d/%d", done, total))
		})
		u.setBusy(false)
		fyne.Do(func() { u.progress.Hide() })
		if err != nil {
			fyne.Do(func() { dialog.ShowError(err, u.w) })
			u.setStatus("Error")
			u.logger.Error("batch failed", zap.Error(err))
			return
		}
		fyne.Do(func() {
			u.rows = rows
			u.records = records
			u.resTbl.Refresh()
		})
		elapsed := time.Since(start)
		u.setStatus(fmt.Sprintf("Done: %d in %.1fs", len(rows), elapsed.Seconds()))
		u.logger.Info("batch finished", zap.Int("count", len(rows)), zap.Duration("elapsed", elapsed))
	}()
}

func (u *uiState) onExport() {
	if len(u.rows) == 0 {
		dialog.ShowInformation("Info", "There are no results to export", u.w)
		return
	}
	records, rows := u.records, u.rows
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := predictor.WriteResultsCSV(uc, records, rows); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("exported results", zap.Int("count", len(rows)), zap.String("file", uc.URI().Name()))
	}, u.w)
	fd.SetFileName("predictions.csv")
	fd.Show()
}

func (u *uiState) onLoadFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		uri := rc.URI()
		ext := strings.ToLower(filepath.Ext(uri.Path()))
		if ext == ".csv" || ext == ".tsv" {
			delim := ','
			if ext == ".tsv" {
				delim = '\t'
			}
			records, err := readCSVRecords(data, delim)
			if err != nil {
				dialog.ShowError(err, u.w)
				return
			}
			u.handleCSVRecords(uri, records)
			return
		}
		u.applyLoadedLines(uri, predictor.SplitLines(string(data)))
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".txt", ".csv", ".tsv"}))
	fd.Show()
}

func (u *uiState) applyLoadedLines(uri fyne.URI, lines []string) {
	u.input.SetText(strings.Join(lines, "\n"))
	u.logger.Info("loaded file", zap.String("file", filepath.Base(uri.Path())), zap.Int("count", len(lines)))
}

func (u *uiState) handleCSVRecords(uri fyne.URI, records [][]string) {
	choices := buildCSVColumnChoices(records, false)
	if len(choices) == 0 {
		dialog.ShowError(errors.New("no usable columns found"), u.w)
		return
	}
	defaultCol, hasHeader := suggestTextColumn(records[0], u.cfg.Columns)
	if len(choices) == 1 {
		u.applyLoadedLines(uri, extractCSVColumn(records, defaultCol, hasHeader))
		return
	}
	choices = buildCSVColumnChoices(records, hasHeader)
	options := make([]string, len(choices))
	for i, c := range choices {
		options[i] = c.Label
	}
	selectedCol := choices[defaultCol].Index
	selectWidget := widget.NewSelect(options, func(value string) {
		for i, opt := range options {
			if opt == value {
				selectedCol = choices[i].Index
				return
			}
		}
	})
	selectWidget.SetSelected(options[defaultCol])
	content := container.NewVBox(widget.NewLabel("Choose the column that holds the descriptions"), selectWidget)
	dialog.NewCustomConfirm("Choose column", "Load", "Cancel", content, func(ok bool) {
		if !ok {
			return
		}
		u.applyLoadedLines(uri, extractCSVColumn(records, selectedCol, hasHeader))
	}, u.w).Show()
}

func wrappedHeightFor(text string, colWidth float32) float32 {
	lbl := widget.NewLabel(text)
	lbl.Wrapping = fyne.TextWrapWord
	lbl.Resize(fyne.NewSize(colWidth, 0))
	return lbl.MinSize().Height + 8
}
