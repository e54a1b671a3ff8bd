package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/taozh/xlfanyi/internal/model"
)

// JSONPrinter prints task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a task in the list output (subset of fields).
type listItem struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	InputFile string    `json:"input_file"`
	CreatedAt time.Time `json:"created_at"`
}

// statusOutput represents the full task status output.
type statusOutput struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Progress        int        `json:"progress"`
	InputFile       string     `json:"input_file"`
	Sheets          []string   `json:"sheets,omitempty"`
	Columns         []string   `json:"columns"`
	TotalCells      int        `json:"total_cells"`
	TranslatedCells int        `json:"translated_cells"`
	SkippedCells    int        `json:"skipped_cells"`
	ErrorCells      int        `json:"error_cells"`
	CurrentSheet    string     `json:"current_sheet,omitempty"`
	CurrentCell     string     `json:"current_cell,omitempty"`
	Message         string     `json:"message,omitempty"`
	OutputFile      string     `json:"output_file,omitempty"`
	ElapsedSeconds  float64    `json:"elapsed_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
}

// workbookOutput represents an inspected workbook.
type workbookOutput struct {
	File   string   `json:"file"`
	Sheets []string `json:"sheets"`
	MaxRow int      `json:"max_row"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintList prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintList(tasks []model.Task) error {
	items := make([]listItem, len(tasks))
	for i, task := range tasks {
		items[i] = listItem{
			ID:        task.ID,
			Status:    string(task.Status),
			Progress:  task.Progress,
			InputFile: task.Spec.InputFile,
			CreatedAt: task.CreatedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintStatus prints detailed task status in JSON format.
func (j *JSONPrinter) PrintStatus(task model.Task) error {
	output := statusOutput{
		ID:              task.ID,
		Status:          string(task.Status),
		Progress:        task.Progress,
		InputFile:       task.Spec.InputFile,
		Sheets:          task.Spec.Sheets,
		Columns:         task.Spec.Columns,
		TotalCells:      task.TotalCells,
		TranslatedCells: task.TranslatedCells,
		SkippedCells:    task.SkippedCells,
		ErrorCells:      task.ErrorCells,
		CurrentSheet:    task.CurrentSheet,
		CurrentCell:     task.CurrentCell,
		Message:         task.Message,
		ElapsedSeconds:  task.Elapsed(time.Now().UTC()).Seconds(),
		CreatedAt:       task.CreatedAt.UTC(),
	}

	// The output path is only useful once the file exists.
	if task.Status == model.TaskStatusCompleted {
		output.OutputFile = task.OutputFile
	}

	if task.StartedAt != nil {
		utcTime := task.StartedAt.UTC()
		output.StartedAt = &utcTime
	}

	if task.EndedAt != nil {
		utcTime := task.EndedAt.UTC()
		output.EndedAt = &utcTime
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintWorkbook prints an inspected workbook in JSON format.
func (j *JSONPrinter) PrintWorkbook(path string, sheets []string, maxRow int) error {
	output := workbookOutput{File: path, Sheets: sheets, MaxRow: maxRow}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
