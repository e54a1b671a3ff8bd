package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/taozh/xlfanyi/internal/model"
)

// TablePrinter prints task information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintList prints tasks in a table format.
func (t *TablePrinter) PrintList(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tSTATUS\tPROGRESS\tFILE\tCREATED")

	// Print rows
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n",
			task.ID, task.Status, task.Progress, task.Spec.InputFile, TimeAgo(task.CreatedAt))
	}

	return nil
}

// PrintStatus prints detailed task status.
func (t *TablePrinter) PrintStatus(task model.Task) error {
	fmt.Fprintf(t.writer, "ID:          %s\n", task.ID)
	fmt.Fprintf(t.writer, "Status:      %s\n", task.Status)
	fmt.Fprintf(t.writer, "Progress:    %d%%\n", task.Progress)
	fmt.Fprintf(t.writer, "Input:       %s\n", task.Spec.InputFile)
	fmt.Fprintf(t.writer, "Columns:     %s\n", strings.Join(task.Spec.Columns, ", "))

	if len(task.Spec.Sheets) > 0 {
		fmt.Fprintf(t.writer, "Sheets:      %s\n", strings.Join(task.Spec.Sheets, ", "))
	}

	fmt.Fprintf(t.writer, "Cells:       %d total, %d translated, %d skipped, %d errors\n",
		task.TotalCells, task.TranslatedCells, task.SkippedCells, task.ErrorCells)

	if task.CurrentSheet != "" {
		fmt.Fprintf(t.writer, "Position:    %s!%s\n", task.CurrentSheet, task.CurrentCell)
	}

	if task.Message != "" {
		fmt.Fprintf(t.writer, "Message:     %s\n", task.Message)
	}

	if task.OutputFile != "" && task.Status == model.TaskStatusCompleted {
		fmt.Fprintf(t.writer, "Output:      %s\n", task.OutputFile)
	}

	fmt.Fprintf(t.writer, "Created:     %s\n", FormatTimestamp(task.CreatedAt))

	if task.StartedAt != nil {
		fmt.Fprintf(t.writer, "Started:     %s\n", FormatTimestamp(*task.StartedAt))
	}

	if task.EndedAt != nil {
		fmt.Fprintf(t.writer, "Ended:       %s\n", FormatTimestamp(*task.EndedAt))
	}

	if task.StartedAt != nil {
		fmt.Fprintf(t.writer, "Elapsed:     %.0fs\n", task.Elapsed(time.Now().UTC()).Seconds())
	}

	return nil
}

// PrintWorkbook prints the sheets and size of an inspected workbook.
func (t *TablePrinter) PrintWorkbook(path string, sheets []string, maxRow int) error {
	fmt.Fprintf(t.writer, "File:        %s\n", path)
	fmt.Fprintf(t.writer, "Sheets:      %s\n", strings.Join(sheets, ", "))
	fmt.Fprintf(t.writer, "Max row:     %d\n", maxRow)
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
