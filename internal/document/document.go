// Package document abstracts the spreadsheet store the translation engine
// mutates: cell text, the two styles the engine applies, column widths, row
// heights and saving.
package document

import (
	"fmt"
	"strings"

	"github.com/taozh/xlfanyi/internal/model"
)

// Workbook is an open spreadsheet document. Implementations are not safe for
// concurrent use; a workbook is owned by a single task execution.
type Workbook interface {
	// SheetNames returns the worksheet names in document order.
	SheetNames() []string
	// LastRow returns the last row with content in the sheet (1-based),
	// zero for an empty sheet.
	LastRow(sheet string) (int, error)
	// CellText returns the cell's text value. isText is false for empty
	// and non-text cells (numbers, dates, booleans, errors).
	CellText(sheet string, col, row int) (text string, isText bool, err error)
	// SetCellText overwrites the cell's value with the given text.
	SetCellText(sheet string, col, row int, value string) error
	// HighlightCell marks a cell with the error style (solid fill plus
	// bold colored font).
	HighlightCell(sheet string, col, row int) error
	// SetCellWrap applies wrapped, top-aligned text styling to a cell.
	SetCellWrap(sheet string, col, row int) error
	// SetColumnWidth sets the width of a column.
	SetColumnWidth(sheet string, col int, width float64) error
	// SetRowHeight sets the height of a row.
	SetRowHeight(sheet string, row int, height float64) error
	// SaveAs writes the document to the given path.
	SaveAs(path string) error
	// Close releases the document resources without saving.
	Close() error
}

// Opener loads a workbook from a file path.
type Opener interface {
	Open(path string) (Workbook, error)
}

// ColumnNumber converts a column letter ("A".."Z", "AA"...) into its 1-based
// column number.
func ColumnNumber(letter string) (int, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return 0, fmt.Errorf("column letter is empty: %w", model.ErrNotValid)
	}

	n := 0
	for _, c := range letter {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q: %w", letter, model.ErrNotValid)
		}
		n = n*26 + int(c-'A'+1)
	}

	return n, nil
}

// ColumnName converts a 1-based column number into its letter form.
func ColumnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// CellName returns the "D2" style address for a 1-based column and row.
func CellName(col, row int) string {
	return fmt.Sprintf("%s%d", ColumnName(col), row)
}
