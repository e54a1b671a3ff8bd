// Package excel implements the document interfaces on top of xlsx files
// using excelize.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/taozh/xlfanyi/internal/document"
	"github.com/taozh/xlfanyi/internal/log"
)

// StoreConfig is the configuration for the xlsx document store.
type StoreConfig struct {
	Logger log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "document.Excel"})
	return nil
}

// Store opens xlsx workbooks from disk.
type Store struct {
	logger log.Logger
}

// NewStore creates a new xlsx document store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Store{logger: cfg.Logger}, nil
}

// Open loads a workbook from the given path.
func (s *Store) Open(path string) (document.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open workbook: %w", err)
	}

	s.logger.Debugf("Opened workbook %s", path)

	return NewWorkbook(f), nil
}

// Workbook is an excelize-backed document.Workbook.
type Workbook struct {
	f *excelize.File

	// Lazily created style IDs, zero means not created yet.
	highlightStyle int
	wrapStyle      int
}

// NewWorkbook wraps an already open excelize file.
func NewWorkbook(f *excelize.File) *Workbook {
	return &Workbook{f: f}
}

func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

func (w *Workbook) LastRow(sheet string) (int, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("could not read rows of sheet %q: %w", sheet, err)
	}
	return len(rows), nil
}

func (w *Workbook) CellText(sheet string, col, row int) (string, bool, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false, fmt.Errorf("invalid cell coordinates: %w", err)
	}

	value, err := w.f.GetCellValue(sheet, cell)
	if err != nil {
		return "", false, fmt.Errorf("could not read cell %s: %w", cell, err)
	}
	if value == "" {
		return "", false, nil
	}

	cellType, err := w.f.GetCellType(sheet, cell)
	if err != nil {
		return "", false, fmt.Errorf("could not read cell type of %s: %w", cell, err)
	}

	isText := cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString
	return value, isText, nil
}

func (w *Workbook) SetCellText(sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates: %w", err)
	}

	if err := w.f.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("could not set cell %s: %w", cell, err)
	}

	return nil
}

func (w *Workbook) HighlightCell(sheet string, col, row int) error {
	if w.highlightStyle == 0 {
		style, err := w.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
			Font: &excelize.Font{Color: "FF0000", Bold: true},
		})
		if err != nil {
			return fmt.Errorf("could not create highlight style: %w", err)
		}
		w.highlightStyle = style
	}

	return w.setCellStyle(sheet, col, row, w.highlightStyle)
}

func (w *Workbook) SetCellWrap(sheet string, col, row int) error {
	if w.wrapStyle == 0 {
		style, err := w.f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		})
		if err != nil {
			return fmt.Errorf("could not create wrap style: %w", err)
		}
		w.wrapStyle = style
	}

	return w.setCellStyle(sheet, col, row, w.wrapStyle)
}

func (w *Workbook) setCellStyle(sheet string, col, row, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates: %w", err)
	}

	if err := w.f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return fmt.Errorf("could not style cell %s: %w", cell, err)
	}

	return nil
}

func (w *Workbook) SetColumnWidth(sheet string, col int, width float64) error {
	letter := document.ColumnName(col)
	if err := w.f.SetColWidth(sheet, letter, letter, width); err != nil {
		return fmt.Errorf("could not set width of column %s: %w", letter, err)
	}
	return nil
}

func (w *Workbook) SetRowHeight(sheet string, row int, height float64) error {
	if err := w.f.SetRowHeight(sheet, row, height); err != nil {
		return fmt.Errorf("could not set height of row %d: %w", row, err)
	}
	return nil
}

func (w *Workbook) SaveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save workbook: %w", err)
	}
	return nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}
