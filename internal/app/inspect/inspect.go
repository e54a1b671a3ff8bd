package inspect

import (
	"context"
	"fmt"

	"github.com/taozh/xlfanyi/internal/document"
	"github.com/taozh/xlfanyi/internal/log"
)

// maxSuggestedColumns caps the column suggestions at A-Z.
const maxSuggestedColumns = 26

// ServiceConfig is the configuration for the inspect service.
type ServiceConfig struct {
	Documents document.Opener
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Documents == nil {
		return fmt.Errorf("document opener is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service describes workbooks so callers can pick sheets, columns and row
// ranges before submitting a translation.
type Service struct {
	docs   document.Opener
	logger log.Logger
}

// NewService creates a new inspect service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		docs:   cfg.Documents,
		logger: cfg.Logger,
	}, nil
}

// Info is the description of a workbook: its sheets, the column letters of
// the first sheet (capped at A-Z) and that sheet's last row.
type Info struct {
	Sheets  []string `json:"sheets"`
	Columns []string `json:"columns"`
	MaxRow  int      `json:"max_row"`
}

// Run opens the workbook at path and describes it.
func (s *Service) Run(ctx context.Context, path string) (*Info, error) {
	wb, err := s.docs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.SheetNames()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}

	maxRow, err := wb.LastRow(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("could not read worksheet %q: %w", sheets[0], err)
	}

	columns := make([]string, 0, maxSuggestedColumns)
	for col := 1; col <= maxSuggestedColumns; col++ {
		columns = append(columns, document.ColumnName(col))
	}

	s.logger.Debugf("inspected %s: %d sheets, max row %d", path, len(sheets), maxRow)

	return &Info{
		Sheets:  sheets,
		Columns: columns,
		MaxRow:  maxRow,
	}, nil
}
