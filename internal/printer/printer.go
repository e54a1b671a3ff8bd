package printer

import "github.com/taozh/xlfanyi/internal/model"

// Printer knows how to print task information in different formats.
type Printer interface {
	PrintList(tasks []model.Task) error
	PrintStatus(task model.Task) error
	PrintWorkbook(path string, sheets []string, maxRow int) error
	PrintMessage(msg string) error
}
