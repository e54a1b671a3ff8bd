package inspect_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/taozh/xlfanyi/internal/app/inspect"
	"github.com/taozh/xlfanyi/internal/document"
	"github.com/taozh/xlfanyi/internal/document/excel"
)

type staticOpener struct {
	wb  document.Workbook
	err error
}

func (o staticOpener) Open(path string) (document.Workbook, error) {
	return o.wb, o.err
}

func TestServiceRun(t *testing.T) {
	t.Run("A workbook should be described by sheets, columns and last row", func(t *testing.T) {
		f := excelize.NewFile()
		t.Cleanup(func() { f.Close() })
		_, err := f.NewSheet("用例")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", "D7", "报告问题"))

		svc, err := inspect.NewService(inspect.ServiceConfig{
			Documents: staticOpener{wb: excel.NewWorkbook(f)},
		})
		require.NoError(t, err)

		info, err := svc.Run(context.Background(), "cases.xlsx")
		require.NoError(t, err)

		assert.Equal(t, []string{"Sheet1", "用例"}, info.Sheets)
		assert.Equal(t, 7, info.MaxRow)
		assert.Len(t, info.Columns, 26)
		assert.Equal(t, "A", info.Columns[0])
		assert.Equal(t, "Z", info.Columns[25])
	})

	t.Run("An unreadable workbook should fail", func(t *testing.T) {
		svc, err := inspect.NewService(inspect.ServiceConfig{
			Documents: staticOpener{err: fmt.Errorf("no such file")},
		})
		require.NoError(t, err)

		_, err = svc.Run(context.Background(), "missing.xlsx")
		assert.Error(t, err)
	})
}

func TestNewService(t *testing.T) {
	_, err := inspect.NewService(inspect.ServiceConfig{})
	assert.Error(t, err)
}
