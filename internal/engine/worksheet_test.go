package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/taozh/xlfanyi/internal/document"
	"github.com/taozh/xlfanyi/internal/document/excel"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/storage/memory"
	"github.com/taozh/xlfanyi/internal/translate"
	"github.com/taozh/xlfanyi/internal/translate/translatemock"
)

type fixedOpener struct {
	wb document.Workbook
}

func (o fixedOpener) Open(path string) (document.Workbook, error) {
	return o.wb, nil
}

func newInternalEngine(t *testing.T, repo *memory.Repository, wb document.Workbook) *Engine {
	t.Helper()

	eng, err := New(Config{
		Repository: repo,
		Documents:  fixedOpener{wb: wb},
		Translators: func(creds model.Credentials) (translate.Translator, error) {
			return &translatemock.MockTranslator{}, nil
		},
		OutputDir:         t.TempDir(),
		PacingDelay:       time.Nanosecond,
		RateLimitCooldown: time.Nanosecond,
	})
	require.NoError(t, err)

	return eng
}

func TestClampRowRange(t *testing.T) {
	tests := map[string]struct {
		rows     int
		start    int
		end      int
		expStart int
		expEnd   int
		expErr   bool
	}{
		"Defaults cover the whole sheet": {
			rows:     10,
			start:    0,
			end:      0,
			expStart: 1,
			expEnd:   10,
		},
		"An explicit range inside the sheet is kept": {
			rows:     10,
			start:    3,
			end:      7,
			expStart: 3,
			expEnd:   7,
		},
		"An end row beyond the sheet is capped": {
			rows:     5,
			start:    2,
			end:      500,
			expStart: 2,
			expEnd:   5,
		},
		"A start row below one is floored": {
			rows:     5,
			start:    -3,
			end:      4,
			expStart: 1,
			expEnd:   4,
		},
		"An empty sheet still yields a single row range": {
			rows:     0,
			start:    0,
			end:      0,
			expStart: 1,
			expEnd:   1,
		},
		"An inverted range fails": {
			rows:   10,
			start:  5,
			end:    3,
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := excelize.NewFile()
			t.Cleanup(func() { f.Close() })
			if tt.rows > 0 {
				require.NoError(t, f.SetCellValue("Sheet1", document.CellName(1, tt.rows), "内容"))
			}

			start, end, err := clampRowRange(excel.NewWorkbook(f), "Sheet1", tt.start, tt.end)
			if tt.expErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expStart, start)
			assert.Equal(t, tt.expEnd, end)
		})
	}
}

func TestProcessSheetInvertedRange(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.SetCellValue("Sheet1", "D2", "报告问题"))
	wb := excel.NewWorkbook(f)

	eng := newInternalEngine(t, repo, wb)

	task := model.Task{
		ID: "task1",
		Spec: model.JobSpec{
			InputFile:   "cases.xlsx",
			Columns:     []string{"D"},
			StartRow:    5,
			EndRow:      3,
			Credentials: model.Credentials{AppID: "id", AppKey: "key"},
		},
		Status:    model.TaskStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateTask(context.Background(), task))

	translator := &translatemock.MockTranslator{}
	err = eng.processSheet(context.Background(), &task, wb, translator, "Sheet1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotValid))

	// No cell was touched and no counter moved.
	d2, err := f.GetCellValue("Sheet1", "D2")
	require.NoError(t, err)
	assert.Equal(t, "报告问题", d2)
	assert.Equal(t, 0, task.TranslatedCells)
	assert.Equal(t, 0, task.SkippedCells)
	assert.Equal(t, 0, task.ErrorCells)
	translator.AssertNumberOfCalls(t, "Translate", 0)
}

func TestProcessSheetAborts(t *testing.T) {
	newFixture := func(t *testing.T) (*Engine, *memory.Repository, *excel.Workbook, model.Task) {
		t.Helper()

		repo, err := memory.NewRepository(memory.RepositoryConfig{})
		require.NoError(t, err)

		f := excelize.NewFile()
		t.Cleanup(func() { f.Close() })
		require.NoError(t, f.SetCellValue("Sheet1", "D2", "报告问题"))
		wb := excel.NewWorkbook(f)

		task := model.Task{
			ID: "task1",
			Spec: model.JobSpec{
				InputFile:   "cases.xlsx",
				Columns:     []string{"D"},
				StartRow:    2,
				Credentials: model.Credentials{AppID: "id", AppKey: "key"},
			},
			Status:    model.TaskStatusRunning,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.CreateTask(context.Background(), task))

		return newInternalEngine(t, repo, wb), repo, wb, task
	}

	t.Run("A cancelled context should stop the pass", func(t *testing.T) {
		eng, _, wb, task := newFixture(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		translator := &translatemock.MockTranslator{}
		err := eng.processSheet(ctx, &task, wb, translator, "Sheet1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		translator.AssertNumberOfCalls(t, "Translate", 0)
	})

	t.Run("An externally failed task should stop the pass", func(t *testing.T) {
		eng, repo, wb, task := newFixture(t)

		failed := task
		failed.Status = model.TaskStatusFailed
		require.NoError(t, repo.UpdateTask(context.Background(), failed))

		translator := &translatemock.MockTranslator{}
		err := eng.processSheet(context.Background(), &task, wb, translator, "Sheet1")
		require.Error(t, err)
		translator.AssertNumberOfCalls(t, "Translate", 0)
	})
}

func TestProcessSheetLayout(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.SetCellValue("Sheet1", "D2", "报告问题"))
	wb := excel.NewWorkbook(f)

	eng := newInternalEngine(t, repo, wb)

	task := model.Task{
		ID: "task1",
		Spec: model.JobSpec{
			InputFile:   "cases.xlsx",
			Columns:     []string{"D"},
			StartRow:    2,
			Credentials: model.Credentials{AppID: "id", AppKey: "key"},
		},
		Status:     model.TaskStatusRunning,
		TotalCells: 1,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreateTask(context.Background(), task))

	translator := &translatemock.MockTranslator{}
	translator.On("Translate", mock.Anything, "报告问题").Return("Report issue", nil).Once()

	require.NoError(t, eng.processSheet(context.Background(), &task, wb, translator, "Sheet1"))

	assert.Equal(t, 1, task.TranslatedCells)
	assert.Equal(t, 100, task.Progress)

	// The translated column got a computed width and the rewritten row grew
	// to fit the two lines.
	width, err := f.GetColWidth("Sheet1", "D")
	require.NoError(t, err)
	assert.InDelta(t, float64(12)*1.2+5, width, 0.01)

	height, err := f.GetRowHeight("Sheet1", 2)
	require.NoError(t, err)
	assert.InDelta(t, 25, height, 0.01)
}

func TestUpdateProgress(t *testing.T) {
	tests := map[string]struct {
		task        model.Task
		expProgress int
	}{
		"No counted cells should leave progress untouched": {
			task:        model.Task{ID: "task1", TotalCells: 0, Progress: 42},
			expProgress: 42,
		},
		"Halfway through should report fifty percent": {
			task:        model.Task{ID: "task1", TotalCells: 4, TranslatedCells: 1, SkippedCells: 1},
			expProgress: 50,
		},
		"Progress should cap at one hundred": {
			task:        model.Task{ID: "task1", TotalCells: 2, TranslatedCells: 2, SkippedCells: 1},
			expProgress: 100,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(t, err)
			require.NoError(t, repo.CreateTask(context.Background(), tt.task))

			f := excelize.NewFile()
			t.Cleanup(func() { f.Close() })
			eng := newInternalEngine(t, repo, excel.NewWorkbook(f))

			task := tt.task
			eng.updateProgress(context.Background(), &task)
			assert.Equal(t, tt.expProgress, task.Progress)

			// The fresh snapshot is persisted for pollers.
			stored, err := repo.GetTask(context.Background(), task.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.expProgress, stored.Progress)
		})
	}
}
