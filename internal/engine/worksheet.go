package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/taozh/xlfanyi/internal/classify"
	"github.com/taozh/xlfanyi/internal/document"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/translate"
)

const (
	maxColumnWidth = 50
	baseRowHeight  = 15
	extraRowHeight = 10
	maxRowHeight   = 100
)

// processSheet runs one worksheet pass: classify each target cell, translate
// the ones that need it, and adjust column widths and row heights afterwards.
// Per-cell failures are absorbed into the task counters; only range
// validation, document errors and aborts fail the pass.
func (e *Engine) processSheet(ctx context.Context, t *model.Task, wb document.Workbook, translator translate.Translator, sheet string) error {
	start, end, err := clampRowRange(wb, sheet, t.Spec.StartRow, t.Spec.EndRow)
	if err != nil {
		return err
	}

	// Running max text length per column, used for the final widths. Every
	// valid target column gets an entry so untouched columns still get the
	// minimum width.
	colWidths := map[int]int{}

	for _, letter := range t.Spec.Columns {
		col, colErr := document.ColumnNumber(letter)
		if colErr != nil {
			e.logger.Warningf("Invalid column %q, skipping", letter)
			continue
		}
		colWidths[col] = 0

		for row := start; row <= end; row++ {
			if abortErr := e.checkAbort(ctx, t.ID); abortErr != nil {
				return abortErr
			}

			text, isText, cellErr := wb.CellText(sheet, col, row)
			if cellErr != nil {
				return cellErr
			}
			trimmed := strings.TrimSpace(text)
			if !isText || trimmed == "" {
				continue
			}

			t.CurrentCell = document.CellName(col, row)

			if classify.IsBilingual(trimmed) {
				if adjusted := classify.NormalizeOrder(trimmed); adjusted != trimmed {
					if setErr := wb.SetCellText(sheet, col, row, adjusted); setErr != nil {
						return setErr
					}
				}
				t.SkippedCells++
				e.updateProgress(ctx, t)
				continue
			}

			translated, trErr := translator.Translate(ctx, trimmed)
			if errors.Is(trErr, translate.ErrRateLimited) {
				t.Message = "rate limit hit, cooling down before retrying"
				e.save(ctx, t)
				if sleepErr := sleep(ctx, e.cooldown); sleepErr != nil {
					return fmt.Errorf("task aborted: %w", sleepErr)
				}

				translated, trErr = translator.Translate(ctx, trimmed)
				if errors.Is(trErr, translate.ErrRateLimited) {
					t.ErrorCells++
					if styleErr := wb.HighlightCell(sheet, col, row); styleErr != nil {
						return styleErr
					}
					e.updateProgress(ctx, t)
					continue
				}
			}

			switch {
			case trErr != nil:
				// Unauthorized or generic failure: counted and marked,
				// not retried.
				e.logger.Warningf("Could not translate cell %s: %s", t.CurrentCell, trErr)
				t.ErrorCells++
				if styleErr := wb.HighlightCell(sheet, col, row); styleErr != nil {
					return styleErr
				}
				e.updateProgress(ctx, t)

			default:
				if setErr := wb.SetCellText(sheet, col, row, translated+"\n"+trimmed); setErr != nil {
					return setErr
				}
				if styleErr := wb.SetCellWrap(sheet, col, row); styleErr != nil {
					return styleErr
				}
				t.TranslatedCells++
				if l := maxRuneLen(trimmed, translated); l > colWidths[col] {
					colWidths[col] = l
				}
				e.updateProgress(ctx, t)
			}

			if sleepErr := sleep(ctx, e.pacing); sleepErr != nil {
				return fmt.Errorf("task aborted: %w", sleepErr)
			}
		}
	}

	for col, maxLen := range colWidths {
		width := math.Min(float64(maxLen)*1.2+5, maxColumnWidth)
		if err := wb.SetColumnWidth(sheet, col, width); err != nil {
			return err
		}
	}

	for row := start; row <= end; row++ {
		maxLines := 1
		for col := range colWidths {
			text, isText, cellErr := wb.CellText(sheet, col, row)
			if cellErr != nil {
				return cellErr
			}
			if !isText {
				continue
			}
			if lines := strings.Count(text, "\n") + 1; lines > maxLines {
				maxLines = lines
			}
		}

		height := math.Min(float64(baseRowHeight+(maxLines-1)*extraRowHeight), maxRowHeight)
		if err := wb.SetRowHeight(sheet, row, height); err != nil {
			return err
		}
	}

	return nil
}

// clampRowRange normalizes the configured row range against the sheet's real
// size: the start row is floored to 1 and the end row defaults to (and is
// capped at) the sheet's last row.
func clampRowRange(wb document.Workbook, sheet string, start, end int) (int, int, error) {
	last, err := wb.LastRow(sheet)
	if err != nil {
		return 0, 0, err
	}
	if last < 1 {
		// An empty sheet still has one addressable row.
		last = 1
	}

	if start < 1 {
		start = 1
	}
	if end == 0 || end > last {
		end = last
	}
	if start > end {
		return 0, 0, fmt.Errorf("start row (%d) greater than end row (%d): %w", start, end, model.ErrNotValid)
	}

	return start, end, nil
}

// checkAbort is the cooperative cancellation point, checked at every row
// boundary: either the context was cancelled or an external actor marked the
// task as failed.
func (e *Engine) checkAbort(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("task aborted: %w", err)
	}

	stored, err := e.repo.GetTask(ctx, taskID)
	if err != nil {
		e.logger.Warningf("Could not check task state: %s", err)
		return nil
	}
	if stored.Status == model.TaskStatusFailed {
		return errors.New("task was marked as failed externally")
	}

	return nil
}

// updateProgress recomputes the progress percentage after a processed cell
// and persists the record so pollers see a fresh snapshot.
func (e *Engine) updateProgress(ctx context.Context, t *model.Task) {
	if t.TotalCells <= 0 {
		return
	}

	old := t.Progress
	p := t.Processed() * 100 / t.TotalCells
	if p > 100 {
		p = 100
	}
	t.Progress = p

	if t.TranslatedCells > 0 || t.SkippedCells > 0 {
		t.Message = fmt.Sprintf("processing worksheet %s | cell %s | translated %d | skipped %d | errors %d",
			t.CurrentSheet, t.CurrentCell, t.TranslatedCells, t.SkippedCells, t.ErrorCells)
	}

	if p < old {
		e.logger.Warningf("Progress went backwards from %d%% to %d%% on task %s", old, p, t.ID)
	}

	e.save(ctx, t)
}

func maxRuneLen(a, b string) int {
	la := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > la {
		return lb
	}
	return la
}
