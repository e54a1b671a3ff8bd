// Package engine implements the translation task engine: a stateful,
// resumable batch processor that walks worksheet cells, drives the remote
// translation service and keeps the task record consistent for pollers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/taozh/xlfanyi/internal/classify"
	"github.com/taozh/xlfanyi/internal/document"
	"github.com/taozh/xlfanyi/internal/log"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/storage"
	"github.com/taozh/xlfanyi/internal/translate"
)

const (
	// defaultPacingDelay is the wait after every translation attempt to
	// stay under the service's request frequency limit.
	defaultPacingDelay = 1500 * time.Millisecond
	// defaultRateLimitCooldown is the wait before the single retry after a
	// rate limited response.
	defaultRateLimitCooldown = 10 * time.Second
)

// TranslatorFactory builds a translator for the given credentials.
type TranslatorFactory func(creds model.Credentials) (translate.Translator, error)

// Config is the configuration for the translation engine.
type Config struct {
	Repository  storage.TaskRepository
	Documents   document.Opener
	Translators TranslatorFactory
	// OutputDir is where translated workbooks are written.
	OutputDir string
	// PacingDelay and RateLimitCooldown override the request pacing,
	// mainly for tests. Zero means the defaults.
	PacingDelay       time.Duration
	RateLimitCooldown time.Duration
	Logger            log.Logger
}

func (c *Config) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Documents == nil {
		return fmt.Errorf("document opener is required")
	}
	if c.Translators == nil {
		return fmt.Errorf("translator factory is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.PacingDelay == 0 {
		c.PacingDelay = defaultPacingDelay
	}
	if c.RateLimitCooldown == 0 {
		c.RateLimitCooldown = defaultRateLimitCooldown
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Engine"})
	return nil
}

// Engine runs translation tasks to completion. A single engine can run many
// tasks, but each task runs on exactly one goroutine at a time.
type Engine struct {
	repo        storage.TaskRepository
	docs        document.Opener
	translators TranslatorFactory
	outputDir   string
	pacing      time.Duration
	cooldown    time.Duration
	logger      log.Logger
}

// New creates a new translation engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		repo:        cfg.Repository,
		docs:        cfg.Documents,
		translators: cfg.Translators,
		outputDir:   cfg.OutputDir,
		pacing:      cfg.PacingDelay,
		cooldown:    cfg.RateLimitCooldown,
		logger:      cfg.Logger,
	}, nil
}

// Run executes the task with the given ID until it reaches a terminal state.
// The task record carries the outcome; the returned error mirrors a failed
// terminal state so synchronous callers can report it. Run never panics.
func (e *Engine) Run(ctx context.Context, taskID string) (err error) {
	logger := e.logger.WithValues(log.Kv{"task": taskID})

	stored, getErr := e.repo.GetTask(ctx, taskID)
	if getErr != nil {
		return fmt.Errorf("could not load task: %w", getErr)
	}
	task := *stored

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Task runner panicked: %v", r)
			e.fail(ctx, &task, fmt.Sprintf("internal error while translating: %v", r))
			err = fmt.Errorf("task failed: internal error: %v", r)
		}
	}()

	now := time.Now().UTC()
	task.StartedAt = &now
	task.Status = model.TaskStatusRunning
	task.Message = "testing translation service connectivity"
	e.save(ctx, &task)

	translator, trErr := e.translators(task.Spec.Credentials)
	if trErr != nil {
		return e.failErr(ctx, &task, fmt.Errorf("could not create translation client: %w", trErr))
	}

	if probeErr := translate.Probe(ctx, translator); probeErr != nil {
		return e.failErr(ctx, &task, fmt.Errorf("translation service check failed: %w", probeErr))
	}

	task.Message = fmt.Sprintf("loading workbook %s", task.Spec.InputFile)
	e.save(ctx, &task)

	wb, openErr := e.docs.Open(task.Spec.InputFile)
	if openErr != nil {
		return e.failErr(ctx, &task, fmt.Errorf("could not load workbook: %w", openErr))
	}
	defer wb.Close()

	sheets := e.resolveSheets(logger, &task, wb)
	if len(sheets) == 0 {
		return e.failErr(ctx, &task, errors.New("no valid worksheets to process"))
	}

	task.Message = "counting cells to translate"
	e.save(ctx, &task)

	translatable, bilingual, scanErr := e.prescan(wb, sheets, task.Spec)
	if scanErr != nil {
		return e.failErr(ctx, &task, fmt.Errorf("could not scan workbook: %w", scanErr))
	}

	task.TotalCells = translatable + bilingual
	task.TranslatedCells = 0
	task.ErrorCells = 0
	task.SkippedCells = 0
	task.Progress = 0

	if task.TotalCells == 0 {
		// Nothing to do, the original file is left untouched.
		task.Progress = 100
		e.complete(ctx, &task, "no content to translate")
		return nil
	}

	task.Message = fmt.Sprintf("found %d cells to translate and %d already bilingual", translatable, bilingual)
	task.OutputFile = e.outputPath(task)
	e.save(ctx, &task)

	for _, sheet := range sheets {
		task.CurrentSheet = sheet
		task.Message = fmt.Sprintf("processing worksheet %s", sheet)
		e.save(ctx, &task)

		if procErr := e.processSheet(ctx, &task, wb, translator, sheet); procErr != nil {
			return e.failErr(ctx, &task, fmt.Errorf("worksheet %s failed: %w", sheet, procErr))
		}
	}

	if saveErr := wb.SaveAs(task.OutputFile); saveErr != nil {
		return e.failErr(ctx, &task, fmt.Errorf("could not save output file: %w", saveErr))
	}

	task.Progress = 100
	e.complete(ctx, &task, "translation finished, file saved")

	logger.Infof("Task completed: %d translated, %d skipped, %d errors",
		task.TranslatedCells, task.SkippedCells, task.ErrorCells)

	return nil
}

// resolveSheets returns the sheets to process: the job's list filtered down
// to the sheets that exist in the workbook, or every sheet when the job
// names none. Unknown sheet names are logged and dropped.
func (e *Engine) resolveSheets(logger log.Logger, t *model.Task, wb document.Workbook) []string {
	all := wb.SheetNames()
	if len(t.Spec.Sheets) == 0 {
		return all
	}

	existing := make(map[string]bool, len(all))
	for _, name := range all {
		existing[name] = true
	}

	var valid []string
	for _, name := range t.Spec.Sheets {
		if !existing[name] {
			logger.Warningf("Worksheet %q does not exist, skipping", name)
			continue
		}
		valid = append(valid, name)
	}

	return valid
}

// prescan walks every requested sheet, column and row without mutating
// anything and counts the cells the main pass will touch.
func (e *Engine) prescan(wb document.Workbook, sheets []string, spec model.JobSpec) (translatable, bilingual int, err error) {
	for _, sheet := range sheets {
		start, end, rangeErr := clampRowRange(wb, sheet, spec.StartRow, spec.EndRow)
		if rangeErr != nil {
			continue
		}

		for _, letter := range spec.Columns {
			col, colErr := document.ColumnNumber(letter)
			if colErr != nil {
				continue
			}

			for row := start; row <= end; row++ {
				text, isText, cellErr := wb.CellText(sheet, col, row)
				if cellErr != nil {
					return 0, 0, cellErr
				}
				trimmed := strings.TrimSpace(text)
				if !isText || trimmed == "" {
					continue
				}

				if classify.IsBilingual(trimmed) {
					bilingual++
				} else {
					translatable++
				}
			}
		}
	}

	return translatable, bilingual, nil
}

func (e *Engine) outputPath(t model.Task) string {
	base := filepath.Base(t.Spec.InputFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	// The task ID keeps output names collision free, unlike a plain
	// second-granularity timestamp.
	return filepath.Join(e.outputDir, fmt.Sprintf("%s_translated_%s.xlsx", base, t.ID))
}

// fail moves the task to its failed terminal state.
func (e *Engine) fail(ctx context.Context, t *model.Task, message string) {
	now := time.Now().UTC()
	t.Status = model.TaskStatusFailed
	t.Message = message
	t.EndedAt = &now
	e.save(context.WithoutCancel(ctx), t)
}

func (e *Engine) failErr(ctx context.Context, t *model.Task, err error) error {
	e.fail(ctx, t, err.Error())
	return fmt.Errorf("task failed: %w", err)
}

// complete moves the task to its completed terminal state.
func (e *Engine) complete(ctx context.Context, t *model.Task, message string) {
	now := time.Now().UTC()
	t.Status = model.TaskStatusCompleted
	t.Message = message
	t.EndedAt = &now
	e.save(context.WithoutCancel(ctx), t)
}

// save persists the task record. Persistence problems are logged, not
// propagated: the in-memory record stays authoritative while running.
func (e *Engine) save(ctx context.Context, t *model.Task) {
	if err := e.repo.UpdateTask(ctx, *t); err != nil {
		e.logger.Warningf("Could not persist task %s: %s", t.ID, err)
	}
}

// sleep waits for d unless the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
