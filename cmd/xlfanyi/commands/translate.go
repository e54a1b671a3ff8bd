package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taozh/xlfanyi/internal/app/submit"
	"github.com/taozh/xlfanyi/internal/conventions"
	"github.com/taozh/xlfanyi/internal/document/excel"
	"github.com/taozh/xlfanyi/internal/engine"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/printer"
	storageio "github.com/taozh/xlfanyi/internal/storage/io"
	"github.com/taozh/xlfanyi/internal/storage/sqlite"
	"github.com/taozh/xlfanyi/internal/translate"
	"github.com/taozh/xlfanyi/internal/translate/baidu"
	"github.com/taozh/xlfanyi/internal/utils/file"
)

type TranslateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	inputFile string
	jobFile   string
	sheets    []string
	columns   []string
	startRow  int
	endRow    int
	appID     string
	appKey    string
	outputDir string
	backup    bool
	format    string
}

// NewTranslateCommand returns the translate command.
func NewTranslateCommand(rootCmd *RootCommand, app *kingpin.Application) *TranslateCommand {
	c := &TranslateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("translate", "Translate a workbook and wait for the result.")
	c.Cmd.Arg("file", "Workbook to translate (.xlsx).").StringVar(&c.inputFile)
	c.Cmd.Flag("job", "Load the job from a YAML file instead of flags.").StringVar(&c.jobFile)
	c.Cmd.Flag("sheet", "Worksheet to process (repeatable, defaults to all).").StringsVar(&c.sheets)
	c.Cmd.Flag("column", "Column letter to translate (repeatable).").StringsVar(&c.columns)
	c.Cmd.Flag("start-row", "First row to process.").Default("1").IntVar(&c.startRow)
	c.Cmd.Flag("end-row", "Last row to process (0 means sheet end).").Default("0").IntVar(&c.endRow)
	c.Cmd.Flag("app-id", "Translation API app ID.").Envar("XLFANYI_APP_ID").StringVar(&c.appID)
	c.Cmd.Flag("app-key", "Translation API app key.").Envar("XLFANYI_APP_KEY").StringVar(&c.appKey)
	c.Cmd.Flag("output-dir", "Directory for the translated file (defaults to the data dir).").StringVar(&c.outputDir)
	c.Cmd.Flag("backup", "Copy the input file aside before translating.").BoolVar(&c.backup)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TranslateCommand) Name() string { return c.Cmd.FullCommand() }

func (c TranslateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	spec, err := c.jobSpec(ctx)
	if err != nil {
		return err
	}

	if c.backup {
		backupPath, err := file.BackupCopy(spec.InputFile)
		if err != nil {
			return fmt.Errorf("could not back up input file: %w", err)
		}
		logger.Infof("Input backed up to %s", backupPath)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	// Workbook store.
	store, err := excel.NewStore(excel.StoreConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create document store: %w", err)
	}

	outputDir := c.outputDir
	if outputDir == "" {
		outputDir = conventions.OutputsPath(c.rootCmd.DataDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	// Translation engine.
	eng, err := engine.New(engine.Config{
		Repository: repo,
		Documents:  store,
		Translators: func(creds model.Credentials) (translate.Translator, error) {
			return baidu.NewClient(baidu.ClientConfig{Credentials: creds, Logger: logger})
		},
		OutputDir: outputDir,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	svc, err := submit.NewService(submit.ServiceConfig{
		Repository: repo,
		Runner:     eng,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Submit(ctx, submit.SubmitOptions{Spec: spec, Wait: true})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintStatus(*task); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}

// jobSpec assembles the job from the YAML file or the flags. Flags win over
// the file for credentials so keys can stay out of job files.
func (c TranslateCommand) jobSpec(ctx context.Context) (model.JobSpec, error) {
	if c.jobFile == "" {
		if c.inputFile == "" {
			return model.JobSpec{}, fmt.Errorf("a workbook argument or --job file is required")
		}
		return model.JobSpec{
			InputFile:   c.inputFile,
			Sheets:      c.sheets,
			Columns:     c.columns,
			StartRow:    c.startRow,
			EndRow:      c.endRow,
			Credentials: model.Credentials{AppID: c.appID, AppKey: c.appKey},
		}, nil
	}

	dir, name := filepath.Split(c.jobFile)
	if dir == "" {
		dir = "."
	}

	loader := storageio.NewJobYAMLRepository(os.DirFS(dir))
	spec, err := loader.GetJobSpec(ctx, name)
	if err != nil {
		return model.JobSpec{}, fmt.Errorf("could not load job file: %w", err)
	}

	if c.appID != "" {
		spec.Credentials.AppID = c.appID
	}
	if c.appKey != "" {
		spec.Credentials.AppKey = c.appKey
	}

	return spec, nil
}
