package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taozh/xlfanyi/internal/app/inspect"
	"github.com/taozh/xlfanyi/internal/document/excel"
	"github.com/taozh/xlfanyi/internal/printer"
)

type InspectCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	inputFile string
	format    string
}

// NewInspectCommand returns the inspect command.
func NewInspectCommand(rootCmd *RootCommand, app *kingpin.Application) *InspectCommand {
	c := &InspectCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("inspect", "Describe a workbook's sheets and size.")
	c.Cmd.Arg("file", "Workbook to inspect (.xlsx).").Required().StringVar(&c.inputFile)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c InspectCommand) Name() string { return c.Cmd.FullCommand() }

func (c InspectCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	store, err := excel.NewStore(excel.StoreConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create document store: %w", err)
	}

	svc, err := inspect.NewService(inspect.ServiceConfig{
		Documents: store,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	info, err := svc.Run(ctx, c.inputFile)
	if err != nil {
		return fmt.Errorf("could not inspect workbook: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintWorkbook(c.inputFile, info.Sheets, info.MaxRow); err != nil {
		return fmt.Errorf("could not print workbook info: %w", err)
	}

	return nil
}
