package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/taozh/xlfanyi/internal/app/inspect"
	"github.com/taozh/xlfanyi/internal/app/status"
	"github.com/taozh/xlfanyi/internal/app/submit"
	"github.com/taozh/xlfanyi/internal/conventions"
	"github.com/taozh/xlfanyi/internal/document/excel"
	"github.com/taozh/xlfanyi/internal/engine"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/server"
	"github.com/taozh/xlfanyi/internal/storage/sqlite"
	"github.com/taozh/xlfanyi/internal/translate"
	"github.com/taozh/xlfanyi/internal/translate/baidu"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr string
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Run the translation HTTP service.")
	c.Cmd.Flag("listen", "HTTP listen address.").Default(":5000").StringVar(&c.listenAddr)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

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

	outputDir := conventions.OutputsPath(c.rootCmd.DataDir)
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

	// Application services.
	submitSvc, err := submit.NewService(submit.ServiceConfig{Repository: repo, Runner: eng, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create submit service: %w", err)
	}
	statusSvc, err := status.NewService(status.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create status service: %w", err)
	}
	inspectSvc, err := inspect.NewService(inspect.ServiceConfig{Documents: store, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create inspect service: %w", err)
	}

	srv, err := server.New(server.Config{
		Submit:    submitSvc,
		Status:    statusSvc,
		Inspect:   inspectSvc,
		UploadDir: conventions.UploadsPath(c.rootCmd.DataDir),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    c.listenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warningf("HTTP server shutdown failed: %s", err)
		}
	}()

	logger.Infof("HTTP server listening on %s", c.listenAddr)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}
