// Package server exposes the translation service over HTTP: workbook
// upload, task submission, progress polling and result download.
package server

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taozh/xlfanyi/internal/app/inspect"
	"github.com/taozh/xlfanyi/internal/app/status"
	"github.com/taozh/xlfanyi/internal/app/submit"
	"github.com/taozh/xlfanyi/internal/log"
	"github.com/taozh/xlfanyi/internal/model"
)

// maxUploadBytes caps workbook uploads at 16MiB.
const maxUploadBytes = 16 << 20

// Config is the configuration for the HTTP server.
type Config struct {
	Submit  *submit.Service
	Status  *status.Service
	Inspect *inspect.Service
	// UploadDir is where uploaded workbooks are stored.
	UploadDir string
	Logger    log.Logger
}

func (c *Config) defaults() error {
	if c.Submit == nil {
		return fmt.Errorf("submit service is required")
	}
	if c.Status == nil {
		return fmt.Errorf("status service is required")
	}
	if c.Inspect == nil {
		return fmt.Errorf("inspect service is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "server.Server"})
	return nil
}

// Server is the translation HTTP API.
type Server struct {
	submit    *submit.Service
	status    *status.Service
	inspect   *inspect.Service
	uploadDir string
	logger    log.Logger
}

// New creates a new HTTP server.
func New(cfg Config) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}

	return &Server{
		submit:    cfg.Submit,
		status:    cfg.Status,
		inspect:   cfg.Inspect,
		uploadDir: cfg.UploadDir,
		logger:    cfg.Logger,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /start_translation", s.handleStart)
	mux.HandleFunc("GET /progress/{id}", s.handleProgress)
	mux.HandleFunc("GET /download/{id}", s.handleDownload)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warningf("Could not write response: %s", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

type uploadResponse struct {
	Filename string   `json:"filename"`
	Sheets   []string `json:"sheets"`
	Columns  []string `json:"columns"`
	MaxRow   int      `json:"max_row"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	src, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing workbook upload in field \"file\"")
		return
	}
	defer src.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		s.writeError(w, http.StatusBadRequest, "only .xlsx files are supported")
		return
	}

	// A ULID prefix keeps concurrent uploads of the same file apart.
	stored := fmt.Sprintf("%s_%s", ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader), name)
	path := filepath.Join(s.uploadDir, stored)

	dst, err := os.Create(path)
	if err != nil {
		s.logger.Errorf("Could not store upload: %s", err)
		s.writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	if _, err := dst.ReadFrom(src); err != nil {
		dst.Close()
		os.Remove(path)
		s.writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if err := dst.Close(); err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	info, err := s.inspect.Run(r.Context(), path)
	if err != nil {
		os.Remove(path)
		s.writeError(w, http.StatusBadRequest, "uploaded file is not a readable workbook")
		return
	}

	s.logger.Infof("Stored upload %s", stored)

	s.writeJSON(w, http.StatusOK, uploadResponse{
		Filename: stored,
		Sheets:   info.Sheets,
		Columns:  info.Columns,
		MaxRow:   info.MaxRow,
	})
}

type startRequest struct {
	Filename string   `json:"filename"`
	Sheets   []string `json:"sheets"`
	Columns  []string `json:"columns"`
	StartRow int      `json:"start_row"`
	EndRow   int      `json:"end_row"`
	AppID    string   `json:"app_id"`
	AppKey   string   `json:"app_key"`
}

type startResponse struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The filename must stay inside the upload directory.
	if req.Filename == "" || filepath.Base(req.Filename) != req.Filename {
		s.writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	task, err := s.submit.Submit(r.Context(), submit.SubmitOptions{
		Spec: model.JobSpec{
			InputFile:   filepath.Join(s.uploadDir, req.Filename),
			Sheets:      req.Sheets,
			Columns:     req.Columns,
			StartRow:    req.StartRow,
			EndRow:      req.EndRow,
			Credentials: model.Credentials{AppID: req.AppID, AppKey: req.AppKey},
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNotValid) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Errorf("Could not submit task: %s", err)
		s.writeError(w, http.StatusInternalServerError, "could not submit task")
		return
	}

	s.writeJSON(w, http.StatusAccepted, startResponse{TaskID: task.ID})
}

type progressResponse struct {
	TaskID          string  `json:"task_id"`
	Status          string  `json:"status"`
	Progress        int     `json:"progress"`
	TotalCells      int     `json:"total_cells"`
	TranslatedCells int     `json:"translated_cells"`
	SkippedCells    int     `json:"skipped_cells"`
	ErrorCells      int     `json:"error_cells"`
	CurrentSheet    string  `json:"current_sheet,omitempty"`
	CurrentCell     string  `json:"current_cell,omitempty"`
	Message         string  `json:"message,omitempty"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	OutputFile      string  `json:"output_file,omitempty"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	task, err := s.status.Run(r.Context(), status.Request{TaskID: r.PathValue("id")})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Errorf("Could not get task: %s", err)
		s.writeError(w, http.StatusInternalServerError, "could not get task")
		return
	}

	resp := progressResponse{
		TaskID:          task.ID,
		Status:          string(task.Status),
		Progress:        task.Progress,
		TotalCells:      task.TotalCells,
		TranslatedCells: task.TranslatedCells,
		SkippedCells:    task.SkippedCells,
		ErrorCells:      task.ErrorCells,
		CurrentSheet:    task.CurrentSheet,
		CurrentCell:     task.CurrentCell,
		Message:         task.Message,
		ElapsedSeconds:  task.Elapsed(time.Now().UTC()).Seconds(),
	}
	if task.Status == model.TaskStatusCompleted {
		resp.OutputFile = filepath.Base(task.OutputFile)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	task, err := s.status.Run(r.Context(), status.Request{TaskID: r.PathValue("id")})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Errorf("Could not get task: %s", err)
		s.writeError(w, http.StatusInternalServerError, "could not get task")
		return
	}

	if task.Status != model.TaskStatusCompleted || task.OutputFile == "" {
		s.writeError(w, http.StatusConflict, "task has no finished output")
		return
	}
	if _, err := os.Stat(task.OutputFile); err != nil {
		s.writeError(w, http.StatusNotFound, "output file is gone")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(task.OutputFile)))
	http.ServeFile(w, r, task.OutputFile)
}
