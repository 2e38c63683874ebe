// Package actions implements the file capabilities a form-fill run offers to
// the model. A Registry belongs to exactly one run.
package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

var _ output.FileActions = (*Registry)(nil)

type Config struct {
	// PDFPath is a directory of clinical PDFs, or a single PDF.
	PDFPath   string
	ImagePath string

	DownloadDir     string
	DownloadTimeout time.Duration
}

type uploadKey struct {
	index    int
	category entity.FileCategory
}

// UploadState records the (index, category) pairs uploaded during one run.
type UploadState struct {
	mu   sync.Mutex
	done map[uploadKey]bool
}

func NewUploadState() *UploadState {
	return &UploadState{done: make(map[uploadKey]bool)}
}

func (s *UploadState) Has(index int, category entity.FileCategory) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[uploadKey{index, category}]
}

func (s *UploadState) Mark(index int, category entity.FileCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[uploadKey{index, category}] = true
}

func (s *UploadState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done)
}

type Registry struct {
	browser     output.BrowserPort
	logger      output.LoggerPort
	cfg         Config
	downloadDir string
	uploads     *UploadState
	now         func() time.Time
}

// NewRegistry builds the registry for run runID. Downloads land in
// DownloadDir/runID so concurrent runs never see each other's files.
func NewRegistry(browser output.BrowserPort, logger output.LoggerPort, cfg Config, runID string) *Registry {
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 10 * time.Second
	}
	return &Registry{
		browser:     browser,
		logger:      logger,
		cfg:         cfg,
		downloadDir: filepath.Join(cfg.DownloadDir, filepath.Base(runID)),
		uploads:     NewUploadState(),
		now:         time.Now,
	}
}

func (r *Registry) Uploads() *UploadState { return r.uploads }

func (r *Registry) DownloadDir() string { return r.downloadDir }

func (r *Registry) UploadFile(ctx context.Context, index int, category entity.FileCategory) (*entity.ActionResult, error) {
	if r.uploads.Has(index, category) {
		r.logger.Info("Upload skipped, already done", "index", index, "category", category)
		return &entity.ActionResult{
			Message:     fmt.Sprintf("Files of category %s were already uploaded to element %d. Do not upload them again.", category, index),
			AlreadyDone: true,
		}, nil
	}

	files, err := r.resolve(category)
	if err != nil {
		return nil, &entity.ActionError{Kind: entity.ActionUploadFailed, Index: index, Reason: err.Error()}
	}

	r.logger.Info("Uploading files", "index", index, "category", category, "count", len(files))

	if err := r.browser.UploadFiles(ctx, index, files); err != nil {
		if errors.Is(err, entity.ErrElementNotFound) {
			return nil, &entity.ActionError{Kind: entity.ActionElementNotFound, Index: index, Reason: err.Error()}
		}
		return nil, &entity.ActionError{Kind: entity.ActionUploadFailed, Index: index, Reason: err.Error()}
	}

	r.uploads.Mark(index, category)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	return &entity.ActionResult{
		Message: fmt.Sprintf("Uploaded %d file(s): %s", len(files), strings.Join(names, ", ")),
		Files:   files,
	}, nil
}

// resolve maps category to the files on disk. pdf takes every *.pdf under
// PDFPath; image takes the single configured image.
func (r *Registry) resolve(category entity.FileCategory) ([]string, error) {
	switch category {
	case entity.FileCategoryImage:
		if r.cfg.ImagePath == "" {
			return nil, errors.New("no image path configured")
		}
		fi, err := os.Stat(r.cfg.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("image not found: %w", err)
		}
		if fi.IsDir() {
			return nil, fmt.Errorf("image path %s is a directory", r.cfg.ImagePath)
		}
		return []string{r.cfg.ImagePath}, nil

	default:
		return ListPDFs(r.cfg.PDFPath)
	}
}

// ListPDFs returns the PDFs at path in name order. path may be a single file.
func ListPDFs(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("no pdf path configured")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("pdf path: %w", err)
	}
	if !fi.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil, fmt.Errorf("%s is not a pdf", path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no pdf files in %s", path)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Registry) DownloadFile(ctx context.Context, index int) (*entity.ActionResult, error) {
	if err := os.MkdirAll(r.downloadDir, 0755); err != nil {
		return nil, &entity.ActionError{Kind: entity.ActionDownloadIncomplete, Index: index, Reason: err.Error()}
	}

	// Modification times on some filesystems have one-second granularity.
	started := r.now().Add(-time.Second)

	dlCtx, cancel := context.WithTimeout(ctx, r.cfg.DownloadTimeout)
	defer cancel()

	err := r.browser.DownloadFrom(dlCtx, index, r.downloadDir)
	if errors.Is(err, entity.ErrElementNotFound) {
		return nil, &entity.ActionError{Kind: entity.ActionElementNotFound, Index: index, Reason: err.Error()}
	}
	if err != nil {
		r.logger.Warn("Download did not signal completion", "index", index, "error", err)
	}

	path, ok := NewestSince(r.downloadDir, started)
	if !ok {
		reason := "no new file in " + r.downloadDir
		if err != nil {
			reason += ": " + err.Error()
		}
		return nil, &entity.ActionError{Kind: entity.ActionDownloadIncomplete, Index: index, Reason: reason}
	}

	r.logger.Info("File downloaded", "index", index, "path", path)
	return &entity.ActionResult{Message: "Downloaded file", Files: []string{path}}, nil
}

// NewestSince returns the most recently modified complete file in dir that
// was written at or after since.
func NewestSince(dir string, since time.Time) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var (
		newest   string
		newestAt time.Time
	)
	for _, e := range entries {
		if e.IsDir() || entity.IsPartialDownload(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().Before(since) {
			continue
		}
		if newest == "" || info.ModTime().After(newestAt) {
			newest = filepath.Join(dir, e.Name())
			newestAt = info.ModTime()
		}
	}
	return newest, newest != ""
}
