package actions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/logger"
	"pa-agent/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func setup(t *testing.T) (*testutil.FakeBrowser, Config) {
	t.Helper()
	dir := t.TempDir()
	pdfDir := filepath.Join(dir, "pdf")
	require.NoError(t, os.Mkdir(pdfDir, 0755))
	writeFile(t, filepath.Join(pdfDir, "b_labs.pdf"))
	writeFile(t, filepath.Join(pdfDir, "a_notes.PDF"))
	writeFile(t, filepath.Join(pdfDir, "readme.txt"))
	img := filepath.Join(dir, "card.png")
	writeFile(t, img)

	b := testutil.NewFakeBrowser()
	b.Elements = []entity.UIElement{{Index: 0, Tag: "button"}, {Index: 1, Tag: "input", Type: "file"}}

	return b, Config{
		PDFPath:         pdfDir,
		ImagePath:       img,
		DownloadDir:     filepath.Join(dir, "downloads"),
		DownloadTimeout: 200 * time.Millisecond,
	}
}

func TestUploadFile_PDFCategory(t *testing.T) {
	b, cfg := setup(t)
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	res, err := r.UploadFile(context.Background(), 1, entity.FileCategoryPDF)
	require.NoError(t, err)

	assert.Equal(t, "Uploaded 2 file(s): a_notes.PDF, b_labs.pdf", res.Message)
	assert.Len(t, res.Files, 2)
	assert.False(t, res.AlreadyDone)
	assert.True(t, r.Uploads().Has(1, entity.FileCategoryPDF))
}

func TestUploadFile_SecondCallIsNoop(t *testing.T) {
	b, cfg := setup(t)
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")
	ctx := context.Background()

	_, err := r.UploadFile(ctx, 1, entity.FileCategoryPDF)
	require.NoError(t, err)

	res, err := r.UploadFile(ctx, 1, entity.FileCategoryPDF)
	require.NoError(t, err)
	assert.True(t, res.AlreadyDone)
	assert.Contains(t, res.Message, "already uploaded")

	uploads := 0
	for _, c := range b.CallLog() {
		if strings.HasPrefix(c, "upload ") {
			uploads++
		}
	}
	assert.Equal(t, 1, uploads, "browser upload happens at most once per (index, category)")
}

func TestUploadFile_DistinctPairsBothUpload(t *testing.T) {
	b, cfg := setup(t)
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")
	ctx := context.Background()

	_, err := r.UploadFile(ctx, 1, entity.FileCategoryPDF)
	require.NoError(t, err)
	res, err := r.UploadFile(ctx, 1, entity.FileCategoryImage)
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.ImagePath}, res.Files)
	res, err = r.UploadFile(ctx, 0, entity.FileCategoryPDF)
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone)

	assert.Equal(t, 3, r.Uploads().Len())
}

func TestUploadFile_StateIsPerRegistry(t *testing.T) {
	b, cfg := setup(t)
	ctx := context.Background()

	_, err := NewRegistry(b, logger.NewNop(), cfg, "PA-1").UploadFile(ctx, 1, entity.FileCategoryPDF)
	require.NoError(t, err)

	res, err := NewRegistry(b, logger.NewNop(), cfg, "PA-1").UploadFile(ctx, 1, entity.FileCategoryPDF)
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone)
}

func TestUploadFile_ElementNotFound(t *testing.T) {
	b, cfg := setup(t)
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	_, err := r.UploadFile(context.Background(), 5, entity.FileCategoryPDF)

	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, entity.ActionElementNotFound, actionErr.Kind)
	assert.Equal(t, 5, actionErr.Index)
	assert.False(t, r.Uploads().Has(5, entity.FileCategoryPDF))
}

func TestUploadFile_BrowserFailure(t *testing.T) {
	b, cfg := setup(t)
	b.UploadFn = func(ctx context.Context, index int, files []string) error {
		return errors.New("file chooser never opened")
	}
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	_, err := r.UploadFile(context.Background(), 1, entity.FileCategoryPDF)

	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, entity.ActionUploadFailed, actionErr.Kind)
	assert.Contains(t, actionErr.Reason, "never opened")
	assert.Equal(t, 0, r.Uploads().Len(), "failed uploads are not recorded")
}

func TestUploadFile_NoFiles(t *testing.T) {
	b, cfg := setup(t)
	cfg.PDFPath = t.TempDir()
	cfg.ImagePath = ""
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	_, err := r.UploadFile(context.Background(), 1, entity.FileCategoryPDF)
	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, entity.ActionUploadFailed, actionErr.Kind)

	_, err = r.UploadFile(context.Background(), 1, entity.FileCategoryImage)
	require.ErrorAs(t, err, &actionErr)
	assert.Contains(t, actionErr.Reason, "no image path")
}

func TestListPDFs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "case.pdf")
	writeFile(t, f)

	files, err := ListPDFs(f)
	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)

	txt := filepath.Join(dir, "case.txt")
	writeFile(t, txt)
	_, err = ListPDFs(txt)
	assert.Error(t, err)
}

func TestDownloadFile_ReturnsNewestFile(t *testing.T) {
	b, cfg := setup(t)
	b.DownloadFn = func(ctx context.Context, index int, dir string) error {
		writeFile(t, filepath.Join(dir, "approval.pdf.crdownload"))
		writeFile(t, filepath.Join(dir, "approval.pdf"))
		return nil
	}
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	res, err := r.DownloadFile(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(cfg.DownloadDir, "PA-1", "approval.pdf")}, res.Files)
}

func TestDownloadFile_ConcurrentRunsUseSeparateDirs(t *testing.T) {
	_, cfg := setup(t)

	// Both downloads finish before either registry scans for new files.
	var written sync.WaitGroup
	written.Add(2)
	registry := func(id, name string) *Registry {
		b := testutil.NewFakeBrowser()
		b.Elements = []entity.UIElement{{Index: 0, Tag: "a"}}
		b.DownloadFn = func(ctx context.Context, index int, dir string) error {
			err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
			written.Done()
			written.Wait()
			return err
		}
		return NewRegistry(b, logger.NewNop(), cfg, id)
	}
	first := registry("PA-1", "first.pdf")
	second := registry("PA-2", "second.pdf")
	assert.NotEqual(t, first.DownloadDir(), second.DownloadDir())

	var wg sync.WaitGroup
	results := make([]*entity.ActionResult, 2)
	errs := make([]error, 2)
	for i, r := range []*Registry{first, second} {
		i, r := i, r
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.DownloadFile(context.Background(), 0)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, []string{filepath.Join(cfg.DownloadDir, "PA-1", "first.pdf")}, results[0].Files)
	assert.Equal(t, []string{filepath.Join(cfg.DownloadDir, "PA-2", "second.pdf")}, results[1].Files)
}

func TestDownloadFile_IgnoresOldFiles(t *testing.T) {
	b, cfg := setup(t)
	runDir := filepath.Join(cfg.DownloadDir, "PA-1")
	require.NoError(t, os.MkdirAll(runDir, 0755))
	old := filepath.Join(runDir, "old.pdf")
	writeFile(t, old)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	b.DownloadFn = func(ctx context.Context, index int, dir string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	_, err := r.DownloadFile(context.Background(), 0)

	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, entity.ActionDownloadIncomplete, actionErr.Kind)
	assert.Contains(t, actionErr.Reason, "deadline exceeded")
}

func TestDownloadFile_ElementNotFound(t *testing.T) {
	b, cfg := setup(t)
	r := NewRegistry(b, logger.NewNop(), cfg, "PA-1")

	_, err := r.DownloadFile(context.Background(), 9)

	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, entity.ActionElementNotFound, actionErr.Kind)
}

func TestNewestSince(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	writeFile(t, a)
	writeFile(t, b)
	now := time.Now()
	require.NoError(t, os.Chtimes(a, now, now))
	require.NoError(t, os.Chtimes(b, now.Add(time.Second), now.Add(time.Second)))

	got, ok := NewestSince(dir, now.Add(-time.Minute))
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = NewestSince(dir, now.Add(time.Minute))
	assert.False(t, ok)

	_, ok = NewestSince(filepath.Join(dir, "missing"), now)
	assert.False(t, ok)
}
