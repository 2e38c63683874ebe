// Package testutil holds in-memory doubles of the output ports for unit tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

var (
	_ output.BrowserPort    = (*FakeBrowser)(nil)
	_ output.BrowserFactory = (*FakeFactory)(nil)
)

// FakeBrowser records every call and serves a fixed page.
type FakeBrowser struct {
	mu sync.Mutex

	URL      string
	Page     entity.PageContent
	Elements []entity.UIElement
	Shot     *entity.Screenshot

	// Err, when set for a method name, is returned by that method.
	Err map[string]error

	// UploadFn and DownloadFn replace the default no-op behavior.
	UploadFn   func(ctx context.Context, index int, files []string) error
	DownloadFn func(ctx context.Context, index int, dir string) error

	Calls  []string
	Closed bool
}

func NewFakeBrowser() *FakeBrowser {
	return &FakeBrowser{Err: map[string]error{}}
}

func (b *FakeBrowser) record(name, format string, args ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	call := name
	if format != "" {
		call += " " + fmt.Sprintf(format, args...)
	}
	b.Calls = append(b.Calls, call)
	if b.Err == nil {
		return nil
	}
	return b.Err[name]
}

func (b *FakeBrowser) checkIndex(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.Elements) {
		return fmt.Errorf("%w: index %d", entity.ErrElementNotFound, index)
	}
	return nil
}

// CallLog returns a copy of the recorded calls.
func (b *FakeBrowser) CallLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Calls...)
}

func (b *FakeBrowser) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Closed
}

func (b *FakeBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.record("navigate", "%s", url); err != nil {
		return err
	}
	b.mu.Lock()
	b.URL = url
	b.mu.Unlock()
	return nil
}

func (b *FakeBrowser) Click(ctx context.Context, index int) error {
	if err := b.record("click", "%d", index); err != nil {
		return err
	}
	return b.checkIndex(index)
}

func (b *FakeBrowser) Fill(ctx context.Context, index int, text string) error {
	if err := b.record("fill", "%d %s", index, text); err != nil {
		return err
	}
	return b.checkIndex(index)
}

func (b *FakeBrowser) SelectOption(ctx context.Context, index int, value string) error {
	if err := b.record("select_option", "%d %s", index, value); err != nil {
		return err
	}
	return b.checkIndex(index)
}

func (b *FakeBrowser) PressEnter(ctx context.Context) error {
	return b.record("press_enter", "")
}

func (b *FakeBrowser) Scroll(ctx context.Context, direction string) error {
	return b.record("scroll", "%s", direction)
}

func (b *FakeBrowser) GetPageContent(ctx context.Context) (*entity.PageContent, error) {
	if err := b.record("page_content", ""); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	page := b.Page
	if page.URL == "" {
		page.URL = b.URL
	}
	return &page, nil
}

func (b *FakeBrowser) GetUIElements(ctx context.Context) ([]entity.UIElement, error) {
	if err := b.record("ui_elements", ""); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entity.UIElement(nil), b.Elements...), nil
}

func (b *FakeBrowser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := b.record("screenshot", ""); err != nil {
		return nil, err
	}
	if b.Shot != nil {
		return b.Shot, nil
	}
	return &entity.Screenshot{Data: []byte{0xff, 0xd8}, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (b *FakeBrowser) UploadFiles(ctx context.Context, index int, files []string) error {
	if err := b.record("upload", "%d %v", index, files); err != nil {
		return err
	}
	if err := b.checkIndex(index); err != nil {
		return err
	}
	if b.UploadFn != nil {
		return b.UploadFn(ctx, index, files)
	}
	return nil
}

func (b *FakeBrowser) DownloadFrom(ctx context.Context, index int, dir string) error {
	if err := b.record("download", "%d", index); err != nil {
		return err
	}
	if err := b.checkIndex(index); err != nil {
		return err
	}
	if b.DownloadFn != nil {
		return b.DownloadFn(ctx, index, dir)
	}
	return nil
}

func (b *FakeBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.URL
}

func (b *FakeBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
}

// FakeFactory hands out browsers built by New, or fresh FakeBrowsers.
type FakeFactory struct {
	mu       sync.Mutex
	New      func() *FakeBrowser
	Err      error
	Sessions []*FakeBrowser
}

func (f *FakeFactory) NewSession(ctx context.Context) (output.BrowserPort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	b := NewFakeBrowser()
	if f.New != nil {
		b = f.New()
	}
	f.Sessions = append(f.Sessions, b)
	return b, nil
}

func (f *FakeFactory) Opened() []*FakeBrowser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeBrowser(nil), f.Sessions...)
}
