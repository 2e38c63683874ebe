package output

import (
	"context"

	"pa-agent/internal/domain/entity"
)

// BrowserPort is one browser session. Elements are addressed by the index
// assigned by the most recent GetUIElements call.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, index int) error
	Fill(ctx context.Context, index int, text string) error
	SelectOption(ctx context.Context, index int, value string) error
	PressEnter(ctx context.Context) error
	Scroll(ctx context.Context, direction string) error

	GetPageContent(ctx context.Context) (*entity.PageContent, error)
	GetUIElements(ctx context.Context) ([]entity.UIElement, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	// UploadFiles supplies files to the file chooser opened by the element
	// at index and waits for the page to settle.
	UploadFiles(ctx context.Context, index int, files []string) error
	// DownloadFrom clicks the element at index with downloads routed to dir
	// and waits until a completed file shows up there or ctx expires.
	DownloadFrom(ctx context.Context, index int, dir string) error

	CurrentURL() string
	Close()
}

// BrowserFactory opens an isolated browser session per run.
type BrowserFactory interface {
	NewSession(ctx context.Context) (BrowserPort, error)
}
