package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var (
	_ output.BrowserPort    = (*BrowserAdapter)(nil)
	_ output.BrowserFactory = (*Factory)(nil)
)

var ErrInvalidURL = errors.New("invalid url")

const (
	defaultTimeout    = 10 * time.Second
	defaultSlowMotion = 0
	defaultSettle     = 3 * time.Second
	maxElements       = 300
	maxTextLen        = 80
)

// interactiveSelector covers what a PA form needs: inputs, buttons, links and
// anything scripted to behave like them.
const interactiveSelector = `a[href], button, input:not([type='hidden']), select, textarea, ` +
	`[role='button'], [role='link'], [role='tab'], [role='menuitem'], [role='option'], ` +
	`[role='checkbox'], [role='radio'], [role='combobox'], [onclick], [contenteditable='true']`

const describeElementJS = `() => ({
	tag: this.tagName.toLowerCase(),
	type: (this.getAttribute('type') || '').toLowerCase(),
	text: (this.innerText || this.textContent || '').trim().replace(/\s+/g, ' '),
	name: this.getAttribute('name') || this.id || '',
	placeholder: this.getAttribute('placeholder') || '',
	aria: this.getAttribute('aria-label') || this.getAttribute('title') || '',
	value: (this.value === undefined || this.value === null) ? '' : String(this.value),
})`

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
	// UploadSettle bounds the wait for the page to go idle after a file
	// chooser has been answered.
	UploadSettle time.Duration
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     true,
		SlowMotion:   defaultSlowMotion,
		Timeout:      defaultTimeout,
		NoSandbox:    true,
		DevTools:     false,
		UploadSettle: defaultSettle,
	}
}

// Factory launches a separate browser per session so concurrent runs never
// share pages, file choosers or download handlers.
type Factory struct {
	cfg BrowserConfig
}

func NewFactory(cfg BrowserConfig) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) NewSession(ctx context.Context) (output.BrowserPort, error) {
	return NewBrowserAdapter(ctx, f.cfg)
}

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	settle   time.Duration

	mu       sync.Mutex
	elements []*rod.Element
	closed   bool
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UploadSettle <= 0 {
		cfg.UploadSettle = defaultSettle
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		settle:   cfg.UploadSettle,
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	switch u.Scheme {
	case "http", "https", "file", "about":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	p := b.page.Context(ctx)
	if err := p.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.Timeout(b.timeout).WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	_ = p.WaitIdle(5 * time.Second)
	b.resetElements()
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, index int) error {
	el, err := b.elementAt(ctx, index)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll to element %d: %w", index, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	_ = b.page.Context(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) Fill(ctx context.Context, index int, text string) error {
	el, err := b.elementAt(ctx, index)
	if err != nil {
		return err
	}
	// Typing over a selection replaces any prefilled value.
	_ = el.SelectAllText()
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) SelectOption(ctx context.Context, index int, value string) error {
	el, err := b.elementAt(ctx, index)
	if err != nil {
		return err
	}
	if err := el.Select([]string{value}, true, rod.SelectorTypeText); err != nil {
		return fmt.Errorf("select %q failed: %w", value, err)
	}
	return nil
}

func (b *BrowserAdapter) PressEnter(ctx context.Context) error {
	if err := b.page.Context(ctx).Keyboard.Type(input.Enter); err != nil {
		return fmt.Errorf("failed to press Enter: %w", err)
	}
	_ = b.page.Context(ctx).WaitIdle(1 * time.Second)
	return nil
}

func (b *BrowserAdapter) Scroll(ctx context.Context, direction string) error {
	var js string
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		js = `() => window.scrollBy(0, window.innerHeight * 0.8)`
	case "up":
		js = `() => window.scrollBy(0, -window.innerHeight * 0.8)`
	case "top":
		js = `() => window.scrollTo(0, 0)`
	case "bottom":
		js = `() => window.scrollTo(0, document.body.scrollHeight)`
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}

	p := b.page.Context(ctx)
	if _, err := p.Eval(js); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	_ = p.WaitIdle(800 * time.Millisecond)
	return nil
}

func (b *BrowserAdapter) GetPageContent(ctx context.Context) (*entity.PageContent, error) {
	p := b.page.Context(ctx)
	info, err := p.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	body, err := p.Timeout(b.timeout).Element("body")
	if err != nil {
		return nil, fmt.Errorf("body not found: %w", err)
	}
	html, err := body.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}

	return &entity.PageContent{
		URL:   info.URL,
		Title: info.Title,
		HTML:  html,
	}, nil
}

// GetUIElements snapshots the visible interactive elements and numbers them.
// The numbering replaces the previous snapshot.
func (b *BrowserAdapter) GetUIElements(ctx context.Context) ([]entity.UIElement, error) {
	els, err := b.page.Context(ctx).Timeout(b.timeout).Elements(interactiveSelector)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}

	kept := make([]*rod.Element, 0, len(els))
	result := make([]entity.UIElement, 0, len(els))

	for _, el := range els {
		if len(kept) >= maxElements {
			break
		}
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		obj, err := el.Eval(describeElementJS)
		if err != nil {
			continue
		}
		v := obj.Value

		result = append(result, entity.UIElement{
			Index:       len(kept),
			Tag:         v.Get("tag").Str(),
			Type:        v.Get("type").Str(),
			Text:        truncate(v.Get("text").Str(), maxTextLen),
			Name:        v.Get("name").Str(),
			Placeholder: v.Get("placeholder").Str(),
			AriaLabel:   v.Get("aria").Str(),
			Value:       truncate(v.Get("value").Str(), maxTextLen),
		})
		kept = append(kept, el)
	}

	b.mu.Lock()
	b.elements = kept
	b.mu.Unlock()

	return result, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) UploadFiles(ctx context.Context, index int, files []string) error {
	if len(files) == 0 {
		return errors.New("no files to upload")
	}
	abs := make([]string, 0, len(files))
	for _, f := range files {
		p, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", f, err)
		}
		abs = append(abs, p)
	}

	el, err := b.elementAt(ctx, index)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	el = el.Context(ctx)

	if isFileInput(el) {
		if err := el.SetFiles(abs); err != nil {
			return fmt.Errorf("set files: %w", err)
		}
	} else {
		page := b.page.Context(ctx)
		setFiles, err := page.HandleFileDialog()
		if err != nil {
			return fmt.Errorf("intercept file chooser: %w", err)
		}
		defer func() {
			_ = proto.PageSetInterceptFileChooserDialog{Enabled: false}.Call(b.page)
		}()

		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click upload element: %w", err)
		}
		if err := setFiles(abs); err != nil {
			return fmt.Errorf("file chooser: %w", err)
		}
	}

	_ = b.page.Context(ctx).WaitIdle(b.settle)
	return nil
}

// DownloadFrom routes the next downloads into dir, clicks the element and
// waits for a finished file to appear. The caller bounds the wait with ctx.
func (b *BrowserAdapter) DownloadFrom(ctx context.Context, index int, dir string) error {
	el, err := b.elementAt(ctx, index)
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve download dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	watcher, err := WatchDir(absDir)
	if err != nil {
		return err
	}
	defer watcher.Close()

	err = proto.BrowserSetDownloadBehavior{
		Behavior:      proto.BrowserSetDownloadBehaviorBehaviorAllow,
		DownloadPath:  absDir,
		EventsEnabled: true,
	}.Call(b.browser)
	if err != nil {
		return fmt.Errorf("set download behavior: %w", err)
	}
	defer func() {
		_ = proto.BrowserSetDownloadBehavior{
			Behavior: proto.BrowserSetDownloadBehaviorBehaviorDefault,
		}.Call(b.browser)
	}()

	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click download element: %w", err)
	}

	if _, err := watcher.WaitForFile(ctx); err != nil {
		return fmt.Errorf("wait for download: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.elements = nil

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func (b *BrowserAdapter) elementAt(ctx context.Context, index int) (*rod.Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.elements) {
		return nil, fmt.Errorf("%w: index %d (observe the page to refresh indexes)", entity.ErrElementNotFound, index)
	}
	return b.elements[index].Context(ctx), nil
}

func (b *BrowserAdapter) resetElements() {
	b.mu.Lock()
	b.elements = nil
	b.mu.Unlock()
}

func isFileInput(el *rod.Element) bool {
	obj, err := el.Eval(`() => this.tagName === 'INPUT' && (this.type || '').toLowerCase() === 'file'`)
	if err != nil {
		return false
	}
	return obj.Value.Bool()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
