// Package ledger keeps one append-only, human-readable activity file per
// request.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

var _ output.Ledger = (*FileLedger)(nil)

const (
	timeLayout = "2006-01-02 15:04:05"
	separator  = "=================================================="
)

type FileLedger struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

func NewFileLedger(dir string) (*FileLedger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create track dir: %w", err)
	}
	return &FileLedger{dir: dir, now: time.Now}, nil
}

func (l *FileLedger) path(requestID string) string {
	return filepath.Join(l.dir, fmt.Sprintf("request_%s.txt", requestID))
}

// Create writes the header of a new request file. An existing file is left
// untouched.
func (l *FileLedger) Create(requestID string) error {
	if err := validateID(requestID); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path(requestID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	defer f.Close()

	header := fmt.Sprintf("=== PA AGENT REQUEST TRACKING ===\nRequest ID: %s\nStarted: %s\n%s\n\n",
		requestID, l.now().Format(timeLayout), separator)
	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	return f.Sync()
}

func (l *FileLedger) Append(requestID, action, detail string) error {
	if err := validateID(requestID); err != nil {
		return err
	}

	line := fmt.Sprintf("[%s] %s", l.now().Format(timeLayout), oneLine(action))
	if detail != "" {
		line += " - " + oneLine(detail)
	}
	line += "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path(requestID), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return f.Sync()
}

// Entries parses the timestamped lines of a request file back into entries,
// skipping the header.
func (l *FileLedger) Entries(requestID string) ([]entity.LedgerEntry, error) {
	if err := validateID(requestID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path(requestID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entity.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	var entries []entity.LedgerEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if entry, ok := parseLine(scanner.Text()); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	return entries, nil
}

func parseLine(line string) (entity.LedgerEntry, bool) {
	if !strings.HasPrefix(line, "[") {
		return entity.LedgerEntry{}, false
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return entity.LedgerEntry{}, false
	}
	ts, err := time.ParseInLocation(timeLayout, line[1:end], time.Local)
	if err != nil {
		return entity.LedgerEntry{}, false
	}

	rest := line[end+2:]
	action, detail, _ := strings.Cut(rest, " - ")
	return entity.LedgerEntry{Timestamp: ts, Action: action, Detail: detail}, true
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}

func validateID(requestID string) error {
	if requestID == "" || strings.ContainsAny(requestID, `/\.`) {
		return fmt.Errorf("invalid request id %q", requestID)
	}
	return nil
}
