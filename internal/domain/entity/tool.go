package entity

import (
	"path/filepath"
	"strings"
)

type ToolName string

const (
	ToolBrowserNavigate   ToolName = "navigate"
	ToolBrowserClick      ToolName = "click"
	ToolBrowserFill       ToolName = "fill"
	ToolBrowserSelect     ToolName = "select_option"
	ToolBrowserScroll     ToolName = "scroll"
	ToolBrowserPressEnter ToolName = "press_enter"
	ToolBrowserObserve    ToolName = "observe"
	ToolBrowserExtract    ToolName = "extract"

	ToolUploadFile   ToolName = "upload_file"
	ToolDownloadFile ToolName = "download_file"

	ToolWait ToolName = "wait"
	ToolDone ToolName = "done"
)

func (t ToolName) String() string {
	return string(t)
}

type FileCategory string

const (
	FileCategoryPDF   FileCategory = "pdf"
	FileCategoryImage FileCategory = "image"
)

// ParseFileCategory maps the agent-supplied category to a known one; anything
// other than an explicit image request is treated as pdf.
func ParseFileCategory(s string) FileCategory {
	switch s {
	case "image", "img", "png", "jpg", "jpeg":
		return FileCategoryImage
	}
	return FileCategoryPDF
}

// partialSuffixes mark files a browser is still writing.
var partialSuffixes = []string{".crdownload", ".tmp", ".part", ".download"}

// IsPartialDownload reports whether name is an in-progress download or a
// hidden browser scratch file.
func IsPartialDownload(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, s := range partialSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return strings.HasPrefix(lower, ".")
}

type ActionResult struct {
	Message     string
	Files       []string
	AlreadyDone bool
}
