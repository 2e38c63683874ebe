package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pa-agent/internal/domain/entity"

	"github.com/tmc/langchaingo/prompts"
)

type FormFillInput struct {
	PortalURL           string
	Username            string
	Password            string
	CaseData            entity.CaseRecord
	DefaultMissingValue string
	DefaultDateValue    string
	UploadDir           string
	AvailableFiles      []string
}

type TrackerInput struct {
	PortalURL  string
	Username   string
	Password   string
	TrackingID string
	Interval   time.Duration
}

var (
	formFillPrompt = prompts.NewPromptTemplate(FormFillTemplate, []string{
		"portal_url", "username", "password", "case_data",
		"default_missing_value", "default_date_value", "upload_dir", "available_files",
	})
	trackerPrompt = prompts.NewPromptTemplate(TrackerTemplate, []string{
		"portal_url", "username", "password", "tracking_id", "interval_seconds",
	})
)

// FormFillPrompt renders the form-fill task. Case data is embedded as
// indented JSON with sorted keys, so equal inputs give equal prompts.
func FormFillPrompt(in FormFillInput) (string, error) {
	if err := required(
		"portal url", in.PortalURL,
		"username", in.Username,
		"password", in.Password,
		"default missing value", in.DefaultMissingValue,
		"default date value", in.DefaultDateValue,
	); err != nil {
		return "", err
	}
	if len(in.CaseData) == 0 {
		return "", fmt.Errorf("form-fill prompt: case data is empty")
	}

	data, err := encodeCaseData(in.CaseData)
	if err != nil {
		return "", fmt.Errorf("form-fill prompt: encode case data: %w", err)
	}

	files := "none found"
	if len(in.AvailableFiles) > 0 {
		files = strings.Join(in.AvailableFiles, ", ")
	}

	return formFillPrompt.Format(map[string]any{
		"portal_url":            in.PortalURL,
		"username":              in.Username,
		"password":              in.Password,
		"case_data":             "   " + data,
		"default_missing_value": in.DefaultMissingValue,
		"default_date_value":    in.DefaultDateValue,
		"upload_dir":            in.UploadDir,
		"available_files":       files,
	})
}

func TrackerPrompt(in TrackerInput) (string, error) {
	if err := required(
		"portal url", in.PortalURL,
		"username", in.Username,
		"password", in.Password,
		"tracking id", in.TrackingID,
	); err != nil {
		return "", err
	}
	if in.Interval < time.Second {
		return "", fmt.Errorf("tracker prompt: interval must be at least one second, got %s", in.Interval)
	}

	return trackerPrompt.Format(map[string]any{
		"portal_url":       in.PortalURL,
		"username":         in.Username,
		"password":         in.Password,
		"tracking_id":      in.TrackingID,
		"interval_seconds": strconv.Itoa(int(in.Interval / time.Second)),
	})
}

func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt input missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// encodeCaseData renders the record as indented JSON, leaving <, > and &
// as written so the agent types the values verbatim.
func encodeCaseData(record entity.CaseRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("   ", "  ")
	if err := enc.Encode(record); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
