package env

import (
	"time"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

// AppConfig holds every recognised option.
type AppConfig struct {
	// CRM (Dataverse)
	ClientID        string
	ClientSecret    string
	TenantID        string
	DataverseURL    string
	AuthorityURL    string
	TargetAccountID string

	// LLM
	Model           string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string
	Vision          bool

	// Portal
	PortalURL      string
	PortalUsername string
	PortalPassword string

	// Tracker
	DefaultTrackingID  string
	TrackerInterval    time.Duration
	TrackerMaxDuration time.Duration
	TrackerMaxSteps    int

	// Form defaults
	DefaultMissingValue string
	DefaultDateValue    string

	// Files
	PDFPath         string
	ImagePath       string
	DownloadPath    string
	UploadSettle    time.Duration
	DownloadTimeout time.Duration

	// Runtime
	Headless       bool
	FormRunTimeout time.Duration
	FormMaxSteps   int
	TrackDir       string
	HTTPAddr       string
	LogLevel       string
	LogFormat      string
	LogDir         string
}

func LoadConfig(src output.ConfigPort) AppConfig {
	return AppConfig{
		ClientID:        src.Get("CLIENT_ID"),
		ClientSecret:    src.Get("CLIENT_SECRET"),
		TenantID:        src.Get("TENANT_ID"),
		DataverseURL:    src.Get("DATAVERSE_URL"),
		AuthorityURL:    src.GetWithDefault("AUTHORITY_URL", "https://login.microsoftonline.com"),
		TargetAccountID: src.Get("TARGET_ACCOUNT_ID"),

		Model:           src.GetWithDefault("GPT_MODEL", "gpt-4.1"),
		OpenAIAPIKey:    src.Get("OPENAI_API_KEY"),
		OpenAIBaseURL:   src.Get("OPENAI_BASE_URL"),
		AzureEndpoint:   src.Get("AZURE_OPENAI_ENDPOINT"),
		AzureAPIKey:     src.Get("AZURE_OPENAI_API_KEY"),
		AzureAPIVersion: src.Get("AZURE_OPENAI_API_VERSION"),
		Vision:          src.GetBool("LLM_VISION", false),

		PortalURL:      src.Get("HUMANA_LINK"),
		PortalUsername: src.Get("HUMANA_USERNAME"),
		PortalPassword: src.Get("HUMANA_PASSWORD"),

		DefaultTrackingID:  src.Get("HUMANA_ID_FOR_TRACKING"),
		TrackerInterval:    src.GetDuration("HUMANA_TRACKER_INTERVAL", 10*time.Second),
		TrackerMaxDuration: src.GetDuration("TRACKER_MAX_DURATION", 24*time.Hour),
		TrackerMaxSteps:    src.GetInt("TRACKER_MAX_STEPS", 2000),

		DefaultMissingValue: src.GetWithDefault("DEFAULT_MISSING_VALUE", "N/A"),
		DefaultDateValue:    src.GetWithDefault("DEFAULT_DATE_VALUE", "01/01/2025"),

		PDFPath:         src.GetWithDefault("PDF_PATH", "temp"),
		ImagePath:       src.Get("IMAGE_PATH"),
		DownloadPath:    src.GetWithDefault("DOWNLOAD_PATH", "downloads"),
		UploadSettle:    src.GetDuration("UPLOAD_SETTLE", 3*time.Second),
		DownloadTimeout: src.GetDuration("DOWNLOAD_TIMEOUT", 10*time.Second),

		Headless:       src.GetBool("HEADLESS", true),
		FormRunTimeout: src.GetDuration("FORM_RUN_TIMEOUT", 30*time.Minute),
		FormMaxSteps:   src.GetInt("FORM_MAX_STEPS", 150),
		TrackDir:       src.GetWithDefault("TRACK_DIR", "track"),
		HTTPAddr:       src.GetWithDefault("HTTP_ADDR", ":8000"),
		LogLevel:       src.GetWithDefault("LOG_LEVEL", "info"),
		LogFormat:      src.GetWithDefault("LOG_FORMAT", "json"),
		LogDir:         src.Get("LOG_DIR"),
	}
}

// ValidateFormFill checks what a form-fill run cannot start without.
func (c AppConfig) ValidateFormFill() error {
	return requireSet(
		"CLIENT_ID", c.ClientID,
		"CLIENT_SECRET", c.ClientSecret,
		"TENANT_ID", c.TenantID,
		"DATAVERSE_URL", c.DataverseURL,
		"TARGET_ACCOUNT_ID", c.TargetAccountID,
		"HUMANA_LINK", c.PortalURL,
		"HUMANA_USERNAME", c.PortalUsername,
		"HUMANA_PASSWORD", c.PortalPassword,
	)
}

// ValidateTracker checks what a tracking run cannot start without.
func (c AppConfig) ValidateTracker() error {
	return requireSet(
		"HUMANA_LINK", c.PortalURL,
		"HUMANA_USERNAME", c.PortalUsername,
		"HUMANA_PASSWORD", c.PortalPassword,
	)
}

// ValidateLLM checks that some chat completion endpoint is configured.
func (c AppConfig) ValidateLLM() error {
	if c.AzureEndpoint != "" {
		return requireSet("AZURE_OPENAI_API_KEY", c.AzureAPIKey)
	}
	return requireSet("OPENAI_API_KEY", c.OpenAIAPIKey)
}

func requireSet(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &entity.ConfigError{Missing: missing}
	}
	return nil
}

// Mask hides a secret, keeping only its last two characters.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-2:]
}

// Summary is the effective configuration with secrets masked, for logging.
func (c AppConfig) Summary() map[string]any {
	return map[string]any{
		"dataverse_url":     c.DataverseURL,
		"client_id":         c.ClientID,
		"client_secret":     Mask(c.ClientSecret),
		"target_account_id": c.TargetAccountID,
		"model":             c.Model,
		"azure":             c.AzureEndpoint != "",
		"openai_api_key":    Mask(c.OpenAIAPIKey),
		"azure_api_key":     Mask(c.AzureAPIKey),
		"portal_url":        c.PortalURL,
		"portal_username":   c.PortalUsername,
		"portal_password":   Mask(c.PortalPassword),
		"pdf_path":          c.PDFPath,
		"download_path":     c.DownloadPath,
		"headless":          c.Headless,
		"track_dir":         c.TrackDir,
	}
}
