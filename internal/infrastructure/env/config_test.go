package env

import (
	"errors"
	"testing"
	"time"

	"pa-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"GPT_MODEL", "HUMANA_TRACKER_INTERVAL", "TRACK_DIR", "HEADLESS", "FORM_RUN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig(&EnvService{})

	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, 10*time.Second, cfg.TrackerInterval)
	assert.Equal(t, "track", cfg.TrackDir)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 30*time.Minute, cfg.FormRunTimeout)
	assert.Equal(t, "https://login.microsoftonline.com", cfg.AuthorityURL)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("TARGET_ACCOUNT_ID", "acc-1")
	t.Setenv("HUMANA_TRACKER_INTERVAL", "15")
	t.Setenv("TRACKER_MAX_DURATION", "2h")
	t.Setenv("HEADLESS", "false")

	cfg := LoadConfig(&EnvService{})

	assert.Equal(t, "acc-1", cfg.TargetAccountID)
	assert.Equal(t, 15*time.Second, cfg.TrackerInterval)
	assert.Equal(t, 2*time.Hour, cfg.TrackerMaxDuration)
	assert.False(t, cfg.Headless)
}

func TestGetDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, (&EnvService{}).GetDuration("SOME_DURATION", time.Minute))
}

func TestValidateFormFill_ListsMissing(t *testing.T) {
	cfg := AppConfig{ClientID: "id", TenantID: "tenant"}

	err := cfg.ValidateFormFill()
	require.Error(t, err)

	var cfgErr *entity.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{
		"CLIENT_SECRET", "DATAVERSE_URL", "TARGET_ACCOUNT_ID",
		"HUMANA_LINK", "HUMANA_USERNAME", "HUMANA_PASSWORD",
	}, cfgErr.Missing)
}

func TestValidateTracker(t *testing.T) {
	cfg := AppConfig{PortalURL: "https://portal", PortalUsername: "u", PortalPassword: "p"}
	assert.NoError(t, cfg.ValidateTracker())

	cfg.PortalPassword = ""
	assert.Error(t, cfg.ValidateTracker())
}

func TestValidateLLM(t *testing.T) {
	assert.Error(t, AppConfig{}.ValidateLLM())
	assert.NoError(t, AppConfig{OpenAIAPIKey: "k"}.ValidateLLM())
	assert.Error(t, AppConfig{AzureEndpoint: "https://x.openai.azure.com"}.ValidateLLM())
	assert.NoError(t, AppConfig{AzureEndpoint: "https://x.openai.azure.com", AzureAPIKey: "k"}.ValidateLLM())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "****yz", Mask("secret-xyz"))
}

func TestSummary_MasksSecrets(t *testing.T) {
	cfg := AppConfig{
		ClientSecret:   "client-secret-99",
		OpenAIAPIKey:   "sk-live-abcdef",
		PortalUsername: "dr.smith",
		PortalPassword: "hunter22",
	}

	s := cfg.Summary()

	assert.Equal(t, "****99", s["client_secret"])
	assert.Equal(t, "****ef", s["openai_api_key"])
	assert.Equal(t, "****22", s["portal_password"])
	assert.Equal(t, "dr.smith", s["portal_username"])
	for _, v := range s {
		if str, ok := v.(string); ok {
			assert.NotContains(t, str, "hunter")
			assert.NotContains(t, str, "sk-live")
		}
	}
}
