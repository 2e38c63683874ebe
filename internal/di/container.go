package di

import (
	"context"
	"errors"
	"fmt"

	"pa-agent/internal/adapter/httpapi"
	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/browser/rod"
	"pa-agent/internal/infrastructure/dataverse"
	"pa-agent/internal/infrastructure/env"
	"pa-agent/internal/infrastructure/ledger"
	"pa-agent/internal/infrastructure/llm/openaichat"
	"pa-agent/internal/infrastructure/logger"
	"pa-agent/internal/infrastructure/prompts"
	"pa-agent/internal/usecase/actions"
	"pa-agent/internal/usecase/executor"
	"pa-agent/internal/usecase/formfill"
	"pa-agent/internal/usecase/tracker"
)

const ServiceName = "PA Form Filling Agent"

type Container struct {
	Config   env.AppConfig
	Logger   output.LoggerPort
	Ledger   output.Ledger
	CaseData output.CaseDataProvider
	Browsers output.BrowserFactory
	Engine   output.Engine
	FormFill *formfill.UseCase
	Tracker  *tracker.UseCase
	Handler  *httpapi.Handler
}

func NewContainer(cfg env.AppConfig) (*Container, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.Dir = cfg.LogDir
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	log.Debug("Configuration loaded", "config", cfg.Summary())

	activity, err := ledger.NewFileLedger(cfg.TrackDir)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	cases := dataverse.NewClient(dataverse.Config{
		BaseURL:          cfg.DataverseURL,
		AuthorityURL:     cfg.AuthorityURL,
		TenantID:         cfg.TenantID,
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		DefaultAccountID: cfg.TargetAccountID,
		Logger:           log.WithField("component", "dataverse"),
	})

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Headless
	browserCfg.UploadSettle = cfg.UploadSettle
	browsers := rod.NewFactory(browserCfg)

	engine := executor.New(newLLM(cfg, log), log.WithField("component", "engine"), executor.Config{
		SystemPrompt: prompts.DefaultSystemPrompt,
		Vision:       cfg.Vision,
	})

	forms := formfill.New(cases, browsers, engine, activity, log.WithField("component", "formfill"), formfill.Config{
		PortalURL:           cfg.PortalURL,
		Username:            cfg.PortalUsername,
		Password:            cfg.PortalPassword,
		DefaultMissingValue: cfg.DefaultMissingValue,
		DefaultDateValue:    cfg.DefaultDateValue,
		Files: actions.Config{
			PDFPath:         cfg.PDFPath,
			ImagePath:       cfg.ImagePath,
			DownloadDir:     cfg.DownloadPath,
			DownloadTimeout: cfg.DownloadTimeout,
		},
		MaxSteps:   cfg.FormMaxSteps,
		RunTimeout: cfg.FormRunTimeout,
		Validate: func() error {
			return MergeConfigErrors(cfg.ValidateFormFill(), cfg.ValidateLLM())
		},
	})

	track := tracker.New(browsers, engine, activity, log.WithField("component", "tracker"), tracker.Config{
		PortalURL:         cfg.PortalURL,
		Username:          cfg.PortalUsername,
		Password:          cfg.PortalPassword,
		DefaultTrackingID: cfg.DefaultTrackingID,
		DefaultInterval:   cfg.TrackerInterval,
		MaxDuration:       cfg.TrackerMaxDuration,
		MaxSteps:          cfg.TrackerMaxSteps,
		Validate: func() error {
			return MergeConfigErrors(cfg.ValidateTracker(), cfg.ValidateLLM())
		},
	})

	return &Container{
		Config:   cfg,
		Logger:   log,
		Ledger:   activity,
		CaseData: cases,
		Browsers: browsers,
		Engine:   engine,
		FormFill: forms,
		Tracker:  track,
		Handler:  httpapi.NewHandler(forms, track, activity, log.WithField("component", "http"), ServiceName),
	}, nil
}

func newLLM(cfg env.AppConfig, log output.LoggerPort) output.LLMPort {
	llmCfg := openaichat.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.Model,
		BaseURL: cfg.OpenAIBaseURL,
		Logger:  log.WithField("component", "llm"),
	}
	if cfg.AzureEndpoint != "" {
		llmCfg.APIKey = cfg.AzureAPIKey
		llmCfg.AzureEndpoint = cfg.AzureEndpoint
		llmCfg.AzureAPIVersion = cfg.AzureAPIVersion
	}
	return openaichat.New(llmCfg)
}

// MergeConfigErrors folds several validation results into one ConfigError
// listing every missing key. Errors of other types are returned as is.
func MergeConfigErrors(errs ...error) error {
	var missing []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var cfgErr *entity.ConfigError
		if !errors.As(err, &cfgErr) {
			return err
		}
		missing = append(missing, cfgErr.Missing...)
	}
	if len(missing) == 0 {
		return nil
	}
	return &entity.ConfigError{Missing: missing}
}

// Shutdown stops accepting work, cancels running tasks and waits for them
// until ctx expires.
func (c *Container) Shutdown(ctx context.Context) error {
	return errors.Join(
		c.FormFill.Shutdown(ctx),
		c.Tracker.Shutdown(ctx),
	)
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}
