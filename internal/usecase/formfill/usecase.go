// Package formfill runs one autonomous PA form submission per accepted
// request.
package formfill

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"pa-agent/internal/application/port/input"
	"pa-agent/internal/application/port/output"
	"pa-agent/internal/application/service"
	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/prompts"
	"pa-agent/internal/usecase/actions"
)

var _ input.FormSubmitter = (*UseCase)(nil)

// Ledger actions, in the order a successful run writes them.
const (
	LogRequestReceived    = "Request received"
	LogValidatingConfig   = "Validating configuration"
	LogConfigError        = "Configuration error"
	LogFetchingData       = "Fetching form data"
	LogFetchFailed        = "Failed to fetch form data"
	LogDataFetched        = "Form data fetched"
	LogStartingAgent      = "Starting form filling agent"
	LogAgentInitialized   = "Agent initialized"
	LogStartingAutomation = "Starting browser automation"
	LogCompleted          = "Form filling completed"
	LogFailed             = "Form filling failed"
)

type Config struct {
	PortalURL           string
	Username            string
	Password            string
	DefaultMissingValue string
	DefaultDateValue    string

	Files      actions.Config
	MaxSteps   int
	RunTimeout time.Duration

	// Validate reports missing configuration before a run is accepted.
	Validate func() error
}

type RunResult struct {
	RequestID   string
	State       entity.RunState
	FinalAnswer string
	Err         error
}

type UseCase struct {
	cases    output.CaseDataProvider
	browsers output.BrowserFactory
	engine   output.Engine
	ledger   output.Ledger
	logger   output.LoggerPort
	cfg      Config

	newID func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	cases output.CaseDataProvider,
	browsers output.BrowserFactory,
	engine output.Engine,
	ledger output.Ledger,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	ctx, cancel := context.WithCancel(context.Background())
	return &UseCase{
		cases:    cases,
		browsers: browsers,
		engine:   engine,
		ledger:   ledger,
		logger:   logger,
		cfg:      cfg,
		newID:    service.NewRequestID,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit validates configuration and starts the run in the background. The
// returned request id addresses the run's ledger.
func (uc *UseCase) Submit(ctx context.Context, req input.SubmitRequest) (*input.SubmitAccepted, error) {
	id := uc.newID()
	if err := uc.ledger.Create(id); err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	detail := "account: default"
	if req.AccountID != "" {
		detail = "account: " + req.AccountID
	}
	if len(req.CustomData) > 0 {
		detail += fmt.Sprintf(", custom fields: %d", len(req.CustomData))
	}
	uc.log(id, LogRequestReceived, detail)
	uc.log(id, LogValidatingConfig, "")

	if uc.cfg.Validate != nil {
		if err := uc.cfg.Validate(); err != nil {
			uc.log(id, LogConfigError, err.Error())
			return nil, err
		}
	}

	if err := uc.ctx.Err(); err != nil {
		return nil, fmt.Errorf("form submitter is shut down: %w", err)
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.runSafely(id, req)
	}()

	return &input.SubmitAccepted{RequestID: id}, nil
}

func (uc *UseCase) runSafely(id string, req input.SubmitRequest) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("Form filling panicked", "request_id", id, "panic", r)
			uc.log(id, LogFailed, fmt.Sprintf("panic: %v", r))
		}
	}()
	uc.Run(uc.ctx, id, req)
}

// Run executes one form-fill run to a terminal state. It never retries.
func (uc *UseCase) Run(ctx context.Context, id string, req input.SubmitRequest) *RunResult {
	log := uc.logger.WithField("request_id", id)
	res := &RunResult{RequestID: id, State: entity.RunStateInit}

	fail := func(err error) *RunResult {
		res.State = entity.RunStateFailed
		res.Err = err
		log.Error("Form filling failed", "error", err)
		return res
	}

	if uc.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.RunTimeout)
		defer cancel()
	}

	uc.log(id, LogFetchingData, "")
	fetched, err := uc.cases.Fetch(ctx, req.AccountID)
	if err != nil {
		uc.log(id, LogFetchFailed, err.Error())
		return fail(err)
	}
	if fetched == nil {
		err := &entity.DataFetchError{Kind: entity.DataFetchNotFound, Err: errors.New("empty case record")}
		uc.log(id, LogFetchFailed, err.Error())
		return fail(err)
	}

	record := entity.MergeCaseRecord(fetched, req.CustomData)
	res.State = entity.RunStateDataMerged
	uc.log(id, LogDataFetched, fmt.Sprintf("%d top-level fields", len(record)))

	task, err := prompts.FormFillPrompt(prompts.FormFillInput{
		PortalURL:           uc.cfg.PortalURL,
		Username:            uc.cfg.Username,
		Password:            uc.cfg.Password,
		CaseData:            record,
		DefaultMissingValue: uc.cfg.DefaultMissingValue,
		DefaultDateValue:    uc.cfg.DefaultDateValue,
		UploadDir:           uc.cfg.Files.PDFPath,
		AvailableFiles:      uc.availableFiles(),
	})
	if err != nil {
		uc.log(id, LogFailed, err.Error())
		return fail(err)
	}
	res.State = entity.RunStatePromptBuilt
	uc.log(id, LogStartingAgent, "")

	browser, err := uc.browsers.NewSession(ctx)
	if err != nil {
		err = &entity.EngineError{Reason: "open browser session", Err: err}
		uc.log(id, LogFailed, err.Error())
		return fail(err)
	}
	defer browser.Close()

	registry := actions.NewRegistry(browser, log, uc.cfg.Files, id)
	uc.log(id, LogAgentInitialized, "")

	res.State = entity.RunStateAgentRunning
	uc.log(id, LogStartingAutomation, "")
	log.Info("Starting browser automation", "portal", uc.cfg.PortalURL)

	out, err := uc.engine.Run(ctx, output.EngineRequest{
		Task:          task,
		Browser:       browser,
		Actions:       registry,
		MaxIterations: uc.cfg.MaxSteps,
	})
	if err != nil {
		uc.log(id, LogFailed, err.Error())
		return fail(err)
	}

	res.State = entity.RunStateCompleted
	res.FinalAnswer = out.FinalAnswer
	uc.log(id, LogCompleted, out.FinalAnswer)
	log.Info("Form filling completed", "iterations", out.Iterations, "uploads", registry.Uploads().Len(), "totalTokens", out.Usage.Total())
	return res
}

func (uc *UseCase) availableFiles() []string {
	var names []string
	if pdfs, err := actions.ListPDFs(uc.cfg.Files.PDFPath); err == nil {
		for _, p := range pdfs {
			names = append(names, filepath.Base(p))
		}
	}
	if uc.cfg.Files.ImagePath != "" {
		names = append(names, filepath.Base(uc.cfg.Files.ImagePath)+" (image)")
	}
	return names
}

// Shutdown cancels in-flight runs and waits for them to finish or for ctx
// to expire.
func (uc *UseCase) Shutdown(ctx context.Context) error {
	uc.cancel()
	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every background run has returned.
func (uc *UseCase) Wait() {
	uc.wg.Wait()
}

func (uc *UseCase) log(id, action, detail string) {
	if err := uc.ledger.Append(id, action, detail); err != nil {
		uc.logger.Warn("Ledger append failed", "request_id", id, "action", action, "error", err)
	}
}
