// Package tracker watches PA requests on the portal until they are
// approved, cancelled or the watch gives up.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pa-agent/internal/application/port/input"
	"pa-agent/internal/application/port/output"
	"pa-agent/internal/application/service"
	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/prompts"
)

var _ input.Tracker = (*UseCase)(nil)

const (
	LogRequestReceived = "Tracker Agent request received"
	LogConfigError     = "Configuration error"
	LogTaskStarted     = "Background task started"
	LogApproved        = "Tracking completed"
	LogCancelled       = "Tracking cancelled"
	LogFailed          = "Tracking failed"
	LogCleanedUp       = "Background task cleaned up"

	defaultInterval = 10 * time.Second
)

type Config struct {
	PortalURL string
	Username  string
	Password  string

	DefaultTrackingID string
	DefaultInterval   time.Duration
	// MaxDuration and MaxSteps bound a single watch.
	MaxDuration time.Duration
	MaxSteps    int

	Validate func() error
}

type UseCase struct {
	browsers output.BrowserFactory
	engine   output.Engine
	ledger   output.Ledger
	logger   output.LoggerPort
	registry *Registry
	cfg      Config

	newID func() string
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	browsers output.BrowserFactory,
	engine output.Engine,
	ledger output.Ledger,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = defaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UseCase{
		browsers: browsers,
		engine:   engine,
		ledger:   ledger,
		logger:   logger,
		registry: NewRegistry(),
		cfg:      cfg,
		newID:    service.NewRequestID,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (uc *UseCase) Start(ctx context.Context, req input.TrackRequest) (*input.TrackStarted, error) {
	trackingID := req.TrackingID
	if trackingID == "" {
		trackingID = uc.cfg.DefaultTrackingID
	}
	interval := req.Interval
	if interval <= 0 {
		interval = uc.cfg.DefaultInterval
	}
	if interval < time.Second {
		interval = time.Second
	}

	id := uc.newID()
	if err := uc.ledger.Create(id); err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	uc.log(id, LogRequestReceived, fmt.Sprintf("tracking id: %s, interval: %s", trackingID, interval))

	if err := uc.validate(trackingID); err != nil {
		uc.log(id, LogConfigError, err.Error())
		return nil, err
	}
	if err := uc.ctx.Err(); err != nil {
		return nil, fmt.Errorf("tracker is shut down: %w", err)
	}

	runCtx, cancel := context.WithCancelCause(uc.ctx)
	uc.registry.Add(entity.TrackingRequest{
		RequestID:  id,
		TrackingID: trackingID,
		Interval:   interval,
		Status:     entity.TaskStatusPending,
		StartedAt:  uc.now(),
	}, cancel)

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		defer cancel(nil)
		uc.runSafely(runCtx, id, trackingID, interval)
	}()

	return &input.TrackStarted{RequestID: id, TrackingID: trackingID, Interval: interval}, nil
}

func (uc *UseCase) validate(trackingID string) error {
	var missing []string
	if uc.cfg.Validate != nil {
		if err := uc.cfg.Validate(); err != nil {
			var cfgErr *entity.ConfigError
			if !errors.As(err, &cfgErr) {
				return err
			}
			missing = append(missing, cfgErr.Missing...)
		}
	}
	if trackingID == "" {
		missing = append(missing, "HUMANA_ID_FOR_TRACKING")
	}
	if len(missing) > 0 {
		return &entity.ConfigError{Missing: missing}
	}
	return nil
}

func (uc *UseCase) runSafely(ctx context.Context, id, trackingID string, interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("Tracker panicked", "request_id", id, "panic", r)
			uc.registry.SetStatus(id, entity.TaskStatusFailed, fmt.Sprintf("panic: %v", r))
			uc.log(id, LogFailed, fmt.Sprintf("panic: %v", r))
		}
		uc.registry.Remove(id)
		uc.log(id, LogCleanedUp, "")
	}()
	uc.run(ctx, id, trackingID, interval)
}

// run launches one engine run with the tracker prompt; the polling loop
// lives in the prompt. The returned state is terminal.
func (uc *UseCase) run(ctx context.Context, id, trackingID string, interval time.Duration) entity.RunState {
	log := uc.logger.WithFields(map[string]any{"request_id": id, "tracking_id": trackingID})

	uc.registry.SetStatus(id, entity.TaskStatusRunning, "")
	uc.log(id, LogTaskStarted, "")

	runCtx := ctx
	if uc.cfg.MaxDuration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, uc.cfg.MaxDuration)
		defer cancel()
	}

	out, err := uc.watch(runCtx, trackingID, interval)
	switch {
	case err == nil:
		uc.registry.SetStatus(id, entity.TaskStatusCompleted, "")
		uc.log(id, LogApproved, out)
		log.Info("PA request approved")
		return entity.RunStateApproved

	case errors.Is(context.Cause(ctx), entity.ErrTrackingCancelled):
		uc.registry.SetStatus(id, entity.TaskStatusFailed, "cancelled")
		uc.log(id, LogCancelled, "")
		log.Info("Tracking cancelled")
		return entity.RunStateCancelled

	default:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("tracking exceeded maximum duration %s: %w", uc.cfg.MaxDuration, err)
		}
		uc.registry.SetStatus(id, entity.TaskStatusFailed, err.Error())
		uc.log(id, LogFailed, err.Error())
		log.Error("Tracking failed", "error", err)
		return entity.RunStateFailed
	}
}

func (uc *UseCase) watch(ctx context.Context, trackingID string, interval time.Duration) (string, error) {
	task, err := prompts.TrackerPrompt(prompts.TrackerInput{
		PortalURL:  uc.cfg.PortalURL,
		Username:   uc.cfg.Username,
		Password:   uc.cfg.Password,
		TrackingID: trackingID,
		Interval:   interval,
	})
	if err != nil {
		return "", err
	}

	browser, err := uc.browsers.NewSession(ctx)
	if err != nil {
		return "", &entity.EngineError{Reason: "open browser session", Err: err}
	}
	defer browser.Close()

	out, err := uc.engine.Run(ctx, output.EngineRequest{
		Task:          task,
		Browser:       browser,
		MaxIterations: uc.cfg.MaxSteps,
	})
	if err != nil {
		return "", err
	}
	return out.FinalAnswer, nil
}

func (uc *UseCase) Status(requestID string) (entity.TrackingRequest, bool) {
	return uc.registry.Get(requestID)
}

func (uc *UseCase) Active() []entity.TrackingRequest {
	return uc.registry.List()
}

func (uc *UseCase) Cancel(requestID string) error {
	if !uc.registry.Cancel(requestID, entity.ErrTrackingCancelled) {
		return entity.ErrRequestNotFound
	}
	uc.logger.Info("Tracking cancel requested", "request_id", requestID)
	return nil
}

// Shutdown cancels every watch and waits for them to wind down.
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

func (uc *UseCase) Wait() {
	uc.wg.Wait()
}

func (uc *UseCase) log(id, action, detail string) {
	if err := uc.ledger.Append(id, action, detail); err != nil {
		uc.logger.Warn("Ledger append failed", "request_id", id, "action", action, "error", err)
	}
}
