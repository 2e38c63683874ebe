package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTrackingCancelled = errors.New("tracking cancelled")
	ErrRequestNotFound   = errors.New("request not found")
)

// ConfigError reports missing required configuration.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

type DataFetchKind string

const (
	DataFetchNotFound       DataFetchKind = "not_found"
	DataFetchAuthFailure    DataFetchKind = "auth_failure"
	DataFetchNetworkFailure DataFetchKind = "network_failure"
)

// DataFetchError means no case record could be obtained.
type DataFetchError struct {
	Kind DataFetchKind
	Err  error
}

func (e *DataFetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch case data: %s", e.Kind)
	}
	return fmt.Sprintf("fetch case data: %s: %v", e.Kind, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

type ActionErrorKind string

const (
	ActionElementNotFound    ActionErrorKind = "element_not_found"
	ActionUploadFailed       ActionErrorKind = "upload_failed"
	ActionDownloadIncomplete ActionErrorKind = "download_incomplete"
)

// ActionError is a non-fatal failure of an injected action. The engine
// reports it back to the model as an observation.
type ActionError struct {
	Kind   ActionErrorKind
	Index  int
	Reason string
}

func (e *ActionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s (index %d)", e.Kind, e.Index)
	}
	return fmt.Sprintf("%s (index %d): %s", e.Kind, e.Index, e.Reason)
}

// EngineError terminates a run.
type EngineError struct {
	Reason string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return "engine: " + e.Reason
	}
	return fmt.Sprintf("engine: %s: %v", e.Reason, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// ErrElementNotFound is returned by browser ports when an index does not
// resolve to an element of the last observation.
var ErrElementNotFound = errors.New("element not found")
