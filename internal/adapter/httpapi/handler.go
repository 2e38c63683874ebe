package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pa-agent/internal/application/port/input"
	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	forms   input.FormSubmitter
	tracker input.Tracker
	ledger  output.Ledger
	logger  output.LoggerPort
	service string
}

func NewHandler(forms input.FormSubmitter, tracker input.Tracker, ledger output.Ledger, logger output.LoggerPort, service string) *Handler {
	return &Handler{forms: forms, tracker: tracker, ledger: ledger, logger: logger, service: service}
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": h.service})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": h.service})
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	var req submitFormRequest
	if !h.decode(w, r, &req) {
		return
	}

	accepted, err := h.forms.Submit(r.Context(), input.SubmitRequest{
		AccountID:  req.AccountID,
		CustomData: entity.CaseRecord(req.CustomData),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Form filling process started",
		Data: map[string]string{
			"status":     "processing",
			"request_id": accepted.RequestID,
		},
	})
}

func (h *Handler) startTracking(w http.ResponseWriter, r *http.Request) {
	var req startTrackingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.CustomInterval < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "custom_interval must be positive"})
		return
	}

	started, err := h.tracker.Start(r.Context(), input.TrackRequest{
		TrackingID: req.CustomTrackingID,
		Interval:   time.Duration(req.CustomInterval * float64(time.Second)),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Tracker Agent has started",
		Data: map[string]any{
			"status":           "tracking",
			"tracking_id":      started.TrackingID,
			"interval_seconds": int(started.Interval / time.Second),
			"request_id":       started.RequestID,
		},
	})
}

func (h *Handler) trackingStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "requestID")
	req, ok := h.tracker.Status(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "not_found",
			"message": "Request ID not found or task completed",
		})
		return
	}
	writeJSON(w, http.StatusOK, toTrackingStatus(req))
}

func (h *Handler) activeTasks(w http.ResponseWriter, r *http.Request) {
	active := h.tracker.Active()
	tasks := make(map[string]trackingStatus, len(active))
	for _, req := range active {
		tasks[req.RequestID] = toTrackingStatus(req)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_tasks": tasks,
		"count":        len(tasks),
	})
}

func (h *Handler) cancelTracking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "requestID")
	if err := h.tracker.Cancel(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Cancellation requested",
		Data:    map[string]string{"request_id": id},
	})
}

func (h *Handler) requestLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "requestID")
	entries, err := h.ledger.Entries(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]ledgerEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntry{
			Timestamp: e.Timestamp.Format("2006-01-02 15:04:05"),
			Action:    e.Action,
			Detail:    e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"request_id": id, "entries": out})
}

// decode reads an optional JSON body. An empty body leaves v untouched and
// fields the request types do not name are ignored.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var cfgErr *entity.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Configuration error: " + err.Error(),
			Missing: cfgErr.Missing,
		})
	case errors.Is(err, entity.ErrRequestNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
