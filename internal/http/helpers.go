package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/store"
)

// sanitizeInput removes control characters (except tab and newlines) and trims.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// storeFor returns the signed-in owner's record store.
func (s *Server) storeFor(r *http.Request) (*store.Store, error) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		return nil, errors.New("no session in request context")
	}
	return s.stores.Get(r.Context(), sess.UserID)
}

// validationMessage is the inline text shown next to the form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter an amount greater than zero."
	case errors.Is(err, core.ErrInvalidSalary):
		return "Please enter a valid salary."
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date (YYYY-MM-DD)."
	case errors.Is(err, core.ErrEmptyDescription):
		return "Description is required."
	case errors.Is(err, core.ErrEmptyTask):
		return "Task is required."
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required."
	default:
		return err.Error()
	}
}

// writeStoreError reports a failed mutation. Validation problems go back to
// the form; remote failures were already logged by the store.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	switch {
	case core.IsValidation(err):
		logger.DebugContext(r.Context(), "Validation failed", log.FieldError, err)
		UnprocessableEntityError(validationMessage(err)).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("This record no longer exists.").
			TriggerRecordsChanged().
			Write(w)
	case errors.Is(err, store.ErrSuperseded):
		atomic.AddInt64(&s.appMetrics.superseded, 1)
		ErrorResponse(http.StatusConflict, "A newer change to this record is in progress.").
			TriggerRecordsChanged().
			Write(w)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The write may or may not have reached the backend.
		logger.DebugContext(r.Context(), "Request ended before the change was confirmed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "Your change could not be confirmed. Reloading the latest records.").
			TriggerRecordsChanged().
			Write(w)
	default:
		atomic.AddInt64(&s.appMetrics.writeFailures, 1)
		InternalServerError("Could not save your change. Please try again.").Write(w)
	}
}

// respondMutation acknowledges a successful change: htmx callers get triggers,
// plain form posts are redirected back to the dashboard.
func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, message string) {
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerFormReset().
			TriggerRecordsChanged().
			TriggerSuccessNotification(message).
			Write(w)
		return
	}
	redirectToDashboard(w, r)
}

// respondNotice acknowledges a request that changed nothing.
func (s *Server) respondNotice(w http.ResponseWriter, r *http.Request, message string) {
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerFormReset().
			TriggerNotification(NotificationInfo, message, 3000).
			Write(w)
		return
	}
	redirectToDashboard(w, r)
}

func redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
