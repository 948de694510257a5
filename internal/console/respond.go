// Package console serves the console views as JSON over HTTP. Every handler
// loads the caller's view state from the store, applies one action and saves
// the result before responding.
package console

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/clinic-console/internal/booking"
	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
)

// errorBody is returned for requests that never reached a view.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeBody decodes an optional JSON body into dst. An empty body is fine.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// sessionID returns the validated session id from the URL.
func sessionID(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// statusFor maps an action error to the response status. Gateway failures
// are part of the view state and answer 200.
func statusFor(err error) int {
	var (
		validation *editor.ValidationError
		request    *clinicapi.RequestError
		network    *clinicapi.NetworkError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &request), errors.As(err, &network):
		return http.StatusOK
	case errors.Is(err, editor.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrReadOnly):
		return http.StatusMethodNotAllowed
	case errors.Is(err, editor.ErrInvalidTransition),
		errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, editor.ErrNothingPending),
		errors.Is(err, booking.ErrStepLocked),
		errors.Is(err, booking.ErrSubmitted):
		return http.StatusConflict
	case errors.Is(err, booking.ErrUnknownStep):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrUnknownOption),
		errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrDateInPast),
		errors.Is(err, booking.ErrInvalidTime),
		errors.Is(err, booking.ErrIncomplete),
		errors.Is(err, errInvalidFilter):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorText is the error string echoed next to the state; gateway failures
// are already rendered into the state's notice.
func errorText(err error, status int) string {
	if err == nil || status == http.StatusOK {
		return ""
	}
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
