package console

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-console/internal/appointments"
	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

var errInvalidFilter = errors.New("console: invalid filter")

// AppointmentsResponse is the body of every appointments endpoint.
type AppointmentsResponse struct {
	View    string               `json:"view"`
	State   *appointments.View   `json:"state"`
	Rows    []appointments.Row   `json:"rows"`
	Options appointments.Options `json:"options"`
	// NoMatches is set when the list has rows but the filter hides all of them.
	NoMatches bool   `json:"no_matches"`
	Error     string `json:"error,omitempty"`
}

// AppointmentsHandler exposes the scheduled-appointments view.
type AppointmentsHandler struct {
	editor *editor.Editor[clinicapi.Appointment, struct{}]
	store  viewstate.Store
	loc    *time.Location
	logger *logging.Logger
}

func NewAppointmentsHandler(ed *editor.Editor[clinicapi.Appointment, struct{}], store viewstate.Store, loc *time.Location, logger *logging.Logger) *AppointmentsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentsHandler{
		editor: ed,
		store:  store,
		loc:    loc,
		logger: logger.Component("console").With("view", ed.Name()),
	}
}

func (h *AppointmentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	r.Put("/filter", h.SetFilter)
	r.Post("/delete/confirm", h.ConfirmDelete)
	r.Post("/delete/cancel", h.CancelDelete)
	r.Post("/delete/{key}", h.RequestDelete)
	return r
}

// Show refetches and returns the filtered list.
// GET /api/sessions/{sessionID}/appointments
func (h *AppointmentsHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, v *appointments.View) error {
		return h.editor.List(ctx, &v.State)
	})
}

// SetFilter replaces the filter. Filtering never reaches the backend.
// PUT /api/sessions/{sessionID}/appointments/filter
func (h *AppointmentsHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var f appointments.Filter
	if err := decodeBody(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(_ context.Context, v *appointments.View) error {
		if err := f.Validate(); err != nil {
			return errors.Join(errInvalidFilter, err)
		}
		v.Filter = f
		return nil
	})
}

// RequestDelete asks for confirmation before cancelling {key}.
// POST /api/sessions/{sessionID}/appointments/delete/{key}
func (h *AppointmentsHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	h.apply(w, r, func(_ context.Context, v *appointments.View) error {
		return h.editor.RequestDelete(&v.State, key)
	})
}

// ConfirmDelete cancels the pending appointment.
// POST /api/sessions/{sessionID}/appointments/delete/confirm
func (h *AppointmentsHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, v *appointments.View) error {
		return h.editor.ConfirmDelete(ctx, &v.State)
	})
}

// CancelDelete drops the pending delete.
// POST /api/sessions/{sessionID}/appointments/delete/cancel
func (h *AppointmentsHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, v *appointments.View) error {
		h.editor.CancelDelete(&v.State)
		return nil
	})
}

func (h *AppointmentsHandler) apply(w http.ResponseWriter, r *http.Request, action func(context.Context, *appointments.View) error) {
	ctx := r.Context()
	session, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	v := appointments.NewView()
	found, err := h.store.Load(ctx, session, h.editor.Name(), v)
	if err != nil {
		h.logger.Warn("failed to load view state, starting fresh", "session_id", session, "error", err)
		v = appointments.NewView()
	}
	v.ClearNotice()
	if !found || !v.Loaded {
		_ = h.editor.List(ctx, &v.State)
	}

	actionErr := action(ctx, v)
	status := statusFor(actionErr)
	if actionErr != nil && status == http.StatusInternalServerError {
		h.logger.Error("view action failed", "session_id", session, "error", actionErr)
	}

	if err := h.store.Save(ctx, session, h.editor.Name(), v); err != nil {
		h.logger.Error("failed to save view state", "session_id", session, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	visible := v.Visible(h.loc)
	writeJSON(w, status, AppointmentsResponse{
		View:      h.editor.Name(),
		State:     v,
		Rows:      appointments.Rows(visible, h.loc),
		Options:   appointments.OptionsFor(v.Records),
		NoMatches: len(v.Records) > 0 && len(visible) == 0,
		Error:     errorText(actionErr, status),
	})
}
