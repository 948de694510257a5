package console

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-console/internal/booking"
	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// BookingResponse is the body of every booking endpoint.
type BookingResponse struct {
	View      string          `json:"view"`
	State     *booking.State  `json:"state"`
	Summary   booking.Summary `json:"summary"`
	Reachable map[string]bool `json:"reachable"`
	Error     string          `json:"error,omitempty"`
}

type idRequest struct {
	ID int `json:"id"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type timeRequest struct {
	Time string `json:"time"`
}

// BookingHandler exposes the booking wizard.
type BookingHandler struct {
	wizard *booking.Wizard
	store  viewstate.Store
	logger *logging.Logger
}

func NewBookingHandler(wizard *booking.Wizard, store viewstate.Store, logger *logging.Logger) *BookingHandler {
	return &BookingHandler{wizard: wizard, store: store, logger: logger.Component("console").With("view", booking.ViewName)}
}

func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	r.Post("/step/{n}", h.GoTo)
	r.Post("/next", h.Next)
	r.Post("/patient", h.SelectPatient)
	r.Post("/specialty", h.SelectSpecialty)
	r.Post("/doctor", h.SelectDoctor)
	r.Post("/date", h.SelectDate)
	r.Post("/time", h.SelectTime)
	r.Post("/confirm", h.Confirm)
	r.Post("/reset", h.Reset)
	return r
}

// Show refreshes the patient and specialty options.
// GET /api/sessions/{sessionID}/booking
func (h *BookingHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, st *booking.State) error {
		return h.wizard.Load(ctx, st)
	})
}

// GoTo jumps to step {n}.
// POST /api/sessions/{sessionID}/booking/step/{n}
func (h *BookingHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid step")
		return
	}
	h.apply(w, r, func(_ context.Context, st *booking.State) error {
		return h.wizard.GoTo(st, booking.Step(n))
	})
}

// Next advances one step.
// POST /api/sessions/{sessionID}/booking/next
func (h *BookingHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, st *booking.State) error {
		return h.wizard.Next(st)
	})
}

// SelectPatient picks the patient.
// POST /api/sessions/{sessionID}/booking/patient
func (h *BookingHandler) SelectPatient(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(_ context.Context, st *booking.State) error {
		return h.wizard.SelectPatient(st, req.ID)
	})
}

// SelectSpecialty picks the specialty and loads its doctors.
// POST /api/sessions/{sessionID}/booking/specialty
func (h *BookingHandler) SelectSpecialty(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(ctx context.Context, st *booking.State) error {
		return h.wizard.SelectSpecialty(ctx, st, req.ID)
	})
}

// SelectDoctor picks the doctor and loads the doctor's availability.
// POST /api/sessions/{sessionID}/booking/doctor
func (h *BookingHandler) SelectDoctor(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(ctx context.Context, st *booking.State) error {
		return h.wizard.SelectDoctor(ctx, st, req.ID)
	})
}

// SelectDate picks the day.
// POST /api/sessions/{sessionID}/booking/date
func (h *BookingHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(_ context.Context, st *booking.State) error {
		return h.wizard.SelectDate(st, req.Date)
	})
}

// SelectTime picks the time of day.
// POST /api/sessions/{sessionID}/booking/time
func (h *BookingHandler) SelectTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(_ context.Context, st *booking.State) error {
		return h.wizard.SelectTime(st, req.Time)
	})
}

// Confirm books the appointment.
// POST /api/sessions/{sessionID}/booking/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, st *booking.State) error {
		return h.wizard.Confirm(ctx, st)
	})
}

// Reset starts the wizard over.
// POST /api/sessions/{sessionID}/booking/reset
func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, st *booking.State) error {
		h.wizard.Reset(st)
		return nil
	})
}

func (h *BookingHandler) apply(w http.ResponseWriter, r *http.Request, action func(context.Context, *booking.State) error) {
	ctx := r.Context()
	session, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	st := h.wizard.NewState()
	found, err := h.store.Load(ctx, session, booking.ViewName, st)
	if err != nil {
		h.logger.Warn("failed to load wizard state, starting fresh", "session_id", session, "error", err)
		st = h.wizard.NewState()
	}
	if !found {
		_ = h.wizard.Load(ctx, st)
	}

	actionErr := action(ctx, st)
	status := statusFor(actionErr)
	if actionErr != nil && status == http.StatusInternalServerError {
		h.logger.Error("wizard action failed", "session_id", session, "error", actionErr)
	}

	if err := h.store.Save(ctx, session, booking.ViewName, st); err != nil {
		h.logger.Error("failed to save wizard state", "session_id", session, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	reachable := make(map[string]bool, int(booking.StepConfirm)+1)
	for step := booking.StepPatient; step <= booking.StepConfirm; step++ {
		reachable[strconv.Itoa(int(step))] = h.wizard.CanProceed(st, step)
	}
	writeJSON(w, status, BookingResponse{
		View:      booking.ViewName,
		State:     st,
		Summary:   h.wizard.Summary(st),
		Reachable: reachable,
		Error:     errorText(actionErr, status),
	})
}
