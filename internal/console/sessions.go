package console

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

const sessionView = "session"

type sessionRecord struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionHandler opens and closes operator sessions.
type SessionHandler struct {
	store  viewstate.Store
	logger *logging.Logger
	now    func() time.Time
}

func NewSessionHandler(store viewstate.Store, logger *logging.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger.Component("sessions"), now: time.Now}
}

// Create opens a session.
// POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec := sessionRecord{ID: uuid.NewString(), CreatedAt: h.now().UTC()}
	if err := h.store.Save(r.Context(), rec.ID, sessionView, rec); err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.Info("session opened", "session_id", rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// Delete drops every view state of the session.
// DELETE /api/sessions/{sessionID}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequireSession rejects requests whose session was never opened or expired.
// Every accepted request extends the session's lifetime.
func (h *SessionHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		rec, found, err := h.lookup(r.Context(), id)
		if err != nil {
			h.logger.Error("failed to load session", "session_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err := h.store.Save(r.Context(), id, sessionView, rec); err != nil {
			h.logger.Warn("failed to refresh session", "session_id", id, "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *SessionHandler) lookup(ctx context.Context, id string) (sessionRecord, bool, error) {
	var rec sessionRecord
	found, err := h.store.Load(ctx, id, sessionView, &rec)
	return rec, found, err
}
