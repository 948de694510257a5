package console

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// Presenter derives the table rows and select options shown next to a state.
type Presenter[R any, F any] func(ctx context.Context, st *editor.State[R, F]) (rows any, options any)

// EditorResponse is the body of every editor endpoint.
type EditorResponse[R any, F any] struct {
	View     string              `json:"view"`
	Writable bool                `json:"writable"`
	State    *editor.State[R, F] `json:"state"`
	Rows     any                 `json:"rows"`
	Options  any                 `json:"options,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// EditorHandler exposes one list/editor view.
type EditorHandler[R any, F any] struct {
	editor  *editor.Editor[R, F]
	store   viewstate.Store
	present Presenter[R, F]
	logger  *logging.Logger
}

// NewEditorHandler builds the handler. A nil presenter renders the raw records.
func NewEditorHandler[R any, F any](ed *editor.Editor[R, F], store viewstate.Store, present Presenter[R, F], logger *logging.Logger) *EditorHandler[R, F] {
	return &EditorHandler[R, F]{
		editor:  ed,
		store:   store,
		present: present,
		logger:  logger.Component("console").With("view", ed.Name()),
	}
}

// Routes returns the view's routes, mounted under /api/sessions/{sessionID}/{view}.
func (h *EditorHandler[R, F]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	r.Post("/create", h.OpenCreate)
	r.Post("/edit/{key}", h.OpenEdit)
	r.Post("/close", h.Close)
	r.Post("/submit", h.Submit)
	r.Post("/delete/confirm", h.ConfirmDelete)
	r.Post("/delete/cancel", h.CancelDelete)
	r.Post("/delete/{key}", h.RequestDelete)
	return r
}

// Show refetches the list and returns the state.
// GET /api/sessions/{sessionID}/{view}
func (h *EditorHandler[R, F]) Show(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, st *editor.State[R, F]) error {
		return h.editor.List(ctx, st)
	})
}

// OpenCreate opens an empty form.
// POST /api/sessions/{sessionID}/{view}/create
func (h *EditorHandler[R, F]) OpenCreate(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, st *editor.State[R, F]) error {
		return h.editor.OpenCreate(st)
	})
}

// OpenEdit opens the form for the row identified by {key}.
// POST /api/sessions/{sessionID}/{view}/edit/{key}
func (h *EditorHandler[R, F]) OpenEdit(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	h.apply(w, r, func(_ context.Context, st *editor.State[R, F]) error {
		return h.editor.OpenEdit(st, key)
	})
}

// Close dismisses the form.
// POST /api/sessions/{sessionID}/{view}/close
func (h *EditorHandler[R, F]) Close(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, st *editor.State[R, F]) error {
		h.editor.Close(st)
		return nil
	})
}

// Submit sends the form in the request body.
// POST /api/sessions/{sessionID}/{view}/submit
func (h *EditorHandler[R, F]) Submit(w http.ResponseWriter, r *http.Request) {
	var form F
	if err := decodeBody(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.apply(w, r, func(ctx context.Context, st *editor.State[R, F]) error {
		return h.editor.Submit(ctx, st, form)
	})
}

// RequestDelete asks for confirmation before deleting {key}.
// POST /api/sessions/{sessionID}/{view}/delete/{key}
func (h *EditorHandler[R, F]) RequestDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	h.apply(w, r, func(_ context.Context, st *editor.State[R, F]) error {
		return h.editor.RequestDelete(st, key)
	})
}

// ConfirmDelete deletes the pending row.
// POST /api/sessions/{sessionID}/{view}/delete/confirm
func (h *EditorHandler[R, F]) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, st *editor.State[R, F]) error {
		return h.editor.ConfirmDelete(ctx, st)
	})
}

// CancelDelete drops the pending delete.
// POST /api/sessions/{sessionID}/{view}/delete/cancel
func (h *EditorHandler[R, F]) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, st *editor.State[R, F]) error {
		h.editor.CancelDelete(st)
		return nil
	})
}

func (h *EditorHandler[R, F]) apply(w http.ResponseWriter, r *http.Request, action func(context.Context, *editor.State[R, F]) error) {
	ctx := r.Context()
	session, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	st := h.editor.NewState()
	found, err := h.store.Load(ctx, session, h.editor.Name(), st)
	if err != nil {
		h.logger.Warn("failed to load view state, starting fresh", "session_id", session, "error", err)
		st = h.editor.NewState()
	}
	st.ClearNotice()
	if !found || !st.Loaded {
		// Row actions need the table; a failure is reported in the state.
		_ = h.editor.List(ctx, st)
	}

	actionErr := action(ctx, st)
	status := statusFor(actionErr)
	if actionErr != nil && status == http.StatusInternalServerError {
		h.logger.Error("view action failed", "session_id", session, "error", actionErr)
	}

	if err := h.store.Save(ctx, session, h.editor.Name(), st); err != nil {
		h.logger.Error("failed to save view state", "session_id", session, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := EditorResponse[R, F]{
		View:     h.editor.Name(),
		Writable: h.editor.Writable(),
		State:    st,
		Error:    errorText(actionErr, status),
	}
	if h.present != nil {
		resp.Rows, resp.Options = h.present(ctx, st)
	} else {
		resp.Rows = st.Records
	}
	writeJSON(w, status, resp)
}
