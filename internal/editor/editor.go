package editor

import (
	"context"
	"fmt"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/observability/metrics"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// Editor drives a State for one resource.
type Editor[R any, F any] struct {
	res     Resource[R, F]
	writer  Writer[R, F]
	cache   *querycache.Cache
	logger  *logging.Logger
	metrics *metrics.ViewMetrics
}

// New builds an editor. Resources that also implement Writer get create and
// update; the rest are list-and-delete only.
func New[R any, F any](res Resource[R, F], cache *querycache.Cache, logger *logging.Logger, m *metrics.ViewMetrics) *Editor[R, F] {
	if res == nil {
		panic("editor: resource required")
	}
	if cache == nil {
		panic("editor: cache required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Editor[R, F]{
		res:     res,
		cache:   cache,
		logger:  logger.Component("editor").With("view", res.Name()),
		metrics: m,
	}
	if w, ok := any(res).(Writer[R, F]); ok {
		e.writer = w
	}
	return e
}

// Name returns the view name.
func (e *Editor[R, F]) Name() string { return e.res.Name() }

// Resource returns the underlying resource adapter.
func (e *Editor[R, F]) Resource() Resource[R, F] { return e.res }

// Writable reports whether create and update are available.
func (e *Editor[R, F]) Writable() bool { return e.writer != nil }

// NewState returns the initial Viewing state.
func (e *Editor[R, F]) NewState() *State[R, F] {
	return &State[R, F]{Mode: ModeViewing, Records: []R{}}
}

// List refreshes Records from the cache. On failure the table is dropped and
// LoadError is set; the form and mode are left alone.
func (e *Editor[R, F]) List(ctx context.Context, st *State[R, F]) error {
	records, err := querycache.Typed[[]R](ctx, e.cache, e.res.Name())
	if err != nil {
		st.Loaded = false
		st.Records = []R{}
		st.Empty = false
		st.LoadError = clinicapi.UserMessage(err, e.res.Messages().LoadFailed)
		e.metrics.ObserveAction(e.res.Name(), "list", "error")
		return fmt.Errorf("editor: list %s: %w", e.res.Name(), err)
	}
	st.Loaded = true
	st.LoadError = ""
	st.Records = records
	st.Empty = len(records) == 0
	e.metrics.ObserveAction(e.res.Name(), "list", "ok")
	return nil
}

// Find returns the row with the given key from the last fetch.
func (e *Editor[R, F]) Find(st *State[R, F], key string) (R, bool) {
	for _, r := range st.Records {
		if e.res.Key(r) == key {
			return r, true
		}
	}
	var zero R
	return zero, false
}

// OpenCreate opens an empty form.
func (e *Editor[R, F]) OpenCreate(st *State[R, F]) error {
	if e.writer == nil {
		return ErrReadOnly
	}
	if st.Mode == ModeConfirmingDelete {
		return ErrInvalidTransition
	}
	st.closeForm()
	st.Mode = ModeEditing
	st.Creating = true
	st.Form = e.writer.Blank()
	st.ClearNotice()
	return nil
}

// OpenEdit opens the form seeded with a copy of the selected row.
func (e *Editor[R, F]) OpenEdit(st *State[R, F], key string) error {
	if e.writer == nil {
		return ErrReadOnly
	}
	if st.Mode == ModeConfirmingDelete {
		return ErrInvalidTransition
	}
	record, ok := e.Find(st, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	st.closeForm()
	st.Mode = ModeEditing
	original := record
	st.Original = &original
	st.Form = e.writer.FormFor(record)
	st.Locked = append([]string(nil), e.writer.Locked()...)
	st.ClearNotice()
	return nil
}

// Close dismisses the form without any API call.
func (e *Editor[R, F]) Close(st *State[R, F]) {
	if st.Mode == ModeEditing {
		st.closeForm()
	}
}

// Submit validates, normalizes and sends the form. On success the panel
// closes, a notice is set and the list is refetched after the cache entry
// is invalidated. On failure the panel stays open with the submitted values.
func (e *Editor[R, F]) Submit(ctx context.Context, st *State[R, F], form F) error {
	if e.writer == nil {
		return ErrReadOnly
	}
	if st.Mode != ModeEditing {
		return ErrNotEditing
	}
	if st.Original != nil {
		form = e.writer.Restore(form, *st.Original)
	}
	st.Form = form

	if errs := e.writer.Validate(ctx, form); len(errs) > 0 {
		st.FieldErrors = errs
		for _, f := range errs.Fields() {
			e.metrics.ObserveValidationFailure(e.res.Name(), f)
		}
		return &ValidationError{Fields: errs}
	}
	st.FieldErrors = nil

	msgs := e.res.Messages()
	normalized := e.writer.Normalize(form)
	var (
		err                  error
		action, okMsg, fbMsg string
	)
	if st.Original == nil {
		action, okMsg, fbMsg = "create", msgs.Created, msgs.CreateFailed
		err = e.writer.Create(ctx, normalized)
	} else {
		action, okMsg, fbMsg = "update", msgs.Updated, msgs.UpdateFailed
		err = e.writer.Update(ctx, *st.Original, normalized)
	}
	if err != nil {
		st.Notice = &Notice{Kind: NoticeError, Text: clinicapi.UserMessage(err, fbMsg)}
		e.metrics.ObserveAction(e.res.Name(), action, "error")
		e.logger.Warn("submit failed", "action", action, "error", err)
		return fmt.Errorf("editor: %s %s: %w", action, e.res.Name(), err)
	}

	e.metrics.ObserveAction(e.res.Name(), action, "ok")
	e.logger.Info("record saved", "action", action)
	st.closeForm()
	e.afterMutation(ctx, st, okMsg)
	return nil
}

// RequestDelete opens the confirmation step for the given row.
func (e *Editor[R, F]) RequestDelete(st *State[R, F], key string) error {
	if st.Mode == ModeEditing {
		return ErrInvalidTransition
	}
	record, ok := e.Find(st, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	target := record
	st.Mode = ModeConfirmingDelete
	st.PendingDelete = &target
	st.DeleteSummary = e.res.Describe(record)
	st.ClearNotice()
	return nil
}

// CancelDelete returns to Viewing without touching the API.
func (e *Editor[R, F]) CancelDelete(st *State[R, F]) {
	if st.Mode != ModeConfirmingDelete {
		return
	}
	st.Mode = ModeViewing
	st.PendingDelete = nil
	st.DeleteSummary = ""
}

// ConfirmDelete deletes the pending row and refetches.
func (e *Editor[R, F]) ConfirmDelete(ctx context.Context, st *State[R, F]) error {
	if st.Mode != ModeConfirmingDelete || st.PendingDelete == nil {
		return ErrNothingPending
	}
	target := *st.PendingDelete
	st.Mode = ModeViewing
	st.PendingDelete = nil
	st.DeleteSummary = ""

	msgs := e.res.Messages()
	if err := e.res.Delete(ctx, target); err != nil {
		st.Notice = &Notice{Kind: NoticeError, Text: clinicapi.UserMessage(err, msgs.DeleteFailed)}
		e.metrics.ObserveAction(e.res.Name(), "delete", "error")
		e.logger.Warn("delete failed", "key", e.res.Key(target), "error", err)
		return fmt.Errorf("editor: delete %s: %w", e.res.Name(), err)
	}
	e.metrics.ObserveAction(e.res.Name(), "delete", "ok")
	e.logger.Info("record deleted", "key", e.res.Key(target))
	e.afterMutation(ctx, st, msgs.Deleted)
	return nil
}

// afterMutation runs once the mutation response arrived: invalidate, refetch,
// notify. A failed refetch shows up as LoadError next to the success notice.
func (e *Editor[R, F]) afterMutation(ctx context.Context, st *State[R, F], msg string) {
	e.cache.Invalidate(e.res.Name())
	if err := e.List(ctx, st); err != nil {
		e.logger.Warn("refetch after mutation failed", "error", err)
	}
	st.Notice = &Notice{Kind: NoticeSuccess, Text: msg}
}
