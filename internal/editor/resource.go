package editor

import "context"

// Messages are the operator-facing texts of one resource screen.
type Messages struct {
	Created      string
	Updated      string
	Deleted      string
	CreateFailed string
	UpdateFailed string
	DeleteFailed string
	LoadFailed   string
}

// Resource is the minimum a screen needs: list (through the cache under
// Name) and delete.
type Resource[R any, F any] interface {
	// Name is the view name and the query cache key of the collection.
	Name() string
	Key(record R) string
	// Describe renders the human-readable summary shown before a delete.
	Describe(record R) string
	Delete(ctx context.Context, record R) error
	Messages() Messages
}

// Writer is implemented by resources that support create and update.
type Writer[R any, F any] interface {
	Blank() F
	FormFor(record R) F
	// Locked lists the fields that are read-only while editing.
	Locked() []string
	// Restore puts the original values back into locked fields.
	Restore(form F, original R) F
	Validate(ctx context.Context, form F) FieldErrors
	// Normalize strips display formatting before the form is sent.
	Normalize(form F) F
	Create(ctx context.Context, form F) error
	Update(ctx context.Context, original R, form F) error
}
