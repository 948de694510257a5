// Package editor implements the list/editor view shared by every resource
// screen: a table fed from the query cache, a side panel for create and
// update, and a confirmation step before deletes.
//
// State is a plain serializable record; Editor holds the behaviour and
// mutates a *State passed in by the caller.
package editor

import (
	"errors"
	"sort"
	"strings"
)

// Mode is the view's UI state.
type Mode string

const (
	ModeViewing          Mode = "viewing"
	ModeEditing          Mode = "editing"
	ModeConfirmingDelete Mode = "confirming_delete"
)

var (
	ErrReadOnly          = errors.New("editor: resource is read-only")
	ErrRecordNotFound    = errors.New("editor: record not found")
	ErrNotEditing        = errors.New("editor: no form is open")
	ErrNothingPending    = errors.New("editor: no delete awaiting confirmation")
	ErrInvalidTransition = errors.New("editor: action not allowed in current mode")
)

// NoticeKind classifies transient notices.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the transient message shown after an action.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Fields returns the offending field names, sorted.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for f := range fe {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ValidationError blocks a submission before it reaches the network.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "editor: validation failed: " + strings.Join(e.Fields.Fields(), ", ")
}

// State is the serializable view state of one resource screen.
type State[R any, F any] struct {
	Mode Mode `json:"mode"`

	Loaded    bool   `json:"loaded"`
	LoadError string `json:"load_error,omitempty"`
	Records   []R    `json:"records"`
	// Empty is set when a successful fetch returned no rows.
	Empty bool `json:"empty"`

	Form        F           `json:"form"`
	Creating    bool        `json:"creating,omitempty"`
	Original    *R          `json:"original,omitempty"`
	Locked      []string    `json:"locked,omitempty"`
	FieldErrors FieldErrors `json:"field_errors,omitempty"`

	PendingDelete *R     `json:"pending_delete,omitempty"`
	DeleteSummary string `json:"delete_summary,omitempty"`

	Notice *Notice `json:"notice,omitempty"`
}

// IsLocked reports whether field is read-only in the open form.
func (s *State[R, F]) IsLocked(field string) bool {
	for _, f := range s.Locked {
		if f == field {
			return true
		}
	}
	return false
}

// ClearNotice drops the transient notice.
func (s *State[R, F]) ClearNotice() {
	s.Notice = nil
}

func (s *State[R, F]) closeForm() {
	var blank F
	s.Mode = ModeViewing
	s.Form = blank
	s.Creating = false
	s.Original = nil
	s.Locked = nil
	s.FieldErrors = nil
}
