package editor

import (
	"strings"
	"time"
)

// Shared validation messages.
const (
	MsgRequired    = "Campo obrigatório"
	MsgInvalidDate = "Data inválida"
	MsgFutureDate  = "A data não pode estar no futuro"
)

// Required flags field when value is blank.
func Required(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, MsgRequired)
	}
}

// PastDate checks a required date-input value that may not lie after now.
func PastDate(errs FieldErrors, field, value string, now time.Time) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, MsgRequired)
		return
	}
	d, err := ParseFormDate(value)
	if err != nil {
		errs.Add(field, MsgInvalidDate)
		return
	}
	if d.After(now) {
		errs.Add(field, MsgFutureDate)
	}
}
