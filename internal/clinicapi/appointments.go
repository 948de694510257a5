package clinicapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListAppointments returns scheduled appointments. A non-zero doctorID narrows
// the list server-side.
// GET /disponibilidades/consultas
func (c *Client) ListAppointments(ctx context.Context, doctorID int) ([]Appointment, error) {
	var q url.Values
	if doctorID != 0 {
		q = url.Values{"medico_id": {strconv.Itoa(doctorID)}}
	}
	var out []Appointment
	if err := c.do(ctx, call{resource: ResourceAppointments, op: "list", method: http.MethodGet, path: "/disponibilidades/consultas", query: q}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateAppointment books an appointment. Slot availability is not checked
// here; the backend is authoritative.
// POST /disponibilidades/consultas
func (c *Client) CreateAppointment(ctx context.Context, a NewAppointment) error {
	return c.do(ctx, call{resource: ResourceAppointments, op: "create", method: http.MethodPost, path: "/disponibilidades/consultas", body: a}, nil)
}

// DeleteAppointment cancels an appointment by id.
// DELETE /disponibilidades/consultas/{id}
func (c *Client) DeleteAppointment(ctx context.Context, id int) error {
	path := fmt.Sprintf("/disponibilidades/consultas/%d", id)
	return c.do(ctx, call{resource: ResourceAppointments, op: "delete", method: http.MethodDelete, path: path}, nil)
}

// ListAvailability returns the availability windows of a doctor.
// GET /disponibilidades?medico_id={id}
func (c *Client) ListAvailability(ctx context.Context, doctorID int) ([]AvailabilitySlot, error) {
	q := url.Values{"medico_id": {strconv.Itoa(doctorID)}}
	var out []AvailabilitySlot
	if err := c.do(ctx, call{resource: ResourceAvailability, op: "list", method: http.MethodGet, path: "/disponibilidades", query: q}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}
