package clinicapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListDoctors returns every doctor.
// GET /medicos
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	if err := c.do(ctx, call{resource: ResourceDoctors, op: "list", method: http.MethodGet, path: "/medicos"}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// ListDoctorsBySpecialty returns the doctors of one specialty.
// GET /medicos?especialidade_id={id}
func (c *Client) ListDoctorsBySpecialty(ctx context.Context, specialtyID int) ([]Doctor, error) {
	var out []Doctor
	q := url.Values{"especialidade_id": {strconv.Itoa(specialtyID)}}
	if err := c.do(ctx, call{resource: ResourceDoctors, op: "list_by_specialty", method: http.MethodGet, path: "/medicos", query: q}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateDoctor registers a doctor.
// POST /medicos/criarmedico
func (c *Client) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	d.Specialty = nil
	var out Doctor
	if err := c.do(ctx, call{echo: true, resource: ResourceDoctors, op: "create", method: http.MethodPost, path: "/medicos/criarmedico", body: d}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDoctor replaces a doctor record; the backend keys it by national ID.
// PUT /medicos/editarMedico
func (c *Client) UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	d.Specialty = nil
	var out Doctor
	if err := c.do(ctx, call{echo: true, resource: ResourceDoctors, op: "update", method: http.MethodPut, path: "/medicos/editarMedico", body: d}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDoctor removes the doctor with the given national ID (digits only).
// DELETE /medicos/deletarmedico
func (c *Client) DeleteDoctor(ctx context.Context, nationalID string) error {
	body := map[string]string{"cpf_medico": nationalID}
	return c.do(ctx, call{resource: ResourceDoctors, op: "delete", method: http.MethodDelete, path: "/medicos/deletarmedico", body: body}, nil)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
