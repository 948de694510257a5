package clinicapi

import (
	"context"
	"net/http"
)

// ListPatients returns every patient.
// GET /pacientes
func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	var out []Patient
	if err := c.do(ctx, call{resource: ResourcePatients, op: "list", method: http.MethodGet, path: "/pacientes"}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreatePatient registers a patient.
// POST /pacientes
func (c *Client) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, call{echo: true, resource: ResourcePatients, op: "create", method: http.MethodPost, path: "/pacientes", body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePatient replaces a patient record keyed by national ID.
// PUT /pacientes/editarpacientes
func (c *Client) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	var out Patient
	if err := c.do(ctx, call{echo: true, resource: ResourcePatients, op: "update", method: http.MethodPut, path: "/pacientes/editarpacientes", body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePatient removes the patient with the given national ID (digits only).
// DELETE /pacientes/deletarpaciente
func (c *Client) DeletePatient(ctx context.Context, nationalID string) error {
	body := map[string]string{"cpf_paciente": nationalID}
	return c.do(ctx, call{resource: ResourcePatients, op: "delete", method: http.MethodDelete, path: "/pacientes/deletarpaciente", body: body}, nil)
}
