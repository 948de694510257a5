package clinicapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListSpecialties returns every specialty.
// GET /especialidades
func (c *Client) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	var out []Specialty
	if err := c.do(ctx, call{resource: ResourceSpecialties, op: "list", method: http.MethodGet, path: "/especialidades"}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateSpecialty registers a specialty.
// POST /especialidades
func (c *Client) CreateSpecialty(ctx context.Context, s Specialty) (*Specialty, error) {
	s.ID = 0
	var out Specialty
	if err := c.do(ctx, call{echo: true, resource: ResourceSpecialties, op: "create", method: http.MethodPost, path: "/especialidades", body: s}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSpecialty renames the specialty with the given id.
// PUT /especialidades/{id}
func (c *Client) UpdateSpecialty(ctx context.Context, id int, s Specialty) (*Specialty, error) {
	s.ID = 0
	var out Specialty
	path := fmt.Sprintf("/especialidades/%d", id)
	if err := c.do(ctx, call{echo: true, resource: ResourceSpecialties, op: "update", method: http.MethodPut, path: path, body: s}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSpecialty removes the specialty with the given id.
// DELETE /especialidades/{id}
func (c *Client) DeleteSpecialty(ctx context.Context, id int) error {
	path := fmt.Sprintf("/especialidades/%d", id)
	return c.do(ctx, call{resource: ResourceSpecialties, op: "delete", method: http.MethodDelete, path: path}, nil)
}
