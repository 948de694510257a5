package clinicapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListPlans returns every health plan.
// GET /planos
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var out []Plan
	if err := c.do(ctx, call{resource: ResourcePlans, op: "list", method: http.MethodGet, path: "/planos"}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreatePlan registers a plan.
// POST /planos/criarplano
func (c *Client) CreatePlan(ctx context.Context, p Plan) (*Plan, error) {
	p.ID = 0
	var out Plan
	if err := c.do(ctx, call{echo: true, resource: ResourcePlans, op: "create", method: http.MethodPost, path: "/planos/criarplano", body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlan updates the plan with the given id.
// PUT /planos/editarplanos/{id}
func (c *Client) UpdatePlan(ctx context.Context, id int, p Plan) (*Plan, error) {
	p.ID = 0
	var out Plan
	path := fmt.Sprintf("/planos/editarplanos/%d", id)
	if err := c.do(ctx, call{echo: true, resource: ResourcePlans, op: "update", method: http.MethodPut, path: path, body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlan removes a plan by name.
// DELETE /planos/deletarplanos
func (c *Client) DeletePlan(ctx context.Context, name string) error {
	body := map[string]string{"nome_plano": name}
	return c.do(ctx, call{resource: ResourcePlans, op: "delete", method: http.MethodDelete, path: "/planos/deletarplanos", body: body}, nil)
}
