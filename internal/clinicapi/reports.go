package clinicapi

import (
	"context"
	"net/http"
)

// PatientsByPlan returns the patients-per-plan distribution.
// GET /relatorios/pacientes-por-plano
func (c *Client) PatientsByPlan(ctx context.Context) ([]PlanShare, error) {
	var out []PlanShare
	if err := c.do(ctx, call{resource: ResourceReports, op: "patients_by_plan", method: http.MethodGet, path: "/relatorios/pacientes-por-plano"}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// NewPatientsPerMonth returns the monthly new-patient series.
// GET /relatorios/novos-pacientes-por-mes
func (c *Client) NewPatientsPerMonth(ctx context.Context) ([]MonthlyCount, error) {
	var out []MonthlyCount
	if err := c.do(ctx, call{resource: ResourceReports, op: "new_patients_per_month", method: http.MethodGet, path: "/relatorios/novos-pacientes-por-mes"}, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// AgeSummary returns the age-bracket counters.
// GET /relatorios/resumo-idades
func (c *Client) AgeSummary(ctx context.Context) (*AgeSummary, error) {
	var out AgeSummary
	if err := c.do(ctx, call{resource: ResourceReports, op: "age_summary", method: http.MethodGet, path: "/relatorios/resumo-idades"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
