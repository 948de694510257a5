// Package plans adapts health plans to the list/editor view.
package plans

import (
	"context"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
)

const (
	MsgInvalidPrice  = "Preço inválido"
	MsgNegativePrice = "O preço não pode ser negativo"
)

// API is the slice of the gateway client the plans screen needs.
type API interface {
	CreatePlan(ctx context.Context, p clinicapi.Plan) (*clinicapi.Plan, error)
	UpdatePlan(ctx context.Context, id int, p clinicapi.Plan) (*clinicapi.Plan, error)
	DeletePlan(ctx context.Context, name string) error
}

// Form is the create/edit panel. Price is kept as typed so that "49,90" and
// "49.90" both survive a failed validation round.
type Form struct {
	ID    int    `json:"id_plano,omitempty"`
	Name  string `json:"nome_plano"`
	Price string `json:"preco"`
}

// Row is one line of the plans table.
type Row struct {
	Key   string `json:"key"`
	Name  string `json:"nome"`
	Price string `json:"preco"`
}

// Resource implements editor.Resource and editor.Writer for plans.
type Resource struct {
	api API
}

func New(api API) *Resource {
	return &Resource{api: api}
}

func (r *Resource) Name() string { return clinicapi.ResourcePlans }

func (r *Resource) Key(p clinicapi.Plan) string { return strconv.Itoa(p.ID) }

func (r *Resource) Describe(p clinicapi.Plan) string {
	return "Plano: " + p.Name + "\nPreço: " + p.Price.BRL()
}

func (r *Resource) Messages() editor.Messages {
	return editor.Messages{
		Created:      "Plano criado com sucesso!",
		Updated:      "Plano atualizado com sucesso!",
		Deleted:      "Plano excluído com sucesso!",
		CreateFailed: "Erro ao criar plano",
		UpdateFailed: "Erro ao atualizar plano",
		DeleteFailed: "Erro ao excluir plano",
		LoadFailed:   "Erro ao carregar planos",
	}
}

// Delete removes the plan by name; the backend keys plan deletes on it.
func (r *Resource) Delete(ctx context.Context, p clinicapi.Plan) error {
	return r.api.DeletePlan(ctx, p.Name)
}

func (r *Resource) Blank() Form { return Form{} }

func (r *Resource) FormFor(p clinicapi.Plan) Form {
	return Form{
		ID:    p.ID,
		Name:  p.Name,
		Price: strconv.FormatFloat(float64(p.Price), 'f', 2, 64),
	}
}

func (r *Resource) Locked() []string { return []string{"id_plano"} }

func (r *Resource) Restore(f Form, original clinicapi.Plan) Form {
	f.ID = original.ID
	return f
}

func (r *Resource) Validate(_ context.Context, f Form) editor.FieldErrors {
	errs := editor.FieldErrors{}
	editor.Required(errs, "nome_plano", f.Name)
	editor.Required(errs, "preco", f.Price)
	if strings.TrimSpace(f.Price) != "" {
		price, err := clinicapi.ParsePrice(f.Price)
		switch {
		case err != nil:
			errs.Add("preco", MsgInvalidPrice)
		case price < 0:
			errs.Add("preco", MsgNegativePrice)
		}
	}
	return errs
}

func (r *Resource) Normalize(f Form) Form {
	f.Name = strings.TrimSpace(f.Name)
	if price, err := clinicapi.ParsePrice(f.Price); err == nil {
		f.Price = strconv.FormatFloat(float64(price), 'f', 2, 64)
	}
	return f
}

func (r *Resource) Create(ctx context.Context, f Form) error {
	p, err := toPlan(f)
	if err != nil {
		return err
	}
	_, err = r.api.CreatePlan(ctx, p)
	return err
}

func (r *Resource) Update(ctx context.Context, original clinicapi.Plan, f Form) error {
	p, err := toPlan(f)
	if err != nil {
		return err
	}
	_, err = r.api.UpdatePlan(ctx, original.ID, p)
	return err
}

func toPlan(f Form) (clinicapi.Plan, error) {
	price, err := clinicapi.ParsePrice(f.Price)
	if err != nil {
		return clinicapi.Plan{}, err
	}
	return clinicapi.Plan{Name: f.Name, Price: price}, nil
}

// Rows renders the table with prices in BRL.
func Rows(list []clinicapi.Plan) []Row {
	rows := make([]Row, 0, len(list))
	for _, p := range list {
		rows = append(rows, Row{Key: strconv.Itoa(p.ID), Name: p.Name, Price: p.Price.BRL()})
	}
	return rows
}
