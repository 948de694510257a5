// Package specialties adapts medical specialties to the list/editor view.
package specialties

import (
	"context"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
)

// API is the slice of the gateway client the specialties screen needs.
type API interface {
	CreateSpecialty(ctx context.Context, s clinicapi.Specialty) (*clinicapi.Specialty, error)
	UpdateSpecialty(ctx context.Context, id int, s clinicapi.Specialty) (*clinicapi.Specialty, error)
	DeleteSpecialty(ctx context.Context, id int) error
}

type Form struct {
	ID   int    `json:"id_especialidade,omitempty"`
	Name string `json:"nome_especialidade"`
}

type Resource struct {
	api API
}

func New(api API) *Resource {
	return &Resource{api: api}
}

func (r *Resource) Name() string { return clinicapi.ResourceSpecialties }

func (r *Resource) Key(s clinicapi.Specialty) string { return strconv.Itoa(s.ID) }

func (r *Resource) Describe(s clinicapi.Specialty) string { return "Especialidade: " + s.Name }

func (r *Resource) Messages() editor.Messages {
	return editor.Messages{
		Created:      "Especialidade criada com sucesso!",
		Updated:      "Especialidade atualizada com sucesso!",
		Deleted:      "Especialidade excluída com sucesso!",
		CreateFailed: "Erro ao criar especialidade",
		UpdateFailed: "Erro ao atualizar especialidade",
		DeleteFailed: "Erro ao excluir especialidade",
		LoadFailed:   "Erro ao carregar especialidades",
	}
}

func (r *Resource) Delete(ctx context.Context, s clinicapi.Specialty) error {
	return r.api.DeleteSpecialty(ctx, s.ID)
}

func (r *Resource) Blank() Form { return Form{} }

func (r *Resource) FormFor(s clinicapi.Specialty) Form { return Form(s) }

func (r *Resource) Locked() []string { return []string{"id_especialidade"} }

func (r *Resource) Restore(f Form, original clinicapi.Specialty) Form {
	f.ID = original.ID
	return f
}

func (r *Resource) Validate(_ context.Context, f Form) editor.FieldErrors {
	errs := editor.FieldErrors{}
	editor.Required(errs, "nome_especialidade", f.Name)
	return errs
}

func (r *Resource) Normalize(f Form) Form {
	f.Name = strings.TrimSpace(f.Name)
	return f
}

func (r *Resource) Create(ctx context.Context, f Form) error {
	_, err := r.api.CreateSpecialty(ctx, clinicapi.Specialty{Name: f.Name})
	return err
}

func (r *Resource) Update(ctx context.Context, original clinicapi.Specialty, f Form) error {
	_, err := r.api.UpdateSpecialty(ctx, original.ID, clinicapi.Specialty{Name: f.Name})
	return err
}
