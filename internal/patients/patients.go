// Package patients adapts patient records to the list/editor view.
package patients

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/nationalid"
	"github.com/wolfman30/clinic-console/internal/querycache"
)

const (
	MsgInvalidNationalID = "CPF inválido"
	MsgUnknownPlan       = "Plano de saúde não encontrado"
	MsgNoPlan            = "Sem plano"
)

// API is the slice of the gateway client the patients screen needs.
type API interface {
	CreatePatient(ctx context.Context, p clinicapi.Patient) (*clinicapi.Patient, error)
	UpdatePatient(ctx context.Context, p clinicapi.Patient) (*clinicapi.Patient, error)
	DeletePatient(ctx context.Context, nationalID string) error
}

// Form is the create/edit panel. Plan holds the plan name.
type Form struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"nome_paciente"`
	NationalID string `json:"cpf_paciente"`
	Plan       string `json:"plano_saude"`
	BirthDate  string `json:"data_nascimento"`
}

// Row is one line of the patients table.
type Row struct {
	Key        string `json:"key"`
	Name       string `json:"nome"`
	NationalID string `json:"cpf"`
	Plan       string `json:"plano"`
	BirthDate  string `json:"data_nascimento"`
}

// Resource implements editor.Resource and editor.Writer for patients.
type Resource struct {
	api   API
	cache *querycache.Cache
	now   func() time.Time
}

// New builds the patients adapter. The cache supplies the plan list used by
// the plan select and the plan check.
func New(api API, cache *querycache.Cache) *Resource {
	return &Resource{api: api, cache: cache, now: time.Now}
}

// Load fetches patients and migrates id-based plan references to names. It
// is the loader registered for the patients cache key.
func Load(ctx context.Context, list func(context.Context) ([]clinicapi.Patient, error), cache *querycache.Cache) ([]clinicapi.Patient, error) {
	patients, err := list(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := querycache.Typed[[]clinicapi.Plan](ctx, cache, clinicapi.ResourcePlans)
	if err != nil {
		// Unresolved references still render; they show the raw id.
		return patients, nil
	}
	return clinicapi.ResolvePlanRefs(patients, plans), nil
}

func (r *Resource) Name() string { return clinicapi.ResourcePatients }

func (r *Resource) Key(p clinicapi.Patient) string { return strconv.Itoa(p.ID) }

func (r *Resource) Describe(p clinicapi.Patient) string {
	return fmt.Sprintf("Nome: %s\nCPF: %s", p.Name, nationalid.Format(p.NationalID))
}

func (r *Resource) Messages() editor.Messages {
	return editor.Messages{
		Created:      "Paciente criado com sucesso!",
		Updated:      "Paciente atualizado com sucesso!",
		Deleted:      "Paciente excluído com sucesso!",
		CreateFailed: "Erro ao criar paciente",
		UpdateFailed: "Erro ao atualizar paciente",
		DeleteFailed: "Erro ao excluir paciente",
		LoadFailed:   "Erro ao carregar pacientes",
	}
}

func (r *Resource) Delete(ctx context.Context, p clinicapi.Patient) error {
	return r.api.DeletePatient(ctx, nationalid.Digits(p.NationalID))
}

func (r *Resource) Blank() Form { return Form{} }

func (r *Resource) FormFor(p clinicapi.Patient) Form {
	return Form{
		ID:         p.ID,
		Name:       p.Name,
		NationalID: nationalid.Format(p.NationalID),
		Plan:       p.Plan.Name,
		BirthDate:  editor.FormDate(p.BirthDate),
	}
}

func (r *Resource) Locked() []string { return []string{"id", "cpf_paciente"} }

func (r *Resource) Restore(f Form, original clinicapi.Patient) Form {
	f.ID = original.ID
	f.NationalID = nationalid.Format(original.NationalID)
	return f
}

func (r *Resource) Validate(ctx context.Context, f Form) editor.FieldErrors {
	errs := editor.FieldErrors{}
	editor.Required(errs, "nome_paciente", f.Name)
	editor.Required(errs, "cpf_paciente", f.NationalID)
	if f.NationalID != "" && !nationalid.Valid(f.NationalID) {
		errs.Add("cpf_paciente", MsgInvalidNationalID)
	}
	editor.Required(errs, "plano_saude", f.Plan)
	if strings.TrimSpace(f.Plan) != "" && !r.planKnown(ctx, f.Plan) {
		errs.Add("plano_saude", MsgUnknownPlan)
	}
	editor.PastDate(errs, "data_nascimento", f.BirthDate, r.now())
	return errs
}

// planKnown checks the name against the cached plans. An unavailable list
// leaves the decision to the backend.
func (r *Resource) planKnown(ctx context.Context, name string) bool {
	if r.cache == nil {
		return true
	}
	plans, err := querycache.Typed[[]clinicapi.Plan](ctx, r.cache, clinicapi.ResourcePlans)
	if err != nil {
		return true
	}
	name = strings.TrimSpace(name)
	for _, pl := range plans {
		if pl.Name == name {
			return true
		}
	}
	return false
}

func (r *Resource) Normalize(f Form) Form {
	f.Name = strings.TrimSpace(f.Name)
	f.NationalID = nationalid.Digits(f.NationalID)
	f.Plan = strings.TrimSpace(f.Plan)
	f.BirthDate = strings.TrimSpace(f.BirthDate)
	return f
}

func (r *Resource) Create(ctx context.Context, f Form) error {
	_, err := r.api.CreatePatient(ctx, toPatient(f))
	return err
}

func (r *Resource) Update(ctx context.Context, original clinicapi.Patient, f Form) error {
	p := toPatient(f)
	p.ID = original.ID
	_, err := r.api.UpdatePatient(ctx, p)
	return err
}

func toPatient(f Form) clinicapi.Patient {
	return clinicapi.Patient{
		ID:         f.ID,
		Name:       f.Name,
		NationalID: f.NationalID,
		BirthDate:  f.BirthDate,
		Plan:       clinicapi.PlanByName(f.Plan),
	}
}

// Rows renders the table.
func Rows(list []clinicapi.Patient) []Row {
	rows := make([]Row, 0, len(list))
	for _, p := range list {
		plan := p.Plan.String()
		if plan == "" {
			plan = MsgNoPlan
		}
		rows = append(rows, Row{
			Key:        strconv.Itoa(p.ID),
			Name:       p.Name,
			NationalID: nationalid.Format(p.NationalID),
			Plan:       plan,
			BirthDate:  editor.DisplayDate(p.BirthDate),
		})
	}
	return rows
}

// PlanOptions lists the plan names for the plan select.
func (r *Resource) PlanOptions(ctx context.Context) ([]string, error) {
	plans, err := querycache.Typed[[]clinicapi.Plan](ctx, r.cache, clinicapi.ResourcePlans)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(plans))
	for _, pl := range plans {
		out = append(out, pl.Name)
	}
	return out, nil
}
