// Package doctors adapts the doctor records to the list/editor view.
package doctors

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
	MsgInvalidLicense    = "CRM inválido (formato: 12345-SP)"
	MsgInvalidNationalID = "CPF inválido"
	MsgUnknownSpecialty  = "Especialidade não encontrada"
	MsgNoSpecialty       = "Não definida"
)

// API is the slice of the gateway client the doctors screen needs.
type API interface {
	CreateDoctor(ctx context.Context, d clinicapi.Doctor) (*clinicapi.Doctor, error)
	UpdateDoctor(ctx context.Context, d clinicapi.Doctor) (*clinicapi.Doctor, error)
	DeleteDoctor(ctx context.Context, nationalID string) error
}

// Form is the create/edit panel.
type Form struct {
	ID          int    `json:"id,omitempty"`
	Name        string `json:"nome_medico"`
	SpecialtyID int    `json:"especialidade_id"`
	License     string `json:"crm_medico"`
	NationalID  string `json:"cpf_medico"`
	BirthDate   string `json:"data_nascimento"`
}

// Row is one line of the doctors table.
type Row struct {
	Key        string `json:"key"`
	Name       string `json:"nome"`
	Specialty  string `json:"especialidade"`
	License    string `json:"crm"`
	NationalID string `json:"cpf"`
	BirthDate  string `json:"data_nascimento"`
}

// SpecialtyOption feeds the specialty select.
type SpecialtyOption struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

// Resource implements editor.Resource and editor.Writer for doctors.
type Resource struct {
	api   API
	cache *querycache.Cache
	now   func() time.Time
}

// New builds the doctors adapter. The cache supplies the specialty list.
func New(api API, cache *querycache.Cache) *Resource {
	return &Resource{api: api, cache: cache, now: time.Now}
}

func (r *Resource) Name() string { return clinicapi.ResourceDoctors }

func (r *Resource) Key(d clinicapi.Doctor) string { return strconv.Itoa(d.ID) }

func (r *Resource) Describe(d clinicapi.Doctor) string {
	return fmt.Sprintf("Nome: %s\nCPF: %s", d.Name, nationalid.Format(d.NationalID))
}

func (r *Resource) Messages() editor.Messages {
	return editor.Messages{
		Created:      "Médico criado com sucesso!",
		Updated:      "Médico atualizado com sucesso!",
		Deleted:      "Médico excluído com sucesso!",
		CreateFailed: "Erro ao criar médico",
		UpdateFailed: "Erro ao atualizar médico",
		DeleteFailed: "Erro ao excluir médico",
		LoadFailed:   "Erro ao carregar médicos",
	}
}

func (r *Resource) Delete(ctx context.Context, d clinicapi.Doctor) error {
	return r.api.DeleteDoctor(ctx, nationalid.Digits(d.NationalID))
}

func (r *Resource) Blank() Form { return Form{} }

func (r *Resource) FormFor(d clinicapi.Doctor) Form {
	specialtyID := d.SpecialtyID
	if specialtyID == 0 && d.Specialty != nil {
		specialtyID = d.Specialty.ID
	}
	return Form{
		ID:          d.ID,
		Name:        d.Name,
		SpecialtyID: specialtyID,
		License:     d.License,
		NationalID:  nationalid.Format(d.NationalID),
		BirthDate:   editor.FormDate(d.BirthDate),
	}
}

func (r *Resource) Locked() []string { return []string{"id", "cpf_medico"} }

func (r *Resource) Restore(f Form, original clinicapi.Doctor) Form {
	f.ID = original.ID
	f.NationalID = nationalid.Format(original.NationalID)
	return f
}

func (r *Resource) Validate(ctx context.Context, f Form) editor.FieldErrors {
	errs := editor.FieldErrors{}
	editor.Required(errs, "nome_medico", f.Name)
	if f.SpecialtyID == 0 {
		errs.Add("especialidade_id", editor.MsgRequired)
	} else if !r.specialtyKnown(ctx, f.SpecialtyID) {
		errs.Add("especialidade_id", MsgUnknownSpecialty)
	}
	editor.Required(errs, "crm_medico", f.License)
	if f.License != "" && !nationalid.ValidLicense(f.License) {
		errs.Add("crm_medico", MsgInvalidLicense)
	}
	editor.Required(errs, "cpf_medico", f.NationalID)
	if f.NationalID != "" && !nationalid.Valid(f.NationalID) {
		errs.Add("cpf_medico", MsgInvalidNationalID)
	}
	editor.PastDate(errs, "data_nascimento", f.BirthDate, r.now())
	return errs
}

// specialtyKnown checks the id against the cached specialty list. When the
// list cannot be loaded the check is skipped and the backend decides.
func (r *Resource) specialtyKnown(ctx context.Context, id int) bool {
	if r.cache == nil {
		return true
	}
	specialties, err := querycache.Typed[[]clinicapi.Specialty](ctx, r.cache, clinicapi.ResourceSpecialties)
	if err != nil {
		return true
	}
	for _, s := range specialties {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (r *Resource) Normalize(f Form) Form {
	f.Name = strings.TrimSpace(f.Name)
	f.License = nationalid.NormalizeLicense(f.License)
	f.NationalID = nationalid.Digits(f.NationalID)
	f.BirthDate = strings.TrimSpace(f.BirthDate)
	return f
}

func (r *Resource) Create(ctx context.Context, f Form) error {
	_, err := r.api.CreateDoctor(ctx, toDoctor(f))
	return err
}

func (r *Resource) Update(ctx context.Context, original clinicapi.Doctor, f Form) error {
	d := toDoctor(f)
	d.ID = original.ID
	_, err := r.api.UpdateDoctor(ctx, d)
	return err
}

func toDoctor(f Form) clinicapi.Doctor {
	return clinicapi.Doctor{
		ID:          f.ID,
		Name:        f.Name,
		License:     f.License,
		NationalID:  f.NationalID,
		BirthDate:   f.BirthDate,
		SpecialtyID: f.SpecialtyID,
	}
}

// Rows renders the table.
func Rows(list []clinicapi.Doctor) []Row {
	rows := make([]Row, 0, len(list))
	for _, d := range list {
		specialty := d.SpecialtyName()
		if specialty == "" {
			specialty = MsgNoSpecialty
		}
		rows = append(rows, Row{
			Key:        strconv.Itoa(d.ID),
			Name:       d.Name,
			Specialty:  specialty,
			License:    d.License,
			NationalID: nationalid.Format(d.NationalID),
			BirthDate:  editor.DisplayDate(d.BirthDate),
		})
	}
	return rows
}

// SpecialtyOptions reads the specialty select options from the cache.
func (r *Resource) SpecialtyOptions(ctx context.Context) ([]SpecialtyOption, error) {
	specialties, err := querycache.Typed[[]clinicapi.Specialty](ctx, r.cache, clinicapi.ResourceSpecialties)
	if err != nil {
		return nil, err
	}
	out := make([]SpecialtyOption, 0, len(specialties))
	for _, s := range specialties {
		out = append(out, SpecialtyOption{ID: s.ID, Name: s.Name})
	}
	return out, nil
}
