// Package appointments is the scheduled-appointments view: the list with
// delete, plus in-memory filters by doctor, specialty and calendar day.
package appointments

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// API is the slice of the gateway client the view needs.
type API interface {
	DeleteAppointment(ctx context.Context, id int) error
}

// Resource is a read-only editor resource: list and delete only.
type Resource struct {
	api API
	loc *time.Location
}

// New builds the adapter; loc is the clinic time zone used for display.
func New(api API, loc *time.Location) *Resource {
	if loc == nil {
		loc = time.UTC
	}
	return &Resource{api: api, loc: loc}
}

func (r *Resource) Name() string { return clinicapi.ResourceAppointments }

func (r *Resource) Key(a clinicapi.Appointment) string { return strconv.Itoa(a.ID) }

func (r *Resource) Describe(a clinicapi.Appointment) string {
	at := a.At.In(r.loc)
	return fmt.Sprintf("Paciente: %s\nMédico: %s\nData: %s %s",
		a.PatientName(), a.DoctorName(), at.Format(dateLayout), at.Format(timeLayout))
}

func (r *Resource) Messages() editor.Messages {
	return editor.Messages{
		Deleted:      "Consulta excluída com sucesso!",
		DeleteFailed: "Erro ao excluir a consulta.",
		LoadFailed:   "Erro ao carregar as consultas.",
	}
}

func (r *Resource) Delete(ctx context.Context, a clinicapi.Appointment) error {
	return r.api.DeleteAppointment(ctx, a.ID)
}

// Filter narrows the list. Empty fields are inactive. Date is YYYY-MM-DD.
type Filter struct {
	Doctor    string `json:"medico,omitempty"`
	Specialty string `json:"especialidade,omitempty"`
	Date      string `json:"data,omitempty"`
}

// Active reports whether any field is set.
func (f Filter) Active() bool {
	return f.Doctor != "" || f.Specialty != "" || f.Date != ""
}

// Validate checks the date field format.
func (f Filter) Validate() error {
	if f.Date == "" {
		return nil
	}
	if _, err := time.Parse(editor.FormDateLayout, f.Date); err != nil {
		return fmt.Errorf("appointments: invalid filter date %q: %w", f.Date, err)
	}
	return nil
}

// Apply returns the appointments matching every active filter. Names compare
// with exact, case-sensitive equality; the date compares calendar days in loc.
// The result is never nil.
func Apply(list []clinicapi.Appointment, f Filter, loc *time.Location) []clinicapi.Appointment {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]clinicapi.Appointment, 0, len(list))
	for _, a := range list {
		if f.Doctor != "" && a.DoctorName() != f.Doctor {
			continue
		}
		if f.Specialty != "" && a.SpecialtyName() != f.Specialty {
			continue
		}
		if f.Date != "" && a.At.In(loc).Format(editor.FormDateLayout) != f.Date {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Options are the distinct values offered by the filter dropdowns.
type Options struct {
	Doctors     []string `json:"medicos"`
	Specialties []string `json:"especialidades"`
}

// OptionsFor collects the distinct, sorted doctor and specialty names.
func OptionsFor(list []clinicapi.Appointment) Options {
	doctors := map[string]struct{}{}
	specialties := map[string]struct{}{}
	for _, a := range list {
		if n := a.DoctorName(); n != "" {
			doctors[n] = struct{}{}
		}
		if n := a.SpecialtyName(); n != "" {
			specialties[n] = struct{}{}
		}
	}
	return Options{Doctors: sortedKeys(doctors), Specialties: sortedKeys(specialties)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Row is one line of the appointments table.
type Row struct {
	Key       string `json:"key"`
	Patient   string `json:"paciente"`
	Doctor    string `json:"medico"`
	Specialty string `json:"especialidade"`
	Date      string `json:"data"`
	Time      string `json:"hora"`
}

// Rows renders appointments with date and time in loc.
func Rows(list []clinicapi.Appointment, loc *time.Location) []Row {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]Row, 0, len(list))
	for _, a := range list {
		at := a.At.In(loc)
		rows = append(rows, Row{
			Key:       strconv.Itoa(a.ID),
			Patient:   a.PatientName(),
			Doctor:    a.DoctorName(),
			Specialty: a.SpecialtyName(),
			Date:      at.Format(dateLayout),
			Time:      at.Format(timeLayout),
		})
	}
	return rows
}

// View is the serializable state of the appointments screen.
type View struct {
	editor.State[clinicapi.Appointment, struct{}]
	Filter Filter `json:"filter"`
}

// NewView returns an empty view in Viewing mode.
func NewView() *View {
	return &View{State: editor.State[clinicapi.Appointment, struct{}]{Mode: editor.ModeViewing, Records: []clinicapi.Appointment{}}}
}

// Visible returns the filtered records.
func (v *View) Visible(loc *time.Location) []clinicapi.Appointment {
	return Apply(v.Records, v.Filter, loc)
}
