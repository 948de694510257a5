// Package booking implements the five-step appointment booking wizard:
// patient, specialty and doctor, date, time, confirm.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/observability/metrics"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

var bookingTracer = otel.Tracer("clinic-console.internal.booking")

// ViewName identifies the wizard in the view-state store and metrics.
const ViewName = "booking"

// Step is a wizard step index.
type Step int

const (
	StepPatient Step = iota
	StepDoctor
	StepDate
	StepTime
	StepConfirm
)

// TimeOptions are the bookable times of day.
var TimeOptions = []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

const (
	MsgBooked        = "Consulta agendada com sucesso!"
	MsgBookFailed    = "Erro ao agendar consulta."
	MsgIncomplete    = "Preencha todos os campos antes de confirmar."
	MsgDoctorsFailed = "Erro ao carregar médicos."
	MsgOptionsFailed = "Erro ao carregar dados do agendamento."
	MsgDateInPast    = "A data não pode ser anterior a hoje."
	MsgInvalidDate   = "Data inválida."
	MsgInvalidTime   = "Horário inválido."
)

var (
	ErrStepLocked    = errors.New("booking: step not reachable yet")
	ErrUnknownStep   = errors.New("booking: unknown step")
	ErrUnknownOption = errors.New("booking: option not in the loaded list")
	ErrInvalidDate   = errors.New("booking: invalid date")
	ErrDateInPast    = errors.New("booking: date before today")
	ErrInvalidTime   = errors.New("booking: time not offered")
	ErrIncomplete    = errors.New("booking: selection incomplete")
	ErrSubmitted     = errors.New("booking: already submitted")
)

// API is the slice of the gateway client the wizard needs.
type API interface {
	ListDoctorsBySpecialty(ctx context.Context, specialtyID int) ([]clinicapi.Doctor, error)
	ListAvailability(ctx context.Context, doctorID int) ([]clinicapi.AvailabilitySlot, error)
	CreateAppointment(ctx context.Context, a clinicapi.NewAppointment) error
}

// State is the serializable wizard state.
type State struct {
	Step Step `json:"step"`

	PatientID   int    `json:"patient_id,omitempty"`
	SpecialtyID int    `json:"specialty_id,omitempty"`
	DoctorID    int    `json:"doctor_id,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`

	Patients     []clinicapi.Patient          `json:"patients"`
	Specialties  []clinicapi.Specialty        `json:"specialties"`
	Doctors      []clinicapi.Doctor           `json:"doctors"`
	Availability []clinicapi.AvailabilitySlot `json:"availability"`
	TimeOptions  []string                     `json:"time_options"`
	MinDate      string                       `json:"min_date"`

	Submitted bool           `json:"submitted"`
	Notice    *editor.Notice `json:"notice,omitempty"`
}

// Summary is the confirm-step recap with names resolved.
type Summary struct {
	Patient   string `json:"paciente"`
	Specialty string `json:"especialidade"`
	Doctor    string `json:"medico"`
	Date      string `json:"data"`
	Time      string `json:"hora"`
}

// Wizard holds the wizard behaviour; State carries the data.
type Wizard struct {
	api     API
	cache   *querycache.Cache
	loc     *time.Location
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.ViewMetrics
}

// New builds a wizard. loc is the clinic time zone: "today" and the booked
// timestamp are interpreted there.
func New(api API, cache *querycache.Cache, loc *time.Location, logger *logging.Logger, m *metrics.ViewMetrics) *Wizard {
	if loc == nil {
		loc = time.UTC
	}
	return &Wizard{
		api:     api,
		cache:   cache,
		loc:     loc,
		now:     time.Now,
		logger:  logger.Component("booking"),
		metrics: m,
	}
}

// NewState returns a fresh wizard on the patient step.
func (w *Wizard) NewState() *State {
	return &State{
		Step:         StepPatient,
		Patients:     []clinicapi.Patient{},
		Specialties:  []clinicapi.Specialty{},
		Doctors:      []clinicapi.Doctor{},
		Availability: []clinicapi.AvailabilitySlot{},
		TimeOptions:  append([]string(nil), TimeOptions...),
		MinDate:      w.today(),
	}
}

func (w *Wizard) today() string {
	return w.now().In(w.loc).Format(editor.FormDateLayout)
}

// Load fills the patient and specialty options from the cache.
func (w *Wizard) Load(ctx context.Context, st *State) error {
	st.MinDate = w.today()
	patients, err := querycache.Typed[[]clinicapi.Patient](ctx, w.cache, clinicapi.ResourcePatients)
	if err != nil {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: clinicapi.UserMessage(err, MsgOptionsFailed)}
		return fmt.Errorf("booking: load patients: %w", err)
	}
	specialties, err := querycache.Typed[[]clinicapi.Specialty](ctx, w.cache, clinicapi.ResourceSpecialties)
	if err != nil {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: clinicapi.UserMessage(err, MsgOptionsFailed)}
		return fmt.Errorf("booking: load specialties: %w", err)
	}
	st.Patients = patients
	st.Specialties = specialties
	return nil
}

// CanProceed reports whether step is reachable: every selection belonging to
// the steps before it has been made.
func (w *Wizard) CanProceed(st *State, step Step) bool {
	switch step {
	case StepPatient:
		return true
	case StepDoctor:
		return st.PatientID != 0
	case StepDate:
		return w.CanProceed(st, StepDoctor) && st.SpecialtyID != 0 && st.DoctorID != 0
	case StepTime:
		return w.CanProceed(st, StepDate) && st.Date != ""
	case StepConfirm:
		return w.CanProceed(st, StepTime) && st.Time != ""
	default:
		return false
	}
}

// GoTo jumps to step when its guard holds.
func (w *Wizard) GoTo(st *State, step Step) error {
	if st.Submitted {
		return ErrSubmitted
	}
	if step < StepPatient || step > StepConfirm {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	if !w.CanProceed(st, step) {
		return fmt.Errorf("%w: %d", ErrStepLocked, step)
	}
	st.Step = step
	return nil
}

// Next advances one step when the next step's guard holds.
func (w *Wizard) Next(st *State) error {
	if st.Step >= StepConfirm {
		return fmt.Errorf("%w: %d", ErrUnknownStep, st.Step+1)
	}
	return w.GoTo(st, st.Step+1)
}

// SelectPatient picks the patient.
func (w *Wizard) SelectPatient(st *State, patientID int) error {
	if st.Submitted {
		return ErrSubmitted
	}
	if !containsPatient(st.Patients, patientID) {
		return fmt.Errorf("%w: patient %d", ErrUnknownOption, patientID)
	}
	st.PatientID = patientID
	st.Notice = nil
	return nil
}

// SelectSpecialty picks the specialty, clears the doctor and availability,
// and fetches the doctors of that specialty.
func (w *Wizard) SelectSpecialty(ctx context.Context, st *State, specialtyID int) error {
	if st.Submitted {
		return ErrSubmitted
	}
	if !containsSpecialty(st.Specialties, specialtyID) {
		return fmt.Errorf("%w: specialty %d", ErrUnknownOption, specialtyID)
	}
	st.SpecialtyID = specialtyID
	st.DoctorID = 0
	st.Doctors = []clinicapi.Doctor{}
	st.Availability = []clinicapi.AvailabilitySlot{}
	st.Notice = nil
	w.clampStep(st)

	doctors, err := w.api.ListDoctorsBySpecialty(ctx, specialtyID)
	if err != nil {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: clinicapi.UserMessage(err, MsgDoctorsFailed)}
		w.metrics.ObserveAction(ViewName, "select_specialty", "error")
		return fmt.Errorf("booking: list doctors: %w", err)
	}
	st.Doctors = doctors
	w.metrics.ObserveAction(ViewName, "select_specialty", "ok")
	return nil
}

// SelectDoctor picks a doctor from the loaded list and fetches the doctor's
// availability. Availability is informational; a failed fetch leaves the
// selection in place.
func (w *Wizard) SelectDoctor(ctx context.Context, st *State, doctorID int) error {
	if st.Submitted {
		return ErrSubmitted
	}
	if !containsDoctor(st.Doctors, doctorID) {
		return fmt.Errorf("%w: doctor %d", ErrUnknownOption, doctorID)
	}
	st.DoctorID = doctorID
	st.Availability = []clinicapi.AvailabilitySlot{}
	st.Notice = nil

	slots, err := w.api.ListAvailability(ctx, doctorID)
	if err != nil {
		w.logger.Warn("availability fetch failed", "doctor_id", doctorID, "error", err)
		return nil
	}
	st.Availability = slots
	return nil
}

// SelectDate picks the appointment day (YYYY-MM-DD); days before today in
// the clinic time zone are rejected.
func (w *Wizard) SelectDate(st *State, date string) error {
	if st.Submitted {
		return ErrSubmitted
	}
	d, err := time.ParseInLocation(editor.FormDateLayout, date, w.loc)
	if err != nil {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: MsgInvalidDate}
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if d.Format(editor.FormDateLayout) < w.today() {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: MsgDateInPast}
		return fmt.Errorf("%w: %s", ErrDateInPast, date)
	}
	st.Date = d.Format(editor.FormDateLayout)
	st.Notice = nil
	return nil
}

// SelectTime picks one of TimeOptions.
func (w *Wizard) SelectTime(st *State, hhmm string) error {
	if st.Submitted {
		return ErrSubmitted
	}
	for _, opt := range TimeOptions {
		if opt == hhmm {
			st.Time = hhmm
			st.Notice = nil
			return nil
		}
	}
	st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: MsgInvalidTime}
	return fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
}

// Timestamp composes the selected date and time in the clinic time zone.
func (w *Wizard) Timestamp(st *State) (time.Time, error) {
	at, err := time.ParseInLocation(editor.FormDateLayout+" 15:04", st.Date+" "+st.Time, w.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %s", ErrInvalidDate, st.Date, st.Time)
	}
	return at, nil
}

// Confirm submits the appointment. The wizard is not reset on success.
func (w *Wizard) Confirm(ctx context.Context, st *State) error {
	ctx, span := bookingTracer.Start(ctx, "booking.confirm")
	defer span.End()

	if st.Submitted {
		return ErrSubmitted
	}
	if st.PatientID == 0 || st.DoctorID == 0 || st.Date == "" || st.Time == "" {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: MsgIncomplete}
		span.RecordError(ErrIncomplete)
		return ErrIncomplete
	}
	at, err := w.Timestamp(st)
	if err != nil {
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: MsgInvalidDate}
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.Int("clinic.patient_id", st.PatientID),
		attribute.Int("clinic.doctor_id", st.DoctorID),
	)

	payload := clinicapi.NewAppointment{
		PatientID: st.PatientID,
		DoctorID:  st.DoctorID,
		At:        at.UTC().Format(time.RFC3339),
	}
	if err := w.api.CreateAppointment(ctx, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		st.Notice = &editor.Notice{Kind: editor.NoticeError, Text: clinicapi.UserMessage(err, MsgBookFailed)}
		w.metrics.ObserveAction(ViewName, "confirm", "error")
		w.logger.Warn("booking failed", "patient_id", st.PatientID, "doctor_id", st.DoctorID, "error", err)
		return fmt.Errorf("booking: create appointment: %w", err)
	}

	st.Step = StepConfirm
	st.Submitted = true
	st.Notice = &editor.Notice{Kind: editor.NoticeSuccess, Text: MsgBooked}
	if w.cache != nil {
		w.cache.Invalidate(clinicapi.ResourceAppointments)
	}
	w.metrics.ObserveAction(ViewName, "confirm", "ok")
	w.logger.Info("appointment booked", "patient_id", st.PatientID, "doctor_id", st.DoctorID, "at", payload.At)
	return nil
}

// Reset starts over, keeping the loaded option lists.
func (w *Wizard) Reset(st *State) {
	fresh := w.NewState()
	fresh.Patients = st.Patients
	fresh.Specialties = st.Specialties
	*st = *fresh
}

// Summary resolves the selected ids to display names.
func (w *Wizard) Summary(st *State) Summary {
	s := Summary{Time: st.Time}
	for _, p := range st.Patients {
		if p.ID == st.PatientID {
			s.Patient = p.Name
		}
	}
	for _, sp := range st.Specialties {
		if sp.ID == st.SpecialtyID {
			s.Specialty = sp.Name
		}
	}
	for _, d := range st.Doctors {
		if d.ID == st.DoctorID {
			s.Doctor = d.Name
		}
	}
	if st.Date != "" {
		s.Date = editor.DisplayDate(st.Date)
	}
	return s
}

// clampStep moves the wizard back to the furthest reachable step.
func (w *Wizard) clampStep(st *State) {
	for st.Step > StepPatient && !w.CanProceed(st, st.Step) {
		st.Step--
	}
}

func containsPatient(list []clinicapi.Patient, id int) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}

func containsSpecialty(list []clinicapi.Specialty, id int) bool {
	for _, s := range list {
		if s.ID == id {
			return true
		}
	}
	return false
}

func containsDoctor(list []clinicapi.Doctor, id int) bool {
	for _, d := range list {
		if d.ID == id {
			return true
		}
	}
	return false
}
