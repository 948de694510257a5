package clinicapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Resource names double as query cache keys.
const (
	ResourceDoctors      = "doctors"
	ResourcePatients     = "patients"
	ResourcePlans        = "plans"
	ResourceSpecialties  = "specialties"
	ResourceAppointments = "appointments"
	ResourceAvailability = "availability"
	ResourceReports      = "reports"
)

// Specialty is a medical specialty referenced by doctors.
type Specialty struct {
	ID   int    `json:"id_especialidade,omitempty"`
	Name string `json:"nome_especialidade"`
}

// Doctor is a clinic doctor. NationalID is the CPF, License the CRM.
type Doctor struct {
	ID          int        `json:"id,omitempty"`
	Name        string     `json:"nome_medico"`
	License     string     `json:"crm_medico"`
	NationalID  string     `json:"cpf_medico"`
	BirthDate   string     `json:"data_nascimento,omitempty"`
	SpecialtyID int        `json:"especialidade_id,omitempty"`
	Specialty   *Specialty `json:"especialidades,omitempty"`
}

// SpecialtyName returns the joined specialty name, or "" when absent.
func (d Doctor) SpecialtyName() string {
	if d.Specialty == nil {
		return ""
	}
	return d.Specialty.Name
}

// Patient is a clinic patient.
type Patient struct {
	ID         int     `json:"id,omitempty"`
	Name       string  `json:"nome_paciente"`
	NationalID string  `json:"cpf_paciente"`
	BirthDate  string  `json:"data_nascimento,omitempty"`
	Plan       PlanRef `json:"plano_saude"`
}

// PlanRef is the patient's health plan. The backend has sent both the plan
// name and the plan id in this field; the console keeps the name canonical.
type PlanRef struct {
	ID   int
	Name string
}

// PlanByName builds a name-only reference.
func PlanByName(name string) PlanRef {
	return PlanRef{Name: strings.TrimSpace(name)}
}

// Resolved reports whether the reference carries a plan name.
func (p PlanRef) Resolved() bool {
	return p.Name != ""
}

func (p PlanRef) String() string {
	if p.Name != "" {
		return p.Name
	}
	if p.ID != 0 {
		return strconv.Itoa(p.ID)
	}
	return ""
}

// UnmarshalJSON accepts a plan name, a numeric id or a numeric string.
func (p *PlanRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = PlanRef{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("clinicapi: plan reference: %w", err)
		}
		s = strings.TrimSpace(s)
		if id, err := strconv.Atoi(s); err == nil {
			p.ID = id
			return nil
		}
		p.Name = s
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("clinicapi: plan reference: %w", err)
	}
	p.ID = id
	return nil
}

// MarshalJSON always sends the name once resolved; an unresolved id is sent
// as-is so the backend can still reject it.
func (p PlanRef) MarshalJSON() ([]byte, error) {
	if p.Name != "" {
		return json.Marshal(p.Name)
	}
	if p.ID != 0 {
		return json.Marshal(p.ID)
	}
	return []byte("null"), nil
}

// ResolvePlanRefs migrates id-based plan references to plan names using the
// plans collection. References to unknown plans are left untouched.
func ResolvePlanRefs(patients []Patient, plans []Plan) []Patient {
	byID := make(map[int]string, len(plans))
	for _, pl := range plans {
		byID[pl.ID] = pl.Name
	}
	out := make([]Patient, len(patients))
	for i, p := range patients {
		if !p.Plan.Resolved() && p.Plan.ID != 0 {
			if name, ok := byID[p.Plan.ID]; ok {
				p.Plan.Name = name
			}
		}
		out[i] = p
	}
	return out
}

// Plan is a health plan.
type Plan struct {
	ID    int    `json:"id_plano,omitempty"`
	Name  string `json:"nome_plano"`
	Price Price  `json:"preco"`
}

// Price is a plan price. The backend serialises decimals as strings.
type Price float64

// ParsePrice reads "50.00", "50,00" or "50"; blanks are an error.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, fmt.Errorf("clinicapi: empty price")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("clinicapi: parse price %q: %w", s, err)
	}
	return Price(v), nil
}

// UnmarshalJSON accepts numbers and numeric strings; unparsable strings read as zero.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParsePrice(s)
		if err != nil {
			*p = 0
			return nil
		}
		*p = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("clinicapi: price: %w", err)
	}
	*p = Price(f)
	return nil
}

// BRL renders the price as Brazilian currency, e.g. "R$ 1.250,00".
func (p Price) BRL() string {
	cents := int64(float64(p)*100 + 0.5)
	if p < 0 {
		cents = int64(float64(p)*100 - 0.5)
	}
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), cents%100)
}

// timestampLayouts are the ISO-8601 shapes the backend sends, most specific first.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// Timestamp is an ISO-8601 instant. Values without an offset are read as UTC.
type Timestamp struct {
	time.Time
}

// ParseTimestamp reads any of timestampLayouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("clinicapi: parse timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clinicapi: timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Appointment is a scheduled consultation as listed by the backend, with the
// patient and doctor joined in.
type Appointment struct {
	ID      int                 `json:"id_consulta"`
	At      Timestamp           `json:"data_consulta"`
	Patient *AppointmentPatient `json:"pacientes,omitempty"`
	Doctor  *AppointmentDoctor  `json:"medicos,omitempty"`
}

// AppointmentPatient is the patient joined into an appointment row.
type AppointmentPatient struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"nome_paciente"`
}

// AppointmentDoctor is the doctor joined into an appointment row.
type AppointmentDoctor struct {
	ID        int        `json:"id,omitempty"`
	Name      string     `json:"nome_medico"`
	Specialty *Specialty `json:"especialidade,omitempty"`
}

func (a Appointment) PatientName() string {
	if a.Patient == nil {
		return ""
	}
	return a.Patient.Name
}

func (a Appointment) DoctorName() string {
	if a.Doctor == nil {
		return ""
	}
	return a.Doctor.Name
}

func (a Appointment) SpecialtyName() string {
	if a.Doctor == nil || a.Doctor.Specialty == nil {
		return ""
	}
	return a.Doctor.Specialty.Name
}

// NewAppointment is the booking payload.
type NewAppointment struct {
	PatientID int    `json:"paciente_id"`
	DoctorID  int    `json:"medico_id"`
	At        string `json:"data_hora"`
}

// AvailabilitySlot is one availability window published for a doctor.
type AvailabilitySlot struct {
	ID       int    `json:"id,omitempty"`
	DoctorID int    `json:"medico_id"`
	Weekday  string `json:"dia_semana,omitempty"`
	Date     string `json:"data,omitempty"`
	Start    string `json:"hora_inicio"`
	End      string `json:"hora_fim"`
}

// PlanShare is one slice of the patients-by-plan distribution.
type PlanShare struct {
	Label string `json:"tipo"`
	Value int    `json:"valor"`
}

// MonthlyCount is one point of the new-patients-per-month series.
type MonthlyCount struct {
	Month       string `json:"mes"`
	NewPatients int    `json:"novos_pacientes"`
}

// AgeSummary carries the two age-bracket counters. Nil means the backend did
// not send a number.
type AgeSummary struct {
	DoctorsOver50 *int `json:"medicosAcima50"`
	AdultPatients *int `json:"pacientes18ouMais"`
}
