package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

type fakeAPI struct {
	doctorsBySpecialty map[int][]clinicapi.Doctor
	availability       []clinicapi.AvailabilitySlot
	availabilityErr    error
	createErr          error
	created            []clinicapi.NewAppointment
	doctorCalls        []int
}

func (f *fakeAPI) ListDoctorsBySpecialty(_ context.Context, id int) ([]clinicapi.Doctor, error) {
	f.doctorCalls = append(f.doctorCalls, id)
	return f.doctorsBySpecialty[id], nil
}

func (f *fakeAPI) ListAvailability(context.Context, int) ([]clinicapi.AvailabilitySlot, error) {
	return f.availability, f.availabilityErr
}

func (f *fakeAPI) CreateAppointment(_ context.Context, a clinicapi.NewAppointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a)
	return nil
}

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Wizard, *State, *fakeAPI, *querycache.Cache) {
	t.Helper()
	api := &fakeAPI{
		doctorsBySpecialty: map[int][]clinicapi.Doctor{
			1: {{ID: 10, Name: "Dr. Caio"}},
			2: {{ID: 20, Name: "Dra. Eva"}},
		},
		availability: []clinicapi.AvailabilitySlot{{DoctorID: 10, Weekday: "segunda", Start: "08:00", End: "12:00"}},
	}
	cache := querycache.New(logging.Default(), nil)
	cache.Register(clinicapi.ResourcePatients, func(context.Context) (any, error) {
		return []clinicapi.Patient{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bia"}}, nil
	})
	cache.Register(clinicapi.ResourceSpecialties, func(context.Context) (any, error) {
		return []clinicapi.Specialty{{ID: 1, Name: "Cardiologia"}, {ID: 2, Name: "Pediatria"}}, nil
	})
	w := New(api, cache, time.UTC, logging.Default(), nil)
	w.now = func() time.Time { return fixedNow }
	st := w.NewState()
	require.NoError(t, w.Load(context.Background(), st))
	return w, st, api, cache
}

func fill(t *testing.T, w *Wizard, st *State) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SelectPatient(st, 1))
	require.NoError(t, w.SelectSpecialty(ctx, st, 1))
	require.NoError(t, w.SelectDoctor(ctx, st, 10))
	require.NoError(t, w.SelectDate(st, "2025-03-12"))
	require.NoError(t, w.SelectTime(st, "09:00"))
}

func TestCanProceedGuards(t *testing.T) {
	w, st, _, _ := setup(t)
	ctx := context.Background()

	assert.True(t, w.CanProceed(st, StepPatient))
	assert.False(t, w.CanProceed(st, StepDoctor))

	require.NoError(t, w.SelectPatient(st, 1))
	assert.True(t, w.CanProceed(st, StepDoctor))
	assert.False(t, w.CanProceed(st, StepDate), "patient set, specialty unset")

	require.NoError(t, w.SelectSpecialty(ctx, st, 1))
	assert.False(t, w.CanProceed(st, StepDate), "doctor unset")
	require.NoError(t, w.SelectDoctor(ctx, st, 10))
	assert.True(t, w.CanProceed(st, StepDate))
	assert.False(t, w.CanProceed(st, StepTime))

	require.NoError(t, w.SelectDate(st, "2025-03-12"))
	assert.True(t, w.CanProceed(st, StepTime))
	assert.False(t, w.CanProceed(st, StepConfirm))

	require.NoError(t, w.SelectTime(st, "14:00"))
	assert.True(t, w.CanProceed(st, StepConfirm))
	assert.False(t, w.CanProceed(st, Step(7)))
}

func TestGuardIsCumulative(t *testing.T) {
	w, st, _, _ := setup(t)
	st.SpecialtyID, st.DoctorID, st.Date, st.Time = 1, 10, "2025-03-12", "09:00"

	for step := StepDoctor; step <= StepConfirm; step++ {
		assert.False(t, w.CanProceed(st, step), "step %d without patient", step)
	}
}

func TestNextAndGoTo(t *testing.T) {
	w, st, _, _ := setup(t)

	assert.ErrorIs(t, w.Next(st), ErrStepLocked)
	assert.Equal(t, StepPatient, st.Step)

	require.NoError(t, w.SelectPatient(st, 2))
	require.NoError(t, w.Next(st))
	assert.Equal(t, StepDoctor, st.Step)

	assert.ErrorIs(t, w.GoTo(st, StepTime), ErrStepLocked)
	require.NoError(t, w.GoTo(st, StepPatient))
	assert.ErrorIs(t, w.GoTo(st, Step(9)), ErrUnknownStep)
}

func TestSelectSpecialtyClearsDoctor(t *testing.T) {
	w, st, api, _ := setup(t)
	ctx := context.Background()
	fill(t, w, st)
	require.NoError(t, w.GoTo(st, StepConfirm))

	require.NoError(t, w.SelectSpecialty(ctx, st, 2))
	assert.Zero(t, st.DoctorID)
	assert.Empty(t, st.Availability)
	assert.Equal(t, []clinicapi.Doctor{{ID: 20, Name: "Dra. Eva"}}, st.Doctors)
	assert.Equal(t, StepDoctor, st.Step)
	assert.Equal(t, []int{1, 2}, api.doctorCalls)

	assert.ErrorIs(t, w.SelectDoctor(ctx, st, 10), ErrUnknownOption)
	assert.ErrorIs(t, w.Confirm(ctx, st), ErrIncomplete)
	assert.Empty(t, api.created)
}

func TestSelectDoctorFetchesAvailability(t *testing.T) {
	w, st, api, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, w.SelectPatient(st, 1))
	require.NoError(t, w.SelectSpecialty(ctx, st, 1))

	require.NoError(t, w.SelectDoctor(ctx, st, 10))
	assert.Len(t, st.Availability, 1)

	api.availabilityErr = errors.New("boom")
	require.NoError(t, w.SelectDoctor(ctx, st, 10))
	assert.Equal(t, 10, st.DoctorID)
	assert.Empty(t, st.Availability)
}

func TestSelectDate(t *testing.T) {
	w, st, _, _ := setup(t)

	assert.ErrorIs(t, w.SelectDate(st, "2025-03-09"), ErrDateInPast)
	assert.ErrorIs(t, w.SelectDate(st, "12/03/2025"), ErrInvalidDate)
	assert.Empty(t, st.Date)
	require.NoError(t, w.SelectDate(st, "2025-03-10"))
	assert.Equal(t, "2025-03-10", st.MinDate)
}

func TestSelectTimeFixedOptions(t *testing.T) {
	w, st, _, _ := setup(t)
	assert.ErrorIs(t, w.SelectTime(st, "12:00"), ErrInvalidTime)
	for _, opt := range TimeOptions {
		require.NoError(t, w.SelectTime(st, opt))
	}
}

func TestConfirmSubmitsUTCTimestamp(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	w, st, api, cache := setup(t)
	w.loc = loc
	fill(t, w, st)

	invalidated := false
	defer cache.Subscribe(clinicapi.ResourceAppointments, func(string) { invalidated = true })()

	require.NoError(t, w.Confirm(context.Background(), st))
	require.Len(t, api.created, 1)
	assert.Equal(t, clinicapi.NewAppointment{PatientID: 1, DoctorID: 10, At: "2025-03-12T12:00:00Z"}, api.created[0])
	assert.True(t, st.Submitted)
	assert.Equal(t, MsgBooked, st.Notice.Text)
	assert.True(t, invalidated)

	assert.ErrorIs(t, w.SelectTime(st, "10:00"), ErrSubmitted)
	assert.ErrorIs(t, w.Confirm(context.Background(), st), ErrSubmitted)
	assert.Len(t, api.created, 1)
}

func TestConfirmFailureKeepsSelections(t *testing.T) {
	w, st, api, _ := setup(t)
	fill(t, w, st)
	api.createErr = &clinicapi.RequestError{Resource: "appointments", Op: "create", Status: 409, Message: "Horário indisponível"}

	require.Error(t, w.Confirm(context.Background(), st))
	assert.False(t, st.Submitted)
	assert.Equal(t, editor.NoticeError, st.Notice.Kind)
	assert.Equal(t, "Horário indisponível", st.Notice.Text)
	assert.Equal(t, 10, st.DoctorID)
}

func TestSummaryAndReset(t *testing.T) {
	w, st, _, _ := setup(t)
	fill(t, w, st)

	assert.Equal(t, Summary{Patient: "Ana", Specialty: "Cardiologia", Doctor: "Dr. Caio", Date: "12/03/2025", Time: "09:00"}, w.Summary(st))

	w.Reset(st)
	assert.Equal(t, StepPatient, st.Step)
	assert.Zero(t, st.PatientID)
	assert.Len(t, st.Patients, 2)
	assert.False(t, st.Submitted)
}
