package specialties

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

type fakeAPI struct {
	list    []clinicapi.Specialty
	created []string
	updated map[int]string
	deleted []int
	delErr  error
}

func (f *fakeAPI) CreateSpecialty(_ context.Context, s clinicapi.Specialty) (*clinicapi.Specialty, error) {
	f.created = append(f.created, s.Name)
	s.ID = len(f.list) + 1
	f.list = append(f.list, s)
	return &s, nil
}

func (f *fakeAPI) UpdateSpecialty(_ context.Context, id int, s clinicapi.Specialty) (*clinicapi.Specialty, error) {
	if f.updated == nil {
		f.updated = map[int]string{}
	}
	f.updated[id] = s.Name
	return &s, nil
}

func (f *fakeAPI) DeleteSpecialty(_ context.Context, id int) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func setup(t *testing.T, seed ...clinicapi.Specialty) (*editor.Editor[clinicapi.Specialty, Form], *fakeAPI) {
	t.Helper()
	api := &fakeAPI{list: seed}
	cache := querycache.New(logging.Default(), nil)
	cache.Register(clinicapi.ResourceSpecialties, func(context.Context) (any, error) {
		return append([]clinicapi.Specialty{}, api.list...), nil
	})
	return editor.New[clinicapi.Specialty, Form](New(api), cache, nil, nil), api
}

func TestCreateAndEdit(t *testing.T) {
	ed, api := setup(t)
	ctx := context.Background()
	st := ed.NewState()
	require.NoError(t, ed.List(ctx, st))
	assert.True(t, st.Empty)

	require.NoError(t, ed.OpenCreate(st))
	require.NoError(t, ed.Submit(ctx, st, Form{Name: " Cardiologia "}))
	assert.Equal(t, []string{"Cardiologia"}, api.created)
	require.Len(t, st.Records, 1)

	require.NoError(t, ed.OpenEdit(st, "1"))
	require.NoError(t, ed.Submit(ctx, st, Form{Name: "Cardiologia Clínica"}))
	assert.Equal(t, "Cardiologia Clínica", api.updated[1])
	assert.Equal(t, "Especialidade atualizada com sucesso!", st.Notice.Text)
}

func TestBlankNameRejected(t *testing.T) {
	ed, api := setup(t)
	st := ed.NewState()
	require.NoError(t, ed.OpenCreate(st))

	err := ed.Submit(context.Background(), st, Form{Name: "   "})
	var verr *editor.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, api.created)
}

func TestDeleteFailureShowsServerMessage(t *testing.T) {
	ed, api := setup(t, clinicapi.Specialty{ID: 3, Name: "Pediatria"})
	ctx := context.Background()
	st := ed.NewState()
	require.NoError(t, ed.List(ctx, st))
	api.delErr = &clinicapi.RequestError{Resource: "specialties", Op: "delete", Status: 409, Message: "Especialidade possui médicos vinculados"}

	require.NoError(t, ed.RequestDelete(st, "3"))
	err := ed.ConfirmDelete(ctx, st)
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*clinicapi.RequestError)))
	assert.Equal(t, editor.ModeViewing, st.Mode)
	assert.Equal(t, "Especialidade possui médicos vinculados", st.Notice.Text)
	assert.Len(t, st.Records, 1)
}
