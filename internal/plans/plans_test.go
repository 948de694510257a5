package plans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/editor"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

type fakeAPI struct {
	plans   []clinicapi.Plan
	created []clinicapi.Plan
	updated map[int]clinicapi.Plan
	deleted []string
	err     error
}

func (f *fakeAPI) CreatePlan(_ context.Context, p clinicapi.Plan) (*clinicapi.Plan, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return &p, nil
}

func (f *fakeAPI) UpdatePlan(_ context.Context, id int, p clinicapi.Plan) (*clinicapi.Plan, error) {
	if f.updated == nil {
		f.updated = map[int]clinicapi.Plan{}
	}
	f.updated[id] = p
	return &p, nil
}

func (f *fakeAPI) DeletePlan(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

func setup(t *testing.T, seed ...clinicapi.Plan) (*editor.Editor[clinicapi.Plan, Form], *fakeAPI) {
	t.Helper()
	api := &fakeAPI{plans: seed}
	cache := querycache.New(logging.Default(), nil)
	cache.Register(clinicapi.ResourcePlans, func(context.Context) (any, error) {
		return append([]clinicapi.Plan{}, api.plans...), nil
	})
	return editor.New[clinicapi.Plan, Form](New(api), cache, nil, nil), api
}

func TestCreateAcceptsCommaDecimal(t *testing.T) {
	ed, api := setup(t)
	st := ed.NewState()
	require.NoError(t, ed.OpenCreate(st))

	require.NoError(t, ed.Submit(context.Background(), st, Form{Name: " Plus ", Price: "120,50"}))
	require.Len(t, api.created, 1)
	assert.Equal(t, clinicapi.Plan{Name: "Plus", Price: 120.5}, api.created[0])
	assert.Equal(t, "Plano criado com sucesso!", st.Notice.Text)
}

func TestPriceValidation(t *testing.T) {
	res := New(&fakeAPI{})
	ctx := context.Background()

	assert.Equal(t, MsgInvalidPrice, res.Validate(ctx, Form{Name: "X", Price: "abc"})["preco"])
	assert.Equal(t, MsgNegativePrice, res.Validate(ctx, Form{Name: "X", Price: "-1"})["preco"])
	assert.Equal(t, editor.MsgRequired, res.Validate(ctx, Form{Name: "X"})["preco"])
	assert.Empty(t, res.Validate(ctx, Form{Name: "X", Price: "0"}))
}

func TestUpdateByIDDeleteByName(t *testing.T) {
	ed, api := setup(t, clinicapi.Plan{ID: 4, Name: "Basic", Price: 50})
	ctx := context.Background()
	st := ed.NewState()
	require.NoError(t, ed.List(ctx, st))

	require.NoError(t, ed.OpenEdit(st, "4"))
	assert.Equal(t, Form{ID: 4, Name: "Basic", Price: "50.00"}, st.Form)
	require.NoError(t, ed.Submit(ctx, st, Form{ID: 9, Name: "Basic", Price: "55"}))
	assert.Equal(t, clinicapi.Plan{Name: "Basic", Price: 55}, api.updated[4])

	require.NoError(t, ed.RequestDelete(st, "4"))
	assert.Equal(t, "Plano: Basic\nPreço: R$ 50,00", st.DeleteSummary)
	require.NoError(t, ed.ConfirmDelete(ctx, st))
	assert.Equal(t, []string{"Basic"}, api.deleted)
}

func TestRows(t *testing.T) {
	rows := Rows([]clinicapi.Plan{{ID: 1, Name: "Gold", Price: 1250.5}})
	assert.Equal(t, []Row{{Key: "1", Name: "Gold", Price: "R$ 1.250,50"}}, rows)
}
