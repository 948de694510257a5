package clinicapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRefDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want PlanRef
	}{
		{`{"plano_saude":"Basic"}`, PlanRef{Name: "Basic"}},
		{`{"plano_saude":2}`, PlanRef{ID: 2}},
		{`{"plano_saude":"2"}`, PlanRef{ID: 2}},
		{`{"plano_saude":null}`, PlanRef{}},
		{`{}`, PlanRef{}},
	}
	for _, tt := range tests {
		var p Patient
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &p), tt.raw)
		assert.Equal(t, tt.want, p.Plan, tt.raw)
	}
}

func TestPlanRefEncodesName(t *testing.T) {
	out, err := json.Marshal(Patient{Name: "Ana", Plan: PlanRef{ID: 1, Name: "Basic"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"plano_saude":"Basic"`)
}

func TestResolvePlanRefs(t *testing.T) {
	plans := []Plan{{ID: 1, Name: "Basic"}, {ID: 2, Name: "Plus"}}
	patients := []Patient{
		{Name: "a", Plan: PlanRef{ID: 2}},
		{Name: "b", Plan: PlanByName("Basic")},
		{Name: "c", Plan: PlanRef{ID: 9}},
	}
	got := ResolvePlanRefs(patients, plans)
	assert.Equal(t, "Plus", got[0].Plan.Name)
	assert.Equal(t, "Basic", got[1].Plan.Name)
	assert.False(t, got[2].Plan.Resolved())
	assert.Equal(t, 2, patients[0].Plan.ID, "input must not be mutated")
	assert.Empty(t, patients[0].Plan.Name, "input must not be mutated")
}

func TestPriceDecoding(t *testing.T) {
	var plans []Plan
	raw := `[{"id_plano":1,"nome_plano":"Basic","preco":"50.00"},{"id_plano":2,"nome_plano":"Plus","preco":120},{"id_plano":3,"nome_plano":"X","preco":"abc"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &plans))
	assert.Equal(t, Price(50), plans[0].Price)
	assert.Equal(t, Price(120), plans[1].Price)
	assert.Equal(t, Price(0), plans[2].Price)
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice("1.250,50")
	require.NoError(t, err)
	assert.InDelta(t, 1250.5, float64(p), 1e-9)
	p, err = ParsePrice("R$ 99.90")
	require.NoError(t, err)
	assert.InDelta(t, 99.9, float64(p), 1e-9)
	_, err = ParsePrice(" ")
	assert.Error(t, err)
	_, err = ParsePrice("dez")
	assert.Error(t, err)
}

func TestPriceBRL(t *testing.T) {
	assert.Equal(t, "R$ 50,00", Price(50).BRL())
	assert.Equal(t, "R$ 1.250,50", Price(1250.5).BRL())
	assert.Equal(t, "R$ 0,99", Price(0.99).BRL())
	assert.Equal(t, "R$ 1.000.000,00", Price(1000000).BRL())
}

func TestAppointmentTimestampDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{`"2025-03-10T10:00:00Z"`, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
		{`"2025-03-10T10:00:00-03:00"`, time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)},
		{`"2025-03-10T10:00:00.250Z"`, time.Date(2025, 3, 10, 10, 0, 0, 250_000_000, time.UTC)},
		{`"2025-03-10T10:00:00"`, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
		{`"2025-03-10T10:00:00.5"`, time.Date(2025, 3, 10, 10, 0, 0, 500_000_000, time.UTC)},
		{`"2025-03-10 10:00:00"`, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var a Appointment
		require.NoError(t, json.Unmarshal([]byte(`{"id_consulta":1,"data_consulta":`+tt.raw+`}`), &a), tt.raw)
		assert.True(t, tt.want.Equal(a.At.Time), "%s: got %s", tt.raw, a.At.Time)
	}

	var a Appointment
	require.NoError(t, json.Unmarshal([]byte(`{"id_consulta":1,"data_consulta":null}`), &a))
	assert.True(t, a.At.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"data_consulta":"10/03/2025"}`), &a))
}

func TestAppointmentListWithoutOffsets(t *testing.T) {
	var list []Appointment
	raw := `[{"id_consulta":1,"data_consulta":"2025-03-10T10:00:00"},{"id_consulta":2,"data_consulta":"2025-03-11T09:30:00Z"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list, 2)
	assert.Equal(t, 10, list[0].At.Hour())

	out, err := json.Marshal(list[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"data_consulta":"2025-03-10T10:00:00Z"`)

	var back Appointment
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, list[0].At.Equal(back.At.Time))
}
