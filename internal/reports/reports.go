// Package reports loads the four dashboard panels. Each panel is fetched
// through the query cache on its own goroutine and reported as soon as it
// settles; a failing panel never holds back the others.
package reports

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/clinic-console/internal/clinicapi"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// Panel names, in display order.
const (
	PanelPlanPrices          = "plan_prices"
	PanelPatientsByPlan      = "patients_by_plan"
	PanelNewPatientsPerMonth = "new_patients_per_month"
	PanelAgeSummary          = "age_summary"
)

// Cache keys of the aggregate datasets. Plan prices reuse the plans key.
const (
	KeyPatientsByPlan      = "reports.patients_by_plan"
	KeyNewPatientsPerMonth = "reports.new_patients_per_month"
	KeyAgeSummary          = "reports.age_summary"
)

// Panels lists every panel in display order.
var Panels = []string{PanelPlanPrices, PanelPatientsByPlan, PanelNewPatientsPerMonth, PanelAgeSummary}

// Status is a panel's load state.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// MsgPanelFailed is the inline error of a failed panel.
const MsgPanelFailed = "Erro ao carregar dados."

// Panel is one chart or counter.
type Panel struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// PlanPrice is one bar of the plan price chart.
type PlanPrice struct {
	Name      string  `json:"nome"`
	Price     float64 `json:"preco"`
	Formatted string  `json:"preco_formatado"`
}

// AgeCounters are the two age-bracket counters. Nil means not reported.
type AgeCounters struct {
	DoctorsOver50 *int `json:"medicos_acima_50"`
	AdultPatients *int `json:"pacientes_18_ou_mais"`
}

// API is the slice of the gateway client the aggregate loaders need.
type API interface {
	PatientsByPlan(ctx context.Context) ([]clinicapi.PlanShare, error)
	NewPatientsPerMonth(ctx context.Context) ([]clinicapi.MonthlyCount, error)
	AgeSummary(ctx context.Context) (*clinicapi.AgeSummary, error)
}

// RegisterLoaders registers the aggregate datasets on the cache and ties
// their invalidation to the collections they aggregate.
func RegisterLoaders(cache *querycache.Cache, api API) {
	cache.Register(KeyPatientsByPlan, func(ctx context.Context) (any, error) {
		return api.PatientsByPlan(ctx)
	})
	cache.Register(KeyNewPatientsPerMonth, func(ctx context.Context) (any, error) {
		return api.NewPatientsPerMonth(ctx)
	})
	cache.Register(KeyAgeSummary, func(ctx context.Context) (any, error) {
		return api.AgeSummary(ctx)
	})
	cache.DependsOn(KeyPatientsByPlan, clinicapi.ResourcePatients, clinicapi.ResourcePlans)
	cache.DependsOn(KeyNewPatientsPerMonth, clinicapi.ResourcePatients)
	cache.DependsOn(KeyAgeSummary, clinicapi.ResourcePatients, clinicapi.ResourceDoctors)
}

// Loader assembles panels from the cache.
type Loader struct {
	cache  *querycache.Cache
	logger *logging.Logger
}

func NewLoader(cache *querycache.Cache, logger *logging.Logger) *Loader {
	return &Loader{cache: cache, logger: logger.Component("reports")}
}

// Pending returns every panel in the loading state.
func Pending() []Panel {
	out := make([]Panel, len(Panels))
	for i, name := range Panels {
		out[i] = Panel{Name: name, Status: StatusLoading}
	}
	return out
}

// Load fetches the four panels concurrently. onPanel, when non-nil, is called
// once per panel as it settles; calls are serialized. The returned slice is
// in display order.
func (l *Loader) Load(ctx context.Context, onPanel func(Panel)) []Panel {
	out := Pending()
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for i, name := range Panels {
		g.Go(func() error {
			p := l.loadPanel(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			out[i] = p
			if onPanel != nil {
				onPanel(p)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (l *Loader) loadPanel(ctx context.Context, name string) Panel {
	data, err := l.fetch(ctx, name)
	if err != nil {
		l.logger.Warn("report panel failed", "panel", name, "error", err)
		return Panel{Name: name, Status: StatusFailed, Error: clinicapi.UserMessage(err, MsgPanelFailed)}
	}
	return Panel{Name: name, Status: StatusReady, Data: data}
}

func (l *Loader) fetch(ctx context.Context, name string) (any, error) {
	switch name {
	case PanelPlanPrices:
		plans, err := querycache.Typed[[]clinicapi.Plan](ctx, l.cache, clinicapi.ResourcePlans)
		if err != nil {
			return nil, err
		}
		return PlanPrices(plans), nil
	case PanelPatientsByPlan:
		return querycache.Typed[[]clinicapi.PlanShare](ctx, l.cache, KeyPatientsByPlan)
	case PanelNewPatientsPerMonth:
		return querycache.Typed[[]clinicapi.MonthlyCount](ctx, l.cache, KeyNewPatientsPerMonth)
	case PanelAgeSummary:
		summary, err := querycache.Typed[*clinicapi.AgeSummary](ctx, l.cache, KeyAgeSummary)
		if err != nil {
			return nil, err
		}
		return Counters(summary), nil
	default:
		return nil, fmt.Errorf("reports: unknown panel %q", name)
	}
}

// PlanPrices turns plans into chart points sorted by ascending price; ties
// keep the backend order.
func PlanPrices(plans []clinicapi.Plan) []PlanPrice {
	out := make([]PlanPrice, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanPrice{Name: p.Name, Price: float64(p.Price), Formatted: p.Price.BRL()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// Counters flattens the age summary.
func Counters(s *clinicapi.AgeSummary) AgeCounters {
	if s == nil {
		return AgeCounters{}
	}
	return AgeCounters{DoctorsOver50: s.DoctorsOver50, AdultPatients: s.AdultPatients}
}
