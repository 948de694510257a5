package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/clinic-console/internal/api/router"
	"github.com/wolfman30/clinic-console/internal/appointments"
	"github.com/wolfman30/clinic-console/internal/booking"
	"github.com/wolfman30/clinic-console/internal/clinicapi"
	appconfig "github.com/wolfman30/clinic-console/internal/config"
	"github.com/wolfman30/clinic-console/internal/console"
	"github.com/wolfman30/clinic-console/internal/doctors"
	"github.com/wolfman30/clinic-console/internal/editor"
	httpmiddleware "github.com/wolfman30/clinic-console/internal/http/middleware"
	"github.com/wolfman30/clinic-console/internal/observability/metrics"
	"github.com/wolfman30/clinic-console/internal/patients"
	"github.com/wolfman30/clinic-console/internal/plans"
	"github.com/wolfman30/clinic-console/internal/querycache"
	"github.com/wolfman30/clinic-console/internal/reports"
	"github.com/wolfman30/clinic-console/internal/specialties"
	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// Deps are the process-level collaborators of the console.
type Deps struct {
	Config  *appconfig.Config
	Logger  *logging.Logger
	Store   viewstate.Store
	Backend string
	Pinger  console.Pinger
	// Registerer receives the console metrics; nil means the default registry.
	Registerer     prometheus.Registerer
	MetricsHandler http.Handler
	// HTTPClient overrides the gateway transport, mainly for tests.
	HTTPClient *http.Client
}

// Console is the assembled application.
type Console struct {
	Handler     http.Handler
	Client      *clinicapi.Client
	Cache       *querycache.Cache
	RateLimiter *httpmiddleware.RateLimiter
}

// Close releases background resources.
func (c *Console) Close() {
	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}
}

// RegisterLoaders binds every cache key to its gateway call.
func RegisterLoaders(cache *querycache.Cache, client *clinicapi.Client) {
	cache.Register(clinicapi.ResourceDoctors, func(ctx context.Context) (any, error) {
		return client.ListDoctors(ctx)
	})
	cache.Register(clinicapi.ResourceSpecialties, func(ctx context.Context) (any, error) {
		return client.ListSpecialties(ctx)
	})
	cache.Register(clinicapi.ResourcePlans, func(ctx context.Context) (any, error) {
		return client.ListPlans(ctx)
	})
	cache.Register(clinicapi.ResourcePatients, func(ctx context.Context) (any, error) {
		return patients.Load(ctx, client.ListPatients, cache)
	})
	cache.Register(clinicapi.ResourceAppointments, func(ctx context.Context) (any, error) {
		return client.ListAppointments(ctx, 0)
	})
	// Plan renames change the names patients carry; doctor and specialty
	// edits change the names joined into appointments.
	cache.DependsOn(clinicapi.ResourcePatients, clinicapi.ResourcePlans)
	cache.DependsOn(clinicapi.ResourceDoctors, clinicapi.ResourceSpecialties)
	cache.DependsOn(clinicapi.ResourceAppointments, clinicapi.ResourceDoctors, clinicapi.ResourcePatients)
	reports.RegisterLoaders(cache, client)
}

// BuildConsole wires gateway, cache, views and router.
func BuildConsole(deps Deps) (*Console, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	store := deps.Store
	backend := deps.Backend
	if store == nil {
		store, backend = viewstate.NewMemoryStore(cfg.SessionTTL), BackendMemory
	}

	var (
		gatewayMetrics *metrics.GatewayMetrics
		cacheMetrics   *metrics.CacheMetrics
		viewMetrics    *metrics.ViewMetrics
	)
	if cfg.MetricsEnabled {
		gatewayMetrics = metrics.NewGatewayMetrics(deps.Registerer)
		cacheMetrics = metrics.NewCacheMetrics(deps.Registerer)
		viewMetrics = metrics.NewViewMetrics(deps.Registerer)
	}

	client, err := clinicapi.New(clinicapi.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		HTTPClient: deps.HTTPClient,
		Logger:     logger,
		Metrics:    gatewayMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: gateway client: %w", err)
	}

	cache := querycache.New(logger, cacheMetrics)
	RegisterLoaders(cache, client)
	loc := cfg.Location()

	doctorRes := doctors.New(client, cache)
	patientRes := patients.New(client, cache)
	doctorEditor := editor.New[clinicapi.Doctor, doctors.Form](doctorRes, cache, logger, viewMetrics)
	patientEditor := editor.New[clinicapi.Patient, patients.Form](patientRes, cache, logger, viewMetrics)
	planEditor := editor.New[clinicapi.Plan, plans.Form](plans.New(client), cache, logger, viewMetrics)
	specialtyEditor := editor.New[clinicapi.Specialty, specialties.Form](specialties.New(client), cache, logger, viewMetrics)
	appointmentEditor := editor.New[clinicapi.Appointment, struct{}](appointments.New(client, loc), cache, logger, viewMetrics)

	views := map[string]router.View{
		clinicapi.ResourceDoctors: console.NewEditorHandler[clinicapi.Doctor, doctors.Form](doctorEditor, store,
			func(ctx context.Context, st *editor.State[clinicapi.Doctor, doctors.Form]) (any, any) {
				opts, err := doctorRes.SpecialtyOptions(ctx)
				if err != nil {
					logger.Warn("specialty options unavailable", "error", err)
				}
				return doctors.Rows(st.Records), map[string]any{"especialidades": opts}
			}, logger),
		clinicapi.ResourcePatients: console.NewEditorHandler[clinicapi.Patient, patients.Form](patientEditor, store,
			func(ctx context.Context, st *editor.State[clinicapi.Patient, patients.Form]) (any, any) {
				opts, err := patientRes.PlanOptions(ctx)
				if err != nil {
					logger.Warn("plan options unavailable", "error", err)
				}
				return patients.Rows(st.Records), map[string]any{"planos": opts}
			}, logger),
		clinicapi.ResourcePlans: console.NewEditorHandler[clinicapi.Plan, plans.Form](planEditor, store,
			func(_ context.Context, st *editor.State[clinicapi.Plan, plans.Form]) (any, any) {
				return plans.Rows(st.Records), nil
			}, logger),
		clinicapi.ResourceSpecialties:  console.NewEditorHandler[clinicapi.Specialty, specialties.Form](specialtyEditor, store, nil, logger),
		clinicapi.ResourceAppointments: console.NewAppointmentsHandler(appointmentEditor, store, loc, logger),
		booking.ViewName: console.NewBookingHandler(
			booking.New(client, cache, loc, logger, viewMetrics), store, logger),
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		Health:             console.NewHealthHandler(backend, deps.Pinger),
		Sessions:           console.NewSessionHandler(store, logger),
		Reports:            console.NewReportsHandler(reports.NewLoader(cache, logger), cfg.CORSAllowedOrigins, logger),
		MetricsHandler:     deps.MetricsHandler,
		Views:              views,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	logger.Info("console wired",
		"api_base_url", cfg.APIBaseURL,
		"view_store", backend,
		"timezone", loc.String(),
		"views", len(views))

	return &Console{Handler: handler, Client: client, Cache: cache, RateLimiter: limiter}, nil
}
