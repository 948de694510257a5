package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/clinic-console/internal/config"
	"github.com/wolfman30/clinic-console/internal/viewstate"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	client := BuildRedisClient(context.Background(), &appconfig.Config{}, quietLogger(), true)
	assert.Nil(t, client)
}

func TestBuildRedisClientUnreachable(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	client := BuildRedisClient(context.Background(), cfg, quietLogger(), true)
	assert.Nil(t, client)
}

func TestBuildViewStoreUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), SessionTTL: time.Hour}

	client := BuildRedisClient(context.Background(), cfg, quietLogger(), true)
	require.NotNil(t, client)
	defer client.Close()

	store, backend, pinger := BuildViewStore(client, cfg)
	assert.Equal(t, BackendRedis, backend)
	assert.IsType(t, &viewstate.RedisStore{}, store)
	require.NotNil(t, pinger)
	assert.NoError(t, pinger.Ping(context.Background()))

	mr.Close()
	assert.Error(t, pinger.Ping(context.Background()))
}

func TestBuildViewStoreFallsBackToMemory(t *testing.T) {
	store, backend, pinger := BuildViewStore(nil, &appconfig.Config{SessionTTL: time.Hour})
	assert.Equal(t, BackendMemory, backend)
	assert.IsType(t, &viewstate.MemoryStore{}, store)
	assert.Nil(t, pinger)
}

func TestBuildConsoleRequiresConfig(t *testing.T) {
	_, err := BuildConsole(Deps{})
	assert.Error(t, err)
}

func TestBuildConsoleRejectsBadBaseURL(t *testing.T) {
	_, err := BuildConsole(Deps{
		Config:     &appconfig.Config{APIBaseURL: "", SessionTTL: time.Hour},
		Logger:     quietLogger(),
		Registerer: prometheus.NewRegistry(),
	})
	assert.Error(t, err)
}

func TestBuildConsoleServesHealthFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{
		APIBaseURL:     "http://clinic.invalid",
		ClinicTimezone: "UTC",
		RedisAddr:      mr.Addr(),
		SessionTTL:     time.Hour,
		RateLimitRPS:   10,
		RateLimitBurst: 10,
		MetricsEnabled: true,
	}
	client := BuildRedisClient(context.Background(), cfg, quietLogger(), true)
	require.NotNil(t, client)
	defer client.Close()
	store, backend, pinger := BuildViewStore(client, cfg)

	app, err := BuildConsole(Deps{
		Config:     cfg,
		Logger:     quietLogger(),
		Store:      store,
		Backend:    backend,
		Pinger:     pinger,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.RateLimiter)

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"view_store":"redis"`)

	mr.Close()
	rr = httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"degraded"`)
}
