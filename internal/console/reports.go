package console

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/websocket"

	httpmiddleware "github.com/wolfman30/clinic-console/internal/http/middleware"
	"github.com/wolfman30/clinic-console/internal/reports"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// liveTimeout bounds a live reports socket.
const liveTimeout = 30 * time.Second

// ReportsResponse is the body of GET /api/reports.
type ReportsResponse struct {
	Panels []reports.Panel `json:"panels"`
}

// LiveMessage is one frame of the live reports socket.
type LiveMessage struct {
	Type   string          `json:"type"` // "pending", "panel", "done"
	Panels []reports.Panel `json:"panels,omitempty"`
	Panel  *reports.Panel  `json:"panel,omitempty"`
}

// ReportsHandler serves the reports view.
type ReportsHandler struct {
	loader  *reports.Loader
	origins *httpmiddleware.OriginPolicy
	logger  *logging.Logger
}

// NewReportsHandler builds the handler. allowedOrigins restricts the live
// socket handshake; "*" or an empty list accepts any origin.
func NewReportsHandler(loader *reports.Loader, allowedOrigins []string, logger *logging.Logger) *ReportsHandler {
	return &ReportsHandler{
		loader:  loader,
		origins: httpmiddleware.NewOriginPolicy(allowedOrigins),
		logger:  logger.Component("reports"),
	}
}

// Show returns every panel once all four have settled.
// GET /api/reports
func (h *ReportsHandler) Show(w http.ResponseWriter, r *http.Request) {
	panels := h.loader.Load(r.Context(), nil)
	writeJSON(w, http.StatusOK, ReportsResponse{Panels: panels})
}

// Live streams each panel as soon as it settles.
// GET /api/reports/live (WebSocket)
func (h *ReportsHandler) Live(w http.ResponseWriter, r *http.Request) {
	server := websocket.Server{
		Handshake: h.handshake,
		Handler: func(conn *websocket.Conn) {
			h.serveLive(conn)
		},
	}
	server.ServeHTTP(w, r)
}

func (h *ReportsHandler) serveLive(conn *websocket.Conn) {
	defer conn.Close()
	ctx, cancel := context.WithTimeout(conn.Request().Context(), liveTimeout)
	defer cancel()

	if err := websocket.JSON.Send(conn, LiveMessage{Type: "pending", Panels: reports.Pending()}); err != nil {
		h.logger.Warn("live reports: send failed", "error", err)
		return
	}
	sendFailed := false
	h.loader.Load(ctx, func(p reports.Panel) {
		if sendFailed {
			return
		}
		if err := websocket.JSON.Send(conn, LiveMessage{Type: "panel", Panel: &p}); err != nil {
			sendFailed = true
			h.logger.Warn("live reports: send failed", "panel", p.Name, "error", err)
			cancel()
		}
	})
	if sendFailed {
		return
	}
	_ = websocket.JSON.Send(conn, LiveMessage{Type: "done"})
}

func (h *ReportsHandler) handshake(cfg *websocket.Config, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return fmt.Errorf("console: missing origin")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("console: bad origin: %w", err)
	}
	cfg.Origin = u
	if h.origins.Open() || h.origins.Allows(origin) {
		return nil
	}
	return fmt.Errorf("console: origin %s not allowed", origin)
}
