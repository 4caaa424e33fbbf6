package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oghuzrustamli/iranisrael/internal/entry"
	"github.com/oghuzrustamli/iranisrael/internal/geo"
	"github.com/oghuzrustamli/iranisrael/internal/store"
)

// QueueInfo exposes the extraction queue state for the status endpoint.
type QueueInfo interface {
	Status() string
	Len() int
}

// Refresher triggers a clear-and-refetch cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Server is the HTTP API served in watch mode: incident CRUD, manual
// entry, refresh triggering, and metrics.
type Server struct {
	echo      *echo.Echo
	incidents *store.Incidents
	gazetteer *geo.Gazetteer
	queue     QueueInfo
	refresher Refresher
	clock     clockwork.Clock
	logger    *slog.Logger
}

// New wires the routes. queue and refresher may be nil for read-only use.
func New(incidents *store.Incidents, gazetteer *geo.Gazetteer, queue QueueInfo, refresher Refresher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		incidents: incidents,
		gazetteer: gazetteer,
		queue:     queue,
		refresher: refresher,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
	}

	e.GET("/api/incidents", s.listIncidents)
	e.POST("/api/incidents", s.addIncident)
	e.DELETE("/api/incidents/:id", s.removeIncident)
	e.POST("/api/refresh", s.triggerRefresh)
	e.POST("/api/clear", s.clearIncidents)
	e.GET("/api/status", s.status)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// SetClock swaps the time source for tests.
func (s *Server) SetClock(c clockwork.Clock) {
	if c != nil {
		s.clock = c
	}
}

// Handler returns the underlying http.Handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) listIncidents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.incidents.Items())
}

// manualRequest mirrors entry.Form for the JSON API; the date travels as
// a plain day string.
type manualRequest struct {
	Country        string   `json:"country"`
	Cities         []string `json:"cities"`
	TargetLocation string   `json:"targetLocation"`
	Weapons        []string `json:"weapons"`
	Deaths         string   `json:"deaths"`
	Injured        string   `json:"injured"`
	Date           string   `json:"date"`
	WeaponDetails  string   `json:"weaponDetails"`
	ImpactRadius   float64  `json:"impactRadius"`
}

func (s *Server) addIncident(c echo.Context) error {
	var req manualRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	form := entry.Form{
		Country:        req.Country,
		Cities:         req.Cities,
		TargetLocation: req.TargetLocation,
		Weapons:        req.Weapons,
		Deaths:         req.Deaths,
		Injured:        req.Injured,
		WeaponDetails:  req.WeaponDetails,
		ImpactRadius:   req.ImpactRadius,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", req.Date))
		}
		form.Date = date
	}

	records, err := entry.Submit(c.Request().Context(), form, s.gazetteer, s.incidents, s.clock)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, records)
}

func (s *Server) removeIncident(c echo.Context) error {
	id := c.Param("id")
	if err := s.incidents.Remove(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) triggerRefresh(c echo.Context) error {
	if s.refresher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "refresh not available")
	}
	// A cycle already in progress makes the trigger a no-op inside the
	// pipeline; the request never blocks on the fetch.
	go func() {
		if err := s.refresher.Refresh(context.Background()); err != nil {
			s.logger.Error("refresh failed", "error", err)
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (s *Server) clearIncidents(c echo.Context) error {
	if err := s.incidents.ClearAutomatedPreserveManual(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"remaining": s.incidents.Len()})
}

func (s *Server) status(c echo.Context) error {
	resp := map[string]any{
		"incidents": s.incidents.Len(),
	}
	if s.queue != nil {
		resp["status"] = s.queue.Status()
		resp["queued"] = s.queue.Len()
	}
	return c.JSON(http.StatusOK, resp)
}
