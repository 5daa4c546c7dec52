// Package web exposes the proctoring core over HTTP: session lifecycle,
// event ledger, reports, monitoring control, and a live websocket feed.
package web

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/candidwatch/go-proctor/internal/log"
	"github.com/candidwatch/go-proctor/pkg/detection"
	"github.com/candidwatch/go-proctor/pkg/hub"
	"github.com/candidwatch/go-proctor/pkg/monitor"
	"github.com/candidwatch/go-proctor/pkg/session"
	"github.com/candidwatch/go-proctor/pkg/store"
)

// Server is the proctoring HTTP server.
type Server struct {
	app  *fiber.App
	port string

	store      store.Store
	sessions   *session.Manager
	monitorCfg monitor.Config

	// NewSamplers builds the detector pair for a session when monitoring
	// starts. Nil means the monitoring endpoints are disabled.
	NewSamplers func() (detection.FaceSampler, detection.ObjectSampler, error)

	// Live event fan-out
	eventHub *hub.Hub

	// Active monitors by session ID
	monitors   map[string]*monitor.Monitor
	monitorsMu sync.Mutex
}

// NewServer creates the proctoring server on the given port.
func NewServer(port string, st store.Store, monitorCfg monitor.Config) *Server {
	s := &Server{
		port:       port,
		store:      st,
		sessions:   session.NewManager(st),
		monitorCfg: monitorCfg,
		eventHub:   hub.New("events"),
		monitors:   make(map[string]*monitor.Monitor),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-proctor",
		DisableStartupMessage: true,
	})

	// CORS for the dashboard frontend
	app.Use(cors.New())

	api := app.Group("/api")
	api.Post("/sessions", s.handleCreateSession)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Post("/sessions/:id/complete", s.handleCompleteSession)
	api.Post("/sessions/:id/terminate", s.handleTerminateSession)
	api.Get("/sessions/:id/events", s.handleListEvents)
	api.Post("/sessions/:id/events", s.handleAppendEvent)
	api.Get("/sessions/:id/stats", s.handleStats)
	api.Get("/sessions/:id/report", s.handleReport)
	api.Post("/sessions/:id/monitor/start", s.handleStartMonitor)
	api.Post("/sessions/:id/monitor/stop", s.handleStopMonitor)

	// Websocket upgrade for the live event feed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventSocket))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hub and the HTTP listener. Blocks until shutdown.
func (s *Server) Start() error {
	go s.eventHub.Run()
	log.Info("server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops all monitors, the hub, and the HTTP listener.
func (s *Server) Shutdown() error {
	s.monitorsMu.Lock()
	for id, m := range s.monitors {
		m.Stop()
		delete(s.monitors, id)
	}
	s.monitorsMu.Unlock()

	s.eventHub.Stop()
	return s.app.Shutdown()
}

// startMonitor creates and starts a monitor for a session, forwarding its
// events to the websocket hub.
func (s *Server) startMonitor(sessionID string) error {
	if s.NewSamplers == nil {
		return fmt.Errorf("no detector configured")
	}

	s.monitorsMu.Lock()
	defer s.monitorsMu.Unlock()

	if _, running := s.monitors[sessionID]; running {
		return nil
	}

	faces, objects, err := s.NewSamplers()
	if err != nil {
		return fmt.Errorf("failed to build samplers: %w", err)
	}

	m := monitor.New(s.monitorCfg, sessionID, s.store, faces, objects)
	m.Start(context.Background())
	s.monitors[sessionID] = m

	go func() {
		for ev := range m.Events() {
			s.eventHub.BroadcastPayload(hub.KindEvent, ev)
		}
		faces.Close()
		objects.Close()
	}()

	s.eventHub.BroadcastPayload(hub.KindStatus, fiber.Map{
		"session_id": sessionID,
		"monitoring": true,
	})
	return nil
}

// stopMonitor stops a session's monitor if one is running.
func (s *Server) stopMonitor(sessionID string) {
	s.monitorsMu.Lock()
	m, ok := s.monitors[sessionID]
	if ok {
		delete(s.monitors, sessionID)
	}
	s.monitorsMu.Unlock()

	if !ok {
		return
	}
	m.Stop()
	s.eventHub.BroadcastPayload(hub.KindStatus, fiber.Map{
		"session_id": sessionID,
		"monitoring": false,
	})
}

// handleEventSocket attaches a websocket client to the event hub.
func (s *Server) handleEventSocket(c *websocket.Conn) {
	client := hub.NewClient(s.eventHub, c)
	client.Run()
}
