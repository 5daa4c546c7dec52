package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/hub"
	"github.com/candidwatch/go-proctor/pkg/report"
	"github.com/candidwatch/go-proctor/pkg/session"
)

// respondError maps the core error taxonomy onto HTTP status codes.
func respondError(c *fiber.Ctx, err error) error {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEventNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrSessionClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// CreateSessionRequest is the body for POST /api/sessions.
type CreateSessionRequest struct {
	CandidateName string `json:"candidate_name"`

	// Monitor starts detector polling immediately after creation.
	Monitor bool `json:"monitor,omitempty"`
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := s.sessions.Create(c.Context(), req.CandidateName)
	if err != nil {
		return respondError(c, err)
	}

	if req.Monitor {
		if err := s.startMonitor(sess.ID); err != nil {
			return respondError(c, err)
		}
	}

	s.eventHub.BroadcastPayload(hub.KindSession, sess)
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.sessions.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessions)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

func (s *Server) handleCompleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	s.stopMonitor(id)

	sess, err := s.sessions.Complete(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	s.eventHub.BroadcastPayload(hub.KindSession, sess)
	return c.JSON(sess)
}

func (s *Server) handleTerminateSession(c *fiber.Ctx) error {
	id := c.Params("id")
	s.stopMonitor(id)

	sess, err := s.sessions.Terminate(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	s.eventHub.BroadcastPayload(hub.KindSession, sess)
	return c.JSON(sess)
}

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	id := c.Params("id")

	if t := c.Query("type"); t != "" {
		eventType := event.Type(t)
		if !eventType.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown event type"})
		}
		events, err := s.store.ListEventsByType(c.Context(), id, eventType)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(events)
	}

	events, err := s.store.ListEvents(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// AppendEventRequest is the body for POST /api/sessions/:id/events.
// Used for manual flags raised by a human proctor.
type AppendEventRequest struct {
	Type        event.Type     `json:"type"`
	Severity    event.Severity `json:"severity"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleAppendEvent(c *fiber.Ctx) error {
	var req AppendEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	ev, err := s.store.AppendEvent(c.Context(), c.Params("id"), event.Draft{
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		Timestamp:   time.Now(),
		Metadata:    req.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.eventHub.BroadcastPayload(hub.KindEvent, ev)
	return c.Status(fiber.StatusCreated).JSON(ev)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.store.SessionStats(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	rep, err := report.Build(c.Context(), s.store, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rep)
}

func (s *Server) handleStartMonitor(c *fiber.Ctx) error {
	id := c.Params("id")

	sess, err := s.sessions.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if sess.Status.Terminal() {
		return respondError(c, session.ErrSessionClosed)
	}

	if err := s.startMonitor(id); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"session_id": id, "monitoring": true})
}

func (s *Server) handleStopMonitor(c *fiber.Ctx) error {
	id := c.Params("id")

	if _, err := s.sessions.Get(c.Context(), id); err != nil {
		return respondError(c, err)
	}

	s.stopMonitor(id)
	return c.JSON(fiber.Map{"session_id": id, "monitoring": false})
}
