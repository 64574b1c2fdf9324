package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/roadwatch/roadwatch/pkg/hub"
	"github.com/roadwatch/roadwatch/pkg/scan"
)

// handleStatus returns the current control-loop state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleResult returns the latest analysis result, or 204 when no scan has
// completed yet.
func (s *Server) handleResult(c *fiber.Ctx) error {
	s.mu.RLock()
	res := s.lastResult
	s.mu.RUnlock()
	if res == nil {
		res = s.controller.Result()
	}
	if res == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(res)
}

// handleScan requests one analysis cycle. A scan already in flight means
// the request is dropped, which is reported, not an error.
func (s *Server) handleScan(c *fiber.Ctx) error {
	accepted := s.controller.RequestScan(c.Context())
	s.PublishStatus()
	return c.JSON(fiber.Map{"accepted": accepted})
}

// handleLive switches to the live camera.
func (s *Server) handleLive(c *fiber.Ctx) error {
	if err := s.controller.StartLive(c.Context()); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, scan.ErrSessionActive) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	s.PublishStatus()
	return c.JSON(s.status())
}

// toggleRequest is the body for the autoscan and voice toggles.
type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// handleAutoScan toggles periodic scanning.
func (s *Server) handleAutoScan(c *fiber.Ctx) error {
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	if req.Enabled {
		// Ticks outlive this request; the scheduler must not hold on to
		// fiber's request context, which fasthttp recycles on return.
		if err := s.controller.EnableAutoScan(context.Background()); err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
	} else {
		s.controller.DisableAutoScan()
	}
	s.PublishStatus()
	return c.JSON(s.status())
}

// handleVoice toggles narration.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	if s.arbiter == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "narration not configured"})
	}
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	s.arbiter.SetEnabled(req.Enabled)
	s.PublishStatus()
	return c.JSON(s.status())
}

// handleReset returns everything to idle.
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.controller.Reset()
	s.mu.Lock()
	s.lastResult = nil
	s.mu.Unlock()
	s.PublishStatus()
	return c.JSON(s.status())
}

// handleStatusWS streams state changes; the current state is sent on
// connect so the HUD renders immediately.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.status())
	client := hub.NewClient(s.statusHub, c)
	client.Run()
}

// handleResultsWS streams analysis results as they land.
func (s *Server) handleResultsWS(c *websocket.Conn) {
	s.mu.RLock()
	res := s.lastResult
	s.mu.RUnlock()
	if res != nil {
		c.WriteJSON(res)
	}
	client := hub.NewClient(s.resultHub, c)
	client.Run()
}

// handleAudioWS streams alert audio clips as binary MP3 frames.
func (s *Server) handleAudioWS(c *websocket.Conn) {
	client := hub.NewClient(s.audioHub, c)
	client.Run()
}
