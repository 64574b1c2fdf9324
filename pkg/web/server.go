// Package web serves the browser HUD: REST endpoints for control, and
// websocket streams for status, results, and alert audio.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/roadwatch/roadwatch/pkg/analysis"
	"github.com/roadwatch/roadwatch/pkg/hub"
	"github.com/roadwatch/roadwatch/pkg/scan"
	"github.com/roadwatch/roadwatch/pkg/speech"
)

// Status is the HUD's view of the control loop.
type Status struct {
	Mode      scan.Mode `json:"mode"`
	Analyzing bool      `json:"analyzing"`
	AutoScan  bool      `json:"autoScan"`
	Voice     bool      `json:"voice"`
	Source    string    `json:"source,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Server is the HUD server. It owns the broadcast hubs and exposes the
// controller's operations over HTTP.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	controller *scan.Controller
	arbiter    *speech.Arbiter

	statusHub *hub.Hub
	resultHub *hub.Hub
	audioHub  *hub.Hub

	mu         sync.RWMutex
	lastResult *analysis.Result
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.addr = addr }
}

// WithServerLogger sets the structured logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer wires the HUD routes around the controller. The arbiter may be
// nil when narration is not configured.
func NewServer(controller *scan.Controller, arbiter *speech.Arbiter, opts ...ServerOption) *Server {
	s := &Server{
		addr:       ":8087",
		logger:     slog.Default(),
		controller: controller,
		arbiter:    arbiter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.statusHub = hub.New("status", s.logger)
	s.resultHub = hub.New("results", s.logger)
	s.audioHub = hub.New("audio", s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "RoadWatch HUD",
		DisableStartupMessage: true,
	})

	// CORS for local development.
	app.Use(cors.New())

	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/result", s.handleResult)
	api.Post("/scan", s.handleScan)
	api.Post("/live", s.handleLive)
	api.Post("/autoscan", s.handleAutoScan)
	api.Post("/voice", s.handleVoice)
	api.Post("/reset", s.handleReset)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/results", websocket.New(s.handleResultsWS))
	app.Get("/ws/audio", websocket.New(s.handleAudioWS))

	s.app = app
	return s
}

// Start runs the hubs and listens on the configured address. Blocks until
// Shutdown.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.resultHub.Run()
	go s.audioHub.Run()

	s.logger.Info("HUD listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the listener and disconnects all stream clients.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.statusHub.Stop()
	s.resultHub.Stop()
	s.audioHub.Stop()
	return err
}

// SetArbiter attaches the narration arbiter after construction, for when
// the speaker plays through this server. Call before Start.
func (s *Server) SetArbiter(a *speech.Arbiter) {
	s.arbiter = a
}

// PublishResult pushes a fresh analysis result to every connected HUD.
// Wire it to the controller's OnResult callback.
func (s *Server) PublishResult(res *analysis.Result) {
	s.mu.Lock()
	s.lastResult = res
	s.mu.Unlock()

	s.resultHub.BroadcastJSON(res)
	s.PublishStatus()
}

// PublishStatus broadcasts the current control-loop state.
func (s *Server) PublishStatus() {
	s.statusHub.BroadcastJSON(s.status())
}

// Play broadcasts a synthesized clip to HUD clients as a binary frame, so
// the browser does the audio output. Satisfies speech.Player.
func (s *Server) Play(ctx context.Context, clip *speech.Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.audioHub.BroadcastBinary(clip.MP3)
	return nil
}

func (s *Server) status() Status {
	state := s.controller.State()
	st := Status{
		Mode:      state.Mode,
		Analyzing: state.Analyzing,
		AutoScan:  state.AutoScan,
		Source:    string(s.controller.SessionKind()),
	}
	if s.arbiter != nil {
		st.Voice = s.arbiter.Enabled()
	}
	if err := s.controller.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Verify Server can stand in as an audio sink at compile time.
var _ speech.Player = (*Server)(nil)
