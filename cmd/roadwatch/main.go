// RoadWatch - driver-assistance scanner. Captures frames from a camera,
// video file, or still image, sends them to a vision model, and renders
// hazards, road signs, and a safety verdict, with optional voice alerts
// and a browser HUD.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/roadwatch/roadwatch/internal/config"
	"github.com/roadwatch/roadwatch/internal/log"
	"github.com/roadwatch/roadwatch/pkg/analysis"
	"github.com/roadwatch/roadwatch/pkg/capture"
	"github.com/roadwatch/roadwatch/pkg/scan"
	"github.com/roadwatch/roadwatch/pkg/speech"
	"github.com/roadwatch/roadwatch/pkg/web"
)

type options struct {
	source string
	input  string
	auto   bool
	voice  bool
	listen string
	cfg    *config.Config
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "roadwatch: %v\n", err)
		os.Exit(1)
	}

	log.Init(opts.cfg.LogLevel)
	logger := log.With("component", "main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func parseFlags() (*options, error) {
	opts := &options{}
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.StringVar(&opts.source, "source", "camera", "Frame source: camera, video, image")
	flag.StringVar(&opts.input, "input", "", "Video or image path (required for -source video|image)")
	flag.BoolVar(&opts.auto, "auto", false, "Start with auto-scan enabled")
	voice := flag.Bool("voice", false, "Start with voice alerts enabled")
	listen := flag.String("listen", "", "HUD listen address, e.g. :8087 (empty disables the HUD)")
	interval := flag.Duration("interval", 0, "Auto-scan interval (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *interval > 0 {
		cfg.Scan.Interval = *interval
	}
	if *voice {
		cfg.Voice.Enabled = true
	}
	if *listen != "" {
		cfg.HUD.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch opts.source {
	case "camera":
	case "video", "image":
		if opts.input == "" {
			return nil, fmt.Errorf("-source %s requires -input", opts.source)
		}
	default:
		return nil, fmt.Errorf("unknown source %q", opts.source)
	}

	opts.voice = cfg.Voice.Enabled
	opts.listen = cfg.HUD.Listen
	opts.cfg = cfg
	return opts, nil
}

func run(ctx context.Context, opts *options) error {
	cfg := opts.cfg
	logger := log.With("component", "main")

	analyzer, err := analysis.NewClient(
		analysis.WithAPIKey(cfg.Analysis.APIKey),
		analysis.WithBaseURL(cfg.Analysis.BaseURL),
		analysis.WithModel(cfg.Analysis.Model),
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithLogger(log.L()),
	)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	ctrl := scan.NewController(analyzer,
		scan.WithCamera(scan.CameraOpenerFunc(func(ctx context.Context) (capture.Source, error) {
			return capture.OpenCamera(cfg.Scan.CameraDevice, cfg.Scan.JPEGQuality)
		})),
		scan.WithInterval(cfg.Scan.Interval),
		scan.WithLogger(log.L()),
	)
	defer ctrl.Reset()

	var srv *web.Server
	if opts.listen != "" {
		srv = web.NewServer(ctrl, nil, web.WithAddr(opts.listen), web.WithServerLogger(log.L()))
	}

	arbiter, speaker := buildNarration(opts, srv)
	if speaker != nil {
		defer speaker.Close()
	}
	if srv != nil && arbiter != nil {
		srv.SetArbiter(arbiter)
	}

	ctrl.OnResult = func(res *analysis.Result) {
		renderPanel(os.Stdout, res)
		if arbiter != nil {
			arbiter.Announce(res, ctrl.AutoScanEnabled())
		}
		if srv != nil {
			srv.PublishResult(res)
		}
	}
	ctrl.OnError = func(err error) {
		fmt.Fprintf(os.Stdout, "scan failed: %v\n", err)
		if srv != nil {
			srv.PublishStatus()
		}
	}

	if err := openSource(ctx, ctrl, opts); err != nil {
		return err
	}

	if opts.auto {
		if err := ctrl.EnableAutoScan(ctx); err != nil {
			return err
		}
	} else {
		// One immediate scan so the panel has something to show.
		ctrl.RequestScan(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown()
		})
	} else {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// openSource puts the controller into the mode the flags asked for.
func openSource(ctx context.Context, ctrl *scan.Controller, opts *options) error {
	switch opts.source {
	case "camera":
		return ctrl.StartLive(ctx)
	case "video":
		src, err := capture.OpenVideo(opts.input, opts.cfg.Scan.JPEGQuality)
		if err != nil {
			return err
		}
		return ctrl.LoadSource(src)
	case "image":
		src, err := capture.OpenImage(opts.input)
		if err != nil {
			return err
		}
		return ctrl.LoadSource(src)
	}
	return fmt.Errorf("unknown source %q", opts.source)
}

// buildNarration assembles the speaker and arbiter when voice is on. The
// HUD, when present, carries the audio to the browser; otherwise playback
// goes through the local audio device.
func buildNarration(opts *options, srv *web.Server) (*speech.Arbiter, speech.Speaker) {
	if !opts.voice {
		return nil, nil
	}

	var player speech.Player
	if srv != nil {
		// Clips travel to the browser over the HUD's audio stream.
		player = srv
	} else {
		player = speech.AplayPlayer{}
	}

	speaker := speech.NewEdgeSpeaker(player,
		speech.WithVoice(opts.cfg.Voice.Voice),
		speech.WithSpeakerLogger(log.L()),
	)
	arbiter := speech.NewArbiter(speaker, speech.WithArbiterLogger(log.L()))
	arbiter.SetEnabled(true)
	return arbiter, speaker
}
