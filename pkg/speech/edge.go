package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/wujunwei928/edge-tts-go/edge_tts"
)

// DefaultVoice is the narration voice when none is configured.
const DefaultVoice = "en-US-AriaNeural"

// queueDepth bounds how many utterances may wait behind the current one.
const queueDepth = 8

// Synthesizer produces a playable clip for one utterance.
type Synthesizer func(ctx context.Context, text, voice string) (*Clip, error)

// EdgeSpeaker synthesizes utterances with the Edge TTS service and plays
// them through a Player, one at a time in queue order. An interrupt cancels
// the current clip and flushes the queue.
type EdgeSpeaker struct {
	voice  string
	synth  Synthesizer
	player Player
	logger *slog.Logger

	done chan struct{}

	// The worker dequeues from pending and registers its cancel func under
	// mu in a single critical section, so an interrupt always sees each
	// utterance either still queued or with a live cancel, never in between.
	mu      sync.Mutex
	cond    *sync.Cond
	pending []string
	cancel  context.CancelFunc
	closed  bool
}

// EdgeOption configures an EdgeSpeaker.
type EdgeOption func(*EdgeSpeaker)

// WithVoice sets the narration voice name.
func WithVoice(voice string) EdgeOption {
	return func(s *EdgeSpeaker) { s.voice = voice }
}

// WithSynthesizer replaces the Edge TTS backend (tests inject a fake).
func WithSynthesizer(synth Synthesizer) EdgeOption {
	return func(s *EdgeSpeaker) { s.synth = synth }
}

// WithSpeakerLogger sets the structured logger.
func WithSpeakerLogger(l *slog.Logger) EdgeOption {
	return func(s *EdgeSpeaker) { s.logger = l }
}

// NewEdgeSpeaker creates a speaker that plays through the given player.
func NewEdgeSpeaker(player Player, opts ...EdgeOption) *EdgeSpeaker {
	s := &EdgeSpeaker{
		voice:  DefaultVoice,
		synth:  edgeSynth,
		player: player,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cond = sync.NewCond(&s.mu)
	s.logger = s.logger.With("component", "speech.edge")
	go s.run()
	return s
}

// Speak enqueues text for playback. PriorityInterrupt cuts off the current
// utterance and flushes everything queued behind it first.
func (s *EdgeSpeaker) Speak(text string, p Priority) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if p == PriorityInterrupt {
		s.interruptLocked()
	}

	if len(s.pending) >= queueDepth {
		return ErrQueueFull
	}
	s.pending = append(s.pending, text)
	s.cond.Signal()
	return nil
}

// Cancel stops the current utterance and discards the queue.
func (s *EdgeSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.interruptLocked()
}

// Close cancels playback, stops the worker, and releases the speaker.
// Speak returns ErrClosed afterwards.
func (s *EdgeSpeaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.interruptLocked()
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done
	return nil
}

// interruptLocked cancels the in-flight clip and flushes queued utterances.
// Caller holds s.mu.
func (s *EdgeSpeaker) interruptLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.pending = nil
}

// run is the playback worker: one utterance at a time, in order.
func (s *EdgeSpeaker) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		text := s.pending[0]
		s.pending = s.pending[1:]
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.mu.Unlock()

		s.speakOne(ctx, text)

		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}
}

func (s *EdgeSpeaker) speakOne(ctx context.Context, text string) {
	clip, err := s.synth(ctx, text, s.voice)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("synthesis failed", "error", err)
		}
		return
	}
	if ctx.Err() != nil {
		// Interrupted while synthesizing; the clip is stale.
		return
	}

	s.logger.Debug("playing clip", "duration", clip.Duration, "bytes", len(clip.MP3))
	if err := s.player.Play(ctx, clip); err != nil && ctx.Err() == nil {
		s.logger.Warn("playback failed", "error", err)
	}
}

// edgeSynth is the production synthesizer backed by the Edge TTS service.
func edgeSynth(ctx context.Context, text, voice string) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("edge tts connect: %w", err)
	}
	audio, err := conn.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge tts stream: %w", err)
	}
	return decodeClip(text, audio)
}

// Say synthesizes text and plays it synchronously, bypassing the queue.
// One-shot commands use this instead of a long-lived speaker.
func Say(ctx context.Context, text, voice string, player Player) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	if voice == "" {
		voice = DefaultVoice
	}
	clip, err := edgeSynth(ctx, text, voice)
	if err != nil {
		return err
	}
	return player.Play(ctx, clip)
}

// decodeClip decodes the synthesizer's MP3 into PCM and computes the
// playback duration. Decoded audio is 16-bit little-endian stereo.
func decodeClip(text string, mp3Data []byte) (*Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(mp3Data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}

	rate := dec.SampleRate()
	// 4 bytes per stereo sample pair.
	samples := len(pcm) / 4
	var duration time.Duration
	if rate > 0 {
		duration = time.Duration(samples) * time.Second / time.Duration(rate)
	}

	return &Clip{
		Text:       text,
		MP3:        mp3Data,
		PCM:        pcm,
		SampleRate: rate,
		Duration:   duration,
	}, nil
}

// Verify EdgeSpeaker implements Speaker at compile time.
var _ Speaker = (*EdgeSpeaker)(nil)
