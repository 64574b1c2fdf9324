package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Clip is one synthesized utterance, carrying both the compressed audio
// and the decoded PCM so players can pick whichever form they need.
type Clip struct {
	// Text is the utterance the clip was synthesized from.
	Text string

	// MP3 is the encoded audio as produced by the synthesizer.
	MP3 []byte

	// PCM is the decoded 16-bit little-endian stereo audio.
	PCM []byte

	// SampleRate is the PCM sample rate in Hz.
	SampleRate int

	// Duration is the playback length of the clip.
	Duration time.Duration
}

// Player delivers a clip to an audio sink. Play blocks for the playback
// duration and honors ctx cancellation for interrupts.
type Player interface {
	Play(ctx context.Context, clip *Clip) error
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, clip *Clip) error

// Play calls the wrapped function.
func (f PlayerFunc) Play(ctx context.Context, clip *Clip) error {
	return f(ctx, clip)
}

// AplayPlayer pipes decoded PCM to the system aplay binary. It is the
// default local audio route on Linux hosts.
type AplayPlayer struct{}

// Play feeds the clip's PCM to aplay and blocks until playback finishes
// or ctx is cancelled.
func (AplayPlayer) Play(ctx context.Context, clip *Clip) error {
	if len(clip.PCM) == 0 || clip.SampleRate <= 0 {
		return fmt.Errorf("speech: clip has no playable audio")
	}
	cmd := exec.CommandContext(ctx, "aplay",
		"-q",
		"-f", "S16_LE",
		"-c", "2",
		"-r", strconv.Itoa(clip.SampleRate),
	)
	cmd.Stdin = bytes.NewReader(clip.PCM)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("aplay: %w", err)
	}
	return nil
}

// DirPlayer writes each clip to a timestamped MP3 file under Dir. It is
// the headless fallback when no audio route exists.
type DirPlayer struct {
	Dir string
}

// Play writes the clip's MP3 bytes to a new file in the player directory.
func (p *DirPlayer) Play(ctx context.Context, clip *Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}
	name := filepath.Join(p.Dir, fmt.Sprintf("alert_%d.mp3", time.Now().UnixNano()))
	if err := os.WriteFile(name, clip.MP3, 0o644); err != nil {
		return fmt.Errorf("write clip: %w", err)
	}
	return nil
}

var (
	_ Player = AplayPlayer{}
	_ Player = (*DirPlayer)(nil)
)
