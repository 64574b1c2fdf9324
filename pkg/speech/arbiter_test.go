package speech

import (
	"errors"
	"testing"

	"github.com/roadwatch/roadwatch/pkg/analysis"
)

func result(level analysis.SafetyLevel, rec string) *analysis.Result {
	return &analysis.Result{
		Signs:          []analysis.RoadSign{},
		Hazards:        []analysis.Hazard{},
		SafetyLevel:    level,
		Recommendation: rec,
	}
}

func TestArbiterDisabledByDefault(t *testing.T) {
	mock := NewMockSpeaker()
	arb := NewArbiter(mock)

	arb.Announce(result(analysis.SafetyDanger, "Brake now"), false)

	if len(mock.Spoken()) != 0 {
		t.Error("disabled arbiter spoke")
	}
}

func TestArbiterPriorities(t *testing.T) {
	tests := []struct {
		name     string
		level    analysis.SafetyLevel
		autoScan bool
		want     Priority
		spoken   bool
	}{
		{"danger interrupts", analysis.SafetyDanger, false, PriorityInterrupt, true},
		{"danger interrupts during auto-scan", analysis.SafetyDanger, true, PriorityInterrupt, true},
		{"caution queues", analysis.SafetyCaution, false, PriorityNormal, true},
		{"caution queues during auto-scan", analysis.SafetyCaution, true, PriorityNormal, true},
		{"safe speaks on manual scan", analysis.SafetySafe, false, PriorityNormal, true},
		{"safe stays quiet during auto-scan", analysis.SafetySafe, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockSpeaker()
			arb := NewArbiter(mock)
			arb.SetEnabled(true)

			arb.Announce(result(tt.level, "Watch the road"), tt.autoScan)

			spoken := mock.Spoken()
			if !tt.spoken {
				if len(spoken) != 0 {
					t.Fatalf("unexpected utterance %+v", spoken)
				}
				return
			}
			if len(spoken) != 1 {
				t.Fatalf("got %d utterances, want 1", len(spoken))
			}
			if spoken[0].Priority != tt.want {
				t.Errorf("priority: got %s, want %s", spoken[0].Priority, tt.want)
			}
			if spoken[0].Text != "Watch the road" {
				t.Errorf("text: got %q", spoken[0].Text)
			}
		})
	}
}

func TestArbiterSpeaksDefaultPhrase(t *testing.T) {
	mock := NewMockSpeaker()
	arb := NewArbiter(mock)
	arb.SetEnabled(true)

	arb.Announce(result(analysis.SafetyDanger, ""), false)

	spoken := mock.Spoken()
	if len(spoken) != 1 || spoken[0].Text != "Danger ahead." {
		t.Errorf("got %+v, want the danger phrase", spoken)
	}
}

func TestArbiterDisableCancelsPlayback(t *testing.T) {
	mock := NewMockSpeaker()
	arb := NewArbiter(mock)

	arb.SetEnabled(true)
	arb.SetEnabled(false)
	arb.SetEnabled(false) // no toggle, no extra cancel

	if got := mock.CancelCalls(); got != 1 {
		t.Errorf("Cancel called %d times, want 1", got)
	}
}

func TestArbiterToleratesSpeakerFailure(t *testing.T) {
	mock := NewMockSpeaker()
	mock.SpeakFunc = func(string, Priority) error { return errors.New("audio device busy") }
	arb := NewArbiter(mock)
	arb.SetEnabled(true)

	// Must not panic or propagate; narration is best-effort.
	arb.Announce(result(analysis.SafetyCaution, "Slow down"), false)
}

func TestArbiterIgnoresNilResult(t *testing.T) {
	mock := NewMockSpeaker()
	arb := NewArbiter(mock)
	arb.SetEnabled(true)

	arb.Announce(nil, false)

	if len(mock.Spoken()) != 0 {
		t.Error("nil result produced an utterance")
	}
}
