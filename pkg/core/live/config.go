package live

import (
	"context"
	"time"

	"github.com/nagrik-ai/nagrik/pkg/core/audio"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

// State represents the lifecycle of a live voice session.
type State int

const (
	// StateIdle is before Connect is called.
	StateIdle State = iota
	// StateConnecting is while the capture device and remote channel are
	// being acquired.
	StateConnecting
	// StateOpen is when the duplex channel is established and audio is
	// streaming both ways.
	StateOpen
	// StateClosed is terminal.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SessionConfig holds configuration for one live session.
type SessionConfig struct {
	// Voice is the synthetic voice identity for assistant audio.
	Voice types.VoiceProfile `json:"voice"`

	// SystemInstruction steers the assistant persona.
	SystemInstruction string `json:"system_instruction,omitempty"`

	// IdleTimeout force-closes a session that receives no inbound message
	// for the given duration, reporting RemoteUnavailable.
	// Zero disables the timeout.
	IdleTimeout time.Duration `json:"idle_timeout,omitempty"`
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Voice:             types.DefaultVoice,
		SystemInstruction: "You are NagrikAi. You speak English or Hindi based on the user. You are helpful, precise, and fast.",
	}
}

// Callbacks deliver session activity to the UI layer. Nil members are
// skipped. They are invoked from the session's receive goroutine, in
// message arrival order.
type Callbacks struct {
	// OnAudioReady receives each decoded assistant audio buffer as it is
	// scheduled for playback.
	OnAudioReady func(*audio.FloatBuffer)
	// OnInterrupted fires when the user's speech preempts the assistant;
	// queued playback has already been flushed.
	OnInterrupted func()
	// OnInputTranscript receives partial transcription of the user's speech.
	OnInputTranscript func(text string)
	// OnOutputTranscript receives partial transcription of assistant audio.
	OnOutputTranscript func(text string)
	// OnClose fires exactly once when the session reaches StateClosed.
	// err is nil for a caller-requested disconnect.
	OnClose func(err error)
}

// ServerMessage is one inbound event from the remote voice capability.
type ServerMessage struct {
	// SetupComplete signals the channel is ready for realtime input.
	SetupComplete bool
	// Interrupted signals barge-in: the user's speech preempted the
	// assistant's current utterance.
	Interrupted bool
	// InputTranscript carries partial transcription of user speech.
	InputTranscript string
	// OutputTranscript carries partial transcription of assistant audio.
	OutputTranscript string
	// InlineAudioB64 is a base64 PCM chunk of assistant audio.
	InlineAudioB64 string
	// TurnComplete marks the end of an assistant utterance.
	TurnComplete bool
}

// Channel is one open duplex connection to the remote voice capability.
type Channel interface {
	// Send transmits one base64 media chunk. Best-effort: failures during
	// teardown are expected and may be ignored by callers.
	Send(dataB64, mimeType string) error

	// Messages yields inbound events in arrival order. The channel is
	// closed when the connection ends.
	Messages() <-chan ServerMessage

	// Err returns the terminal error after Messages closes, if any.
	Err() error

	// Close tears down the connection. Idempotent.
	Close() error
}

// Gateway opens duplex connections to the remote voice capability.
type Gateway interface {
	OpenLiveSession(ctx context.Context, cfg SessionConfig) (Channel, error)
}

// CaptureHandle is the microphone side of the media layer.
type CaptureHandle interface {
	Close()
}

// PlaybackHandle is the speaker side of the media layer.
type PlaybackHandle interface {
	WriteBuffer(*audio.FloatBuffer)
	Flush()
	Close()
}

// Media acquires local audio devices. The indirection exists so tests can
// substitute fakes for real hardware.
type Media interface {
	OpenCapture(cfg audio.Config, onFrame func([]float32)) (CaptureHandle, error)
	NewPlayback(cfg audio.Config) (PlaybackHandle, error)
}
