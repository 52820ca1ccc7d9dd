package live

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/audio"
)

// levelWindowMs is the rolling window used for input and output level
// metering.
const levelWindowMs = 200

// Session is one full-duplex voice conversation: microphone frames stream to
// the remote model while decoded assistant audio plays back locally. Exactly
// one session may be active per chat UI; callers must Close before
// reconnecting.
type Session struct {
	cfg       SessionConfig
	callbacks Callbacks

	channel  Channel
	capture  CaptureHandle
	playback PlaybackHandle

	inMeter  *audio.Buffer
	outMeter *audio.Buffer

	mu        sync.RWMutex
	state     State
	sessionID string

	closed atomic.Bool
	done   chan struct{}

	idleMu    sync.Mutex
	idleTimer *time.Timer

	debugEnabled bool
}

// Connect acquires the microphone, opens a duplex channel through the
// gateway, and starts streaming. The capture device is acquired first; if
// access is denied the session never opens and no audio resource remains
// held. The caller owns the returned session and must Close it.
func Connect(ctx context.Context, cfg SessionConfig, gw Gateway, media Media, cb Callbacks) (*Session, error) {
	if !cfg.Voice.Valid() {
		return nil, core.NewGenericError(fmt.Sprintf("invalid voice profile %q", cfg.Voice), nil)
	}
	if media == nil {
		media = DeviceMedia{}
	}

	s := &Session{
		cfg:       cfg,
		callbacks: cb,
		state:     StateConnecting,
		sessionID: generateSessionID(),
		done:      make(chan struct{}),
		inMeter:   audio.NewBuffer(audio.CaptureConfig(), levelWindowMs),
		outMeter:  audio.NewBuffer(audio.PlaybackConfig(), levelWindowMs),
	}

	capture, err := media.OpenCapture(audio.CaptureConfig(), s.onCaptureFrame)
	if err != nil {
		return nil, err
	}
	s.capture = capture

	playback, err := media.NewPlayback(audio.PlaybackConfig())
	if err != nil {
		capture.Close()
		return nil, err
	}
	s.playback = playback

	ch, err := gw.OpenLiveSession(ctx, cfg)
	if err != nil {
		capture.Close()
		playback.Close()
		return nil, err
	}
	s.channel = ch

	s.resetIdleTimer()
	go s.receiveLoop()

	return s, nil
}

// SessionID returns the session identifier.
func (s *Session) SessionID() string {
	return s.sessionID
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// EnableDebug turns on debug logging to stderr.
func (s *Session) EnableDebug() {
	s.debugEnabled = true
}

// InputLevel returns the RMS energy of recent microphone audio, 0.0 to 1.0.
// Intended for embedders polling a mic activity indicator; the terminal
// client does not render one.
func (s *Session) InputLevel() float64 {
	return s.inMeter.RMSEnergy()
}

// OutputLevel returns the RMS energy of recently received assistant audio,
// 0.0 to 1.0. Like InputLevel, this feeds visualizers in embedding UIs.
func (s *Session) OutputLevel() float64 {
	return s.outMeter.RMSEnergy()
}

// Close tears down the session: remote channel, capture device, and playback
// context. Safe to call any number of times; only the first has effect.
func (s *Session) Close() error {
	s.finish(nil)
	return nil
}

// onCaptureFrame runs on the audio device cadence. Frames are encoded and
// transmitted fire-and-forget; send failures during teardown are swallowed.
func (s *Session) onCaptureFrame(frame []float32) {
	if s.State() != StateOpen {
		return
	}
	pcm := audio.SamplesToInt16Bytes(frame)
	s.inMeter.Write(pcm)
	if err := s.channel.Send(audio.EncodeBytesToText(pcm), fmt.Sprintf("audio/pcm;rate=%d", audio.CaptureSampleRate)); err != nil {
		s.debug("SEND", "dropped frame: "+err.Error())
	}
}

// receiveLoop processes inbound messages in arrival order.
func (s *Session) receiveLoop() {
	for msg := range s.channel.Messages() {
		s.resetIdleTimer()
		s.handleMessage(msg)
	}

	err := s.channel.Err()
	if err != nil {
		err = core.NewRemoteUnavailableError("live session ended", err)
	}
	s.finish(err)
}

func (s *Session) handleMessage(msg ServerMessage) {
	if msg.SetupComplete {
		s.setState(StateOpen)
		s.debug("SESSION", "channel open, streaming microphone")
	}

	// Barge-in comes first so queued playback stops before anything else
	// is scheduled.
	if msg.Interrupted {
		s.debug("SESSION", "interrupted by user speech")
		s.playback.Flush()
		s.outMeter.Clear()
		if s.callbacks.OnInterrupted != nil {
			s.callbacks.OnInterrupted()
		}
	}

	if msg.InputTranscript != "" && s.callbacks.OnInputTranscript != nil {
		s.callbacks.OnInputTranscript(msg.InputTranscript)
	}
	if msg.OutputTranscript != "" && s.callbacks.OnOutputTranscript != nil {
		s.callbacks.OnOutputTranscript(msg.OutputTranscript)
	}

	if msg.InlineAudioB64 != "" {
		pcm, err := audio.DecodeTextToBytes(msg.InlineAudioB64)
		if err != nil {
			s.debug("AUDIO", "undecodable chunk: "+err.Error())
			return
		}
		s.outMeter.Write(pcm)
		s.debug("AUDIO", fmt.Sprintf("chunk peak %.2f", audio.CalculatePeakAmplitude(pcm)))
		buf := audio.Int16BytesToFloatBuffer(pcm, audio.PlaybackSampleRate, 1)
		s.playback.WriteBuffer(buf)
		if s.callbacks.OnAudioReady != nil {
			s.callbacks.OnAudioReady(buf)
		}
	}
}

// finish performs the single teardown. err is nil for caller-requested
// disconnects.
func (s *Session) finish(err error) {
	if s.closed.Swap(true) {
		return
	}

	s.idleMu.Lock()
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.idleMu.Unlock()

	s.capture.Close()
	s.playback.Close()
	s.channel.Close()

	s.setState(StateClosed)
	close(s.done)

	if s.callbacks.OnClose != nil {
		s.callbacks.OnClose(err)
	}
}

func (s *Session) resetIdleTimer() {
	if s.cfg.IdleTimeout <= 0 {
		return
	}
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.closed.Load() {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.cfg.IdleTimeout, func() {
		s.debug("SESSION", "idle timeout, force closing")
		s.finish(core.NewRemoteUnavailableError("live session stalled", nil))
	})
}

func (s *Session) setState(newState State) {
	s.mu.Lock()
	oldState := s.state
	s.state = newState
	s.mu.Unlock()

	if oldState != newState {
		s.debug("SESSION", fmt.Sprintf("state: %s -> %s", oldState, newState))
	}
}

// debug logs a debug message if debug mode is enabled.
func (s *Session) debug(category, message string) {
	if s.debugEnabled {
		timestamp := time.Now().Format("15:04:05.000")
		fmt.Fprintf(os.Stderr, "%s [%-8s] %s\n", timestamp, category, message)
	}
}

// generateSessionID creates a unique session identifier.
func generateSessionID() string {
	return fmt.Sprintf("live_%d", time.Now().UnixNano())
}
