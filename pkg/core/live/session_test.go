package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/audio"
)

type fakeChannel struct {
	mu     sync.Mutex
	sent   []string
	mimes  []string
	msgs   chan ServerMessage
	err    error
	closed bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{msgs: make(chan ServerMessage, 16)}
}

func (c *fakeChannel) Send(dataB64, mimeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	c.sent = append(c.sent, dataB64)
	c.mimes = append(c.mimes, mimeType)
	return nil
}

func (c *fakeChannel) Messages() <-chan ServerMessage { return c.msgs }
func (c *fakeChannel) Err() error                     { return c.err }

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.msgs)
	}
	return nil
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeGateway struct {
	channel *fakeChannel
	calls   int
}

func (g *fakeGateway) OpenLiveSession(_ context.Context, _ SessionConfig) (Channel, error) {
	g.calls++
	return g.channel, nil
}

type fakeCapture struct {
	mu     sync.Mutex
	closed int
}

func (c *fakeCapture) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

type fakePlayback struct {
	mu      sync.Mutex
	buffers []*audio.FloatBuffer
	flushes int
	closed  int
}

func (p *fakePlayback) WriteBuffer(b *audio.FloatBuffer) {
	p.mu.Lock()
	p.buffers = append(p.buffers, b)
	p.mu.Unlock()
}

func (p *fakePlayback) Flush() {
	p.mu.Lock()
	p.flushes++
	p.mu.Unlock()
}

func (p *fakePlayback) Close() {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
}

type fakeMedia struct {
	capture    *fakeCapture
	playback   *fakePlayback
	captureErr error
	onFrame    func([]float32)
}

func (m *fakeMedia) OpenCapture(_ audio.Config, onFrame func([]float32)) (CaptureHandle, error) {
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	m.onFrame = onFrame
	return m.capture, nil
}

func (m *fakeMedia) NewPlayback(_ audio.Config) (PlaybackHandle, error) {
	return m.playback, nil
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{capture: &fakeCapture{}, playback: &fakePlayback{}}
}

func connectForTest(t *testing.T, media *fakeMedia, gw *fakeGateway, cb Callbacks) *Session {
	t.Helper()
	s, err := Connect(context.Background(), DefaultSessionConfig(), gw, media, cb)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestConnectPermissionDenied(t *testing.T) {
	media := newFakeMedia()
	media.captureErr = core.NewPermissionDeniedError("microphone access denied", nil)
	gw := &fakeGateway{channel: newFakeChannel()}

	_, err := Connect(context.Background(), DefaultSessionConfig(), gw, media, Callbacks{})
	if err == nil {
		t.Fatal("expected error")
	}
	if core.KindOf(err) != core.ErrPermissionDenied {
		t.Errorf("expected permission_denied, got %s", core.KindOf(err))
	}
	if gw.calls != 0 {
		t.Error("gateway must not be contacted when capture is denied")
	}
	if media.playback.closed != 0 && len(media.playback.buffers) != 0 {
		t.Error("no playback context should have been touched")
	}
}

func TestConnectRejectsInvalidVoice(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.Voice = "NotAVoice"
	_, err := Connect(context.Background(), cfg, &fakeGateway{channel: newFakeChannel()}, newFakeMedia(), Callbacks{})
	if err == nil {
		t.Fatal("expected error for invalid voice profile")
	}
}

func TestFramesStreamOnlyAfterSetup(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	gw := &fakeGateway{channel: ch}
	s := connectForTest(t, media, gw, Callbacks{})

	frame := make([]float32, 4)
	frame[0] = 0.5

	// Before setup-complete the session is still connecting; frames drop.
	media.onFrame(frame)
	if got := ch.sentCount(); got != 0 {
		t.Fatalf("expected 0 frames sent before open, got %d", got)
	}

	ch.msgs <- ServerMessage{SetupComplete: true}
	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateOpen {
		if time.Now().After(deadline) {
			t.Fatal("session never opened")
		}
		time.Sleep(time.Millisecond)
	}

	media.onFrame(frame)
	if got := ch.sentCount(); got != 1 {
		t.Fatalf("expected 1 frame sent, got %d", got)
	}
	if ch.mimes[0] != "audio/pcm;rate=16000" {
		t.Errorf("expected capture-rate mime type, got %q", ch.mimes[0])
	}
	pcm, err := audio.DecodeTextToBytes(ch.sent[0])
	if err != nil {
		t.Fatalf("sent frame is not valid base64: %v", err)
	}
	if len(pcm) != len(frame)*2 {
		t.Errorf("expected %d PCM bytes, got %d", len(frame)*2, len(pcm))
	}
}

func TestLevelMetersTrackRecentAudio(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	ready := make(chan *audio.FloatBuffer, 1)
	s := connectForTest(t, media, &fakeGateway{channel: ch}, Callbacks{
		OnAudioReady: func(b *audio.FloatBuffer) { ready <- b },
	})

	if got := s.InputLevel(); got != 0 {
		t.Errorf("expected zero input level before audio, got %f", got)
	}
	if got := s.OutputLevel(); got != 0 {
		t.Errorf("expected zero output level before audio, got %f", got)
	}

	ch.msgs <- ServerMessage{SetupComplete: true}
	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateOpen {
		if time.Now().After(deadline) {
			t.Fatal("session never opened")
		}
		time.Sleep(time.Millisecond)
	}

	frame := make([]float32, 4)
	for i := range frame {
		frame[i] = 0.5
	}
	media.onFrame(frame)
	if got := s.InputLevel(); got <= 0 {
		t.Errorf("expected positive input level after capture frame, got %f", got)
	}

	pcm := audio.SamplesToInt16Bytes([]float32{0.5, -0.5, 0.5, -0.5})
	ch.msgs <- ServerMessage{InlineAudioB64: audio.EncodeBytesToText(pcm)}
	waitBuffer(t, ready)
	if got := s.OutputLevel(); got <= 0 {
		t.Errorf("expected positive output level after inbound audio, got %f", got)
	}

	// Barge-in discards queued playback, so the output meter resets too.
	ch.msgs <- ServerMessage{Interrupted: true}
	deadline = time.Now().Add(2 * time.Second)
	for s.OutputLevel() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("output level never reset after interruption")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitBuffer(t *testing.T, ch <-chan *audio.FloatBuffer) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audio buffer")
	}
}

func TestInterruptedFlushesPlayback(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	interrupted := make(chan struct{}, 1)
	connectForTest(t, media, &fakeGateway{channel: ch}, Callbacks{
		OnInterrupted: func() { interrupted <- struct{}{} },
	})

	ch.msgs <- ServerMessage{Interrupted: true}
	waitSignal(t, interrupted, "OnInterrupted")

	media.playback.mu.Lock()
	flushes := media.playback.flushes
	media.playback.mu.Unlock()
	if flushes != 1 {
		t.Errorf("expected 1 playback flush, got %d", flushes)
	}
}

func TestInboundAudioIsDecodedAndScheduled(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	ready := make(chan *audio.FloatBuffer, 1)
	connectForTest(t, media, &fakeGateway{channel: ch}, Callbacks{
		OnAudioReady: func(b *audio.FloatBuffer) { ready <- b },
	})

	pcm := audio.SamplesToInt16Bytes([]float32{0.25, -0.25, 0.5, -0.5})
	ch.msgs <- ServerMessage{InlineAudioB64: audio.EncodeBytesToText(pcm)}

	select {
	case buf := <-ready:
		if buf.SampleRate != audio.PlaybackSampleRate {
			t.Errorf("expected 24kHz buffer, got %d", buf.SampleRate)
		}
		if buf.FrameCount() != 4 {
			t.Errorf("expected 4 frames, got %d", buf.FrameCount())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnAudioReady")
	}

	media.playback.mu.Lock()
	scheduled := len(media.playback.buffers)
	media.playback.mu.Unlock()
	if scheduled != 1 {
		t.Errorf("expected 1 buffer scheduled, got %d", scheduled)
	}
}

func TestTranscriptCallbacks(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	input := make(chan string, 1)
	output := make(chan string, 1)
	connectForTest(t, media, &fakeGateway{channel: ch}, Callbacks{
		OnInputTranscript:  func(text string) { input <- text },
		OnOutputTranscript: func(text string) { output <- text },
	})

	ch.msgs <- ServerMessage{InputTranscript: "mujhe madad chahiye"}
	ch.msgs <- ServerMessage{OutputTranscript: "Of course, tell me more."}

	select {
	case got := <-input:
		if got != "mujhe madad chahiye" {
			t.Errorf("unexpected input transcript %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for input transcript")
	}
	select {
	case got := <-output:
		if got != "Of course, tell me more." {
			t.Errorf("unexpected output transcript %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for output transcript")
	}
}

func TestRemoteClosureReleasesResources(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	ch.err = errors.New("connection reset")
	closed := make(chan error, 1)
	s := connectForTest(t, media, &fakeGateway{channel: ch}, Callbacks{
		OnClose: func(err error) { closed <- err },
	})

	ch.Close()

	select {
	case err := <-closed:
		if core.KindOf(err) != core.ErrRemoteUnavailable {
			t.Errorf("expected remote_unavailable, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnClose")
	}

	if s.State() != StateClosed {
		t.Errorf("expected CLOSED, got %s", s.State())
	}
	media.capture.mu.Lock()
	capClosed := media.capture.closed
	media.capture.mu.Unlock()
	if capClosed != 1 {
		t.Errorf("expected capture closed once, got %d", capClosed)
	}
	media.playback.mu.Lock()
	pbClosed := media.playback.closed
	media.playback.mu.Unlock()
	if pbClosed != 1 {
		t.Errorf("expected playback closed once, got %d", pbClosed)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	var closeCount int
	var mu sync.Mutex
	s := connectForTest(t, media, &fakeGateway{channel: ch}, Callbacks{
		OnClose: func(error) {
			mu.Lock()
			closeCount++
			mu.Unlock()
		},
	})

	s.Close()
	s.Close()
	s.Close()

	// The receive loop may still observe the channel closing; give it a beat.
	<-s.Done()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if closeCount != 1 {
		t.Errorf("expected OnClose exactly once, got %d", closeCount)
	}
	media.capture.mu.Lock()
	defer media.capture.mu.Unlock()
	if media.capture.closed != 1 {
		t.Errorf("expected capture closed once, got %d", media.capture.closed)
	}
}

func TestIdleTimeoutForcesClose(t *testing.T) {
	media := newFakeMedia()
	ch := newFakeChannel()
	closed := make(chan error, 1)
	cfg := DefaultSessionConfig()
	cfg.IdleTimeout = 30 * time.Millisecond

	s, err := Connect(context.Background(), cfg, &fakeGateway{channel: ch}, media, Callbacks{
		OnClose: func(err error) { closed <- err },
	})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer s.Close()

	select {
	case err := <-closed:
		if core.KindOf(err) != core.ErrRemoteUnavailable {
			t.Errorf("expected remote_unavailable on stall, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("idle timeout never fired")
	}
}
