package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/nagrik-ai/nagrik/pkg/core/audio"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

type fakeSynth struct {
	calls []string
	pcm   []byte
	err   error
}

func (f *fakeSynth) SynthesizeSpeech(_ context.Context, text string, _ types.VoiceProfile) ([]byte, error) {
	f.calls = append(f.calls, text)
	return f.pcm, f.err
}

type fakeClip struct {
	stops int
}

func (c *fakeClip) Stop() { c.stops++ }

type fakePlayer struct {
	clips   []*fakeClip
	rates   []float64
	buffers []*audio.FloatBuffer
	onEnded func()
	err     error
}

func (p *fakePlayer) Play(buf *audio.FloatBuffer, rate float64, onEnded func()) (Clip, error) {
	if p.err != nil {
		return nil, p.err
	}
	clip := &fakeClip{}
	p.clips = append(p.clips, clip)
	p.rates = append(p.rates, rate)
	p.buffers = append(p.buffers, buf)
	p.onEnded = onEnded
	return clip, nil
}

func TestSpeakCleansBeforeSynthesis(t *testing.T) {
	synth := &fakeSynth{pcm: audio.SamplesToInt16Bytes([]float32{0.1, 0.2})}
	player := &fakePlayer{}
	svc := NewService(synth, player)

	err := svc.Speak(context.Background(), "### Sec 154\n**Bold** text", SpeakOptions{})
	if err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if len(synth.calls) != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", len(synth.calls))
	}
	if synth.calls[0] != "Sec 154 Bold text" {
		t.Errorf("expected cleaned text, got %q", synth.calls[0])
	}
	if len(player.buffers) != 1 {
		t.Fatalf("expected 1 scheduled buffer, got %d", len(player.buffers))
	}
	if player.buffers[0].SampleRate != audio.PlaybackSampleRate {
		t.Errorf("expected playback rate buffer, got %d", player.buffers[0].SampleRate)
	}
}

func TestSpeakEmptyAfterCleaningFiresOnEnded(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	svc := NewService(synth, player)

	endCount := 0
	err := svc.Speak(context.Background(), "```\nonly code\n```", SpeakOptions{
		OnEnded: func() { endCount++ },
	})
	if err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if len(synth.calls) != 0 {
		t.Error("synthesis must be skipped for empty cleaned text")
	}
	if endCount != 1 {
		t.Errorf("expected OnEnded once, got %d", endCount)
	}
}

func TestSpeakSynthesisFailureFiresOnEnded(t *testing.T) {
	synth := &fakeSynth{err: errors.New("model unavailable")}
	player := &fakePlayer{}
	svc := NewService(synth, player)

	endCount := 0
	err := svc.Speak(context.Background(), "hello", SpeakOptions{
		OnEnded: func() { endCount++ },
	})
	if err == nil {
		t.Fatal("expected synthesis error")
	}
	if endCount != 1 {
		t.Errorf("expected OnEnded once on failure, got %d", endCount)
	}
	if len(player.buffers) != 0 {
		t.Error("nothing should be scheduled on synthesis failure")
	}
}

func TestSpeakStopsPreviousClip(t *testing.T) {
	synth := &fakeSynth{pcm: audio.SamplesToInt16Bytes([]float32{0.1})}
	player := &fakePlayer{}
	svc := NewService(synth, player)

	if err := svc.Speak(context.Background(), "first", SpeakOptions{}); err != nil {
		t.Fatalf("first speak failed: %v", err)
	}
	if err := svc.Speak(context.Background(), "second", SpeakOptions{}); err != nil {
		t.Fatalf("second speak failed: %v", err)
	}

	if player.clips[0].stops != 1 {
		t.Errorf("expected first clip stopped once, got %d", player.clips[0].stops)
	}
	if player.clips[1].stops != 0 {
		t.Errorf("second clip must still be playing, got %d stops", player.clips[1].stops)
	}
}

func TestSpeakDefaultsAndRatePassthrough(t *testing.T) {
	synth := &fakeSynth{pcm: audio.SamplesToInt16Bytes([]float32{0.1})}
	player := &fakePlayer{}
	svc := NewService(synth, player)

	if err := svc.Speak(context.Background(), "hello", SpeakOptions{}); err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if player.rates[0] != 1.0 {
		t.Errorf("expected default rate 1.0, got %v", player.rates[0])
	}

	if err := svc.Speak(context.Background(), "hello", SpeakOptions{Rate: 1.5}); err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if player.rates[1] != 1.5 {
		t.Errorf("expected rate 1.5, got %v", player.rates[1])
	}
}

func TestNaturalEndClearsCurrent(t *testing.T) {
	synth := &fakeSynth{pcm: audio.SamplesToInt16Bytes([]float32{0.1})}
	player := &fakePlayer{}
	svc := NewService(synth, player)

	endCount := 0
	if err := svc.Speak(context.Background(), "hello", SpeakOptions{
		OnEnded: func() { endCount++ },
	}); err != nil {
		t.Fatalf("speak failed: %v", err)
	}

	player.onEnded()
	if endCount != 1 {
		t.Errorf("expected OnEnded once, got %d", endCount)
	}

	// The finished clip is no longer current, so Stop is a no-op on it.
	svc.Stop()
	if player.clips[0].stops != 0 {
		t.Errorf("finished clip must not be re-stopped, got %d", player.clips[0].stops)
	}
}

func TestResampleForRate(t *testing.T) {
	buf := &audio.FloatBuffer{
		SampleRate: audio.PlaybackSampleRate,
		Channels:   1,
		Data:       [][]float32{{0, 0.5, 1.0, 0.5}},
	}

	faster := resampleForRate(buf, 2.0)
	if len(faster.Data[0]) != 2 {
		t.Errorf("expected 2 samples at 2x, got %d", len(faster.Data[0]))
	}

	slower := resampleForRate(buf, 0.5)
	if len(slower.Data[0]) != 8 {
		t.Errorf("expected 8 samples at 0.5x, got %d", len(slower.Data[0]))
	}
}
