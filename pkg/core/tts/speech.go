package tts

import (
	"context"
	"sync"

	"github.com/nagrik-ai/nagrik/pkg/core/audio"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

// Synthesizer produces spoken audio for a piece of text. Implementations
// return raw 16-bit little-endian mono PCM at the playback sample rate.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string, voice types.VoiceProfile) ([]byte, error)
}

// Clip is one playing piece of audio. Stop cuts it short; a stopped clip
// never fires its end callback.
type Clip interface {
	Stop()
}

// Player schedules a decoded buffer for playback. The rate scales the
// playback speed, 1.0 meaning natural speed. onEnded fires once when the
// clip drains on its own.
type Player interface {
	Play(buf *audio.FloatBuffer, rate float64, onEnded func()) (Clip, error)
}

// SpeakOptions carry per-utterance settings. Zero values fall back to the
// default voice and natural speed.
type SpeakOptions struct {
	Voice   types.VoiceProfile
	Rate    float64
	OnStart func()
	OnEnded func()
}

// Service reads text aloud. At most one clip plays at a time; starting a
// new utterance stops the previous one first.
type Service struct {
	synth  Synthesizer
	player Player

	mu      sync.Mutex
	current Clip
}

func NewService(synth Synthesizer, player Player) *Service {
	return &Service{synth: synth, player: player}
}

// Speak cleans the text, synthesizes it, and schedules playback. OnEnded is
// guaranteed to fire exactly once for every call, including when the text
// cleans down to nothing or synthesis fails, so callers can always use it
// to release a "speaking" indicator.
func (s *Service) Speak(ctx context.Context, text string, opts SpeakOptions) error {
	s.Stop()

	voice := opts.Voice
	if !voice.Valid() {
		voice = types.DefaultVoice
	}
	rate := opts.Rate
	if rate <= 0 {
		rate = 1.0
	}
	ended := func() {
		if opts.OnEnded != nil {
			opts.OnEnded()
		}
	}

	spoken := CleanTextForSpeech(text)
	if spoken == "" {
		ended()
		return nil
	}

	pcm, err := s.synth.SynthesizeSpeech(ctx, spoken, voice)
	if err != nil {
		ended()
		return err
	}
	if len(pcm) == 0 {
		ended()
		return nil
	}

	buf := audio.Int16BytesToFloatBuffer(pcm, audio.PlaybackSampleRate, 1)
	clip, err := s.player.Play(buf, rate, func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		ended()
	})
	if err != nil {
		ended()
		return err
	}

	s.mu.Lock()
	s.current = clip
	s.mu.Unlock()

	if opts.OnStart != nil {
		opts.OnStart()
	}
	return nil
}

// Stop cancels the clip currently playing, if any.
func (s *Service) Stop() {
	s.mu.Lock()
	clip := s.current
	s.current = nil
	s.mu.Unlock()
	if clip != nil {
		clip.Stop()
	}
}
