package device

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/audio"
)

// PlayFrame converts inbound 16-bit PCM into a playable float buffer. It does
// not schedule playback; interruption handling stays with the caller.
func PlayFrame(int16Bytes []byte, sampleRate, channels int) (*audio.FloatBuffer, error) {
	if len(int16Bytes) < audio.BytesPerSample {
		return nil, core.NewDecodeError("empty audio frame", nil)
	}
	return audio.Int16BytesToFloatBuffer(int16Bytes, sampleRate, channels), nil
}

// Playback owns one speaker output context. Audio written to it is queued and
// pulled by the audio backend; Flush discards the queue for barge-in.
type Playback struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	player  *oto.Player
	buf     []byte
	playing bool
	closed  bool
}

// NewPlayback initializes a speaker context for the given format.
func NewPlayback(cfg audio.Config) (*Playback, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		// ~100ms keeps latency low without starving the device.
		BufferSize: 100 * time.Millisecond,
	}
	otoCtx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, core.NewGenericError("speaker unavailable", err)
	}
	<-ready

	p := &Playback{
		otoCtx: otoCtx,
		buf:    make([]byte, 0, cfg.BytesPerSecond()*2),
	}
	return p, nil
}

// Write queues raw S16LE audio for playback, starting the player on first data.
func (p *Playback) Write(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.buf = append(p.buf, data...)

	if !p.playing {
		p.playing = true
		p.player = p.otoCtx.NewPlayer(p)
		p.player.Play()
	}
}

// WriteBuffer interleaves a decoded float buffer back to S16LE and queues it.
func (p *Playback) WriteBuffer(buf *audio.FloatBuffer) {
	frames := buf.FrameCount()
	if frames == 0 {
		return
	}
	interleaved := make([]float32, 0, frames*buf.Channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < buf.Channels; c++ {
			interleaved = append(interleaved, buf.Data[c][i])
		}
	}
	p.Write(audio.SamplesToInt16Bytes(interleaved))
}

// Read implements io.Reader for the backend player, which pulls audio data.
// An empty queue yields silence so the pull never blocks the backend.
func (p *Playback) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) == 0 {
		for i := range b {
			b[i] = 0
		}
		return len(b), nil
	}

	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// QueuedMs returns the duration of audio waiting to be played.
func (p *Playback) QueuedMs(cfg audio.Config) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cfg.DurationMs(len(p.buf))
}

// Flush discards all queued audio and stops the current player so the next
// write starts fresh. Used when the user's speech preempts the assistant.
func (p *Playback) Flush() {
	p.mu.Lock()
	p.buf = p.buf[:0]

	if p.player != nil && p.playing {
		p.playing = false
		player := p.player
		p.player = nil
		p.mu.Unlock()

		player.Pause()
		player.Close()
		return
	}
	p.mu.Unlock()
}

// Close stops playback and releases the player. Idempotent.
func (p *Playback) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	player := p.player
	p.player = nil
	p.mu.Unlock()

	if player != nil {
		player.Close()
	}
}
