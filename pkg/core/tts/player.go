package tts

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nagrik-ai/nagrik/pkg/core/audio"
	"github.com/nagrik-ai/nagrik/pkg/core/device"
)

// DevicePlayer plays clips through the system speaker. The underlying
// playback context is opened lazily on first use and then shared across
// utterances, which avoids the cold-start latency of reopening the device
// for every reply.
type DevicePlayer struct {
	mu sync.Mutex
	pb *device.Playback
}

func NewDevicePlayer() *DevicePlayer {
	return &DevicePlayer{}
}

func (p *DevicePlayer) playback() (*device.Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pb == nil {
		pb, err := device.NewPlayback(audio.PlaybackConfig())
		if err != nil {
			return nil, err
		}
		p.pb = pb
	}
	return p.pb, nil
}

// Play schedules the buffer and watches for it to drain. Stopping the
// returned clip flushes whatever is still queued.
func (p *DevicePlayer) Play(buf *audio.FloatBuffer, rate float64, onEnded func()) (Clip, error) {
	pb, err := p.playback()
	if err != nil {
		return nil, err
	}

	out := buf
	if rate != 1.0 {
		out = resampleForRate(buf, rate)
	}

	clip := &deviceClip{pb: pb, cancel: make(chan struct{})}
	pb.WriteBuffer(out)

	dur := time.Duration(out.FrameCount()) * time.Second / time.Duration(out.SampleRate)
	go func() {
		select {
		case <-time.After(dur):
			if !clip.stopped.Swap(true) {
				onEnded()
			}
		case <-clip.cancel:
		}
	}()
	return clip, nil
}

// Close releases the shared playback context.
func (p *DevicePlayer) Close() {
	p.mu.Lock()
	pb := p.pb
	p.pb = nil
	p.mu.Unlock()
	if pb != nil {
		pb.Close()
	}
}

type deviceClip struct {
	pb      *device.Playback
	stopped atomic.Bool
	cancel  chan struct{}
}

func (c *deviceClip) Stop() {
	if c.stopped.Swap(true) {
		return
	}
	close(c.cancel)
	c.pb.Flush()
}

// resampleForRate speeds a mono buffer up or down by linear interpolation,
// matching the pitch-shifting behavior of a playback rate control.
func resampleForRate(buf *audio.FloatBuffer, rate float64) *audio.FloatBuffer {
	src := buf.Data[0]
	if len(src) == 0 || rate <= 0 {
		return buf
	}
	outLen := int(float64(len(src)) / rate)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	step := float64(len(src)-1) / float64(outLen)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = src[j]*(1-frac) + src[j+1]*frac
	}
	return &audio.FloatBuffer{
		SampleRate: buf.SampleRate,
		Channels:   1,
		Data:       [][]float32{out},
	}
}
