package live

import (
	"github.com/nagrik-ai/nagrik/pkg/core/audio"
	"github.com/nagrik-ai/nagrik/pkg/core/device"
)

// DeviceMedia is the production Media implementation backed by the real
// microphone and speaker.
type DeviceMedia struct{}

func (DeviceMedia) OpenCapture(cfg audio.Config, onFrame func([]float32)) (CaptureHandle, error) {
	capture, err := device.OpenCapture(cfg, onFrame)
	if err != nil {
		return nil, err
	}
	return capture, nil
}

func (DeviceMedia) NewPlayback(cfg audio.Config) (PlaybackHandle, error) {
	playback, err := device.NewPlayback(cfg)
	if err != nil {
		return nil, err
	}
	return playback, nil
}
