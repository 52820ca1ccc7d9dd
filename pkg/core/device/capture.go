package device

import (
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/audio"
)

// Capture owns exclusive microphone access and the processing pipeline that
// delivers fixed-size frames of normalized float audio to a callback.
type Capture struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu     sync.Mutex
	closed bool
}

// OpenCapture requests the default capture device (mono, 16 kHz, S16) and
// starts delivering CaptureFrameSamples-sized frames to onFrame at the
// device's natural cadence. Failure to acquire the device — no hardware,
// or access refused by the OS — returns a PermissionDenied error.
func OpenCapture(cfg audio.Config, onFrame func([]float32)) (*Capture, error) {
	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	malgoCtx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, core.NewPermissionDeniedError("audio backend unavailable", err)
	}

	assembler := newFrameAssembler(CaptureFrameSamples, onFrame)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			assembler.Push(pInputSamples)
		},
	}

	dev, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		malgoCtx.Uninit()
		return nil, core.NewPermissionDeniedError("microphone access denied", err)
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		malgoCtx.Uninit()
		return nil, core.NewPermissionDeniedError("microphone start failed", err)
	}

	return &Capture{ctx: malgoCtx, device: dev}, nil
}

// Close stops the device and releases the audio graph. Safe to call more
// than once; the microphone must never stay hot past this call.
func (c *Capture) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true

	if c.device != nil {
		c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		c.ctx.Uninit()
		c.ctx = nil
	}
}
