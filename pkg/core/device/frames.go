package device

// CaptureFrameSamples is the fixed frame size delivered to capture callbacks.
const CaptureFrameSamples = 2048

// frameAssembler converts raw S16LE device chunks into fixed-size frames of
// normalized float samples. Device callbacks arrive at the hardware period
// cadence, which rarely lines up with the frame size, so a partial tail is
// carried between pushes.
type frameAssembler struct {
	frameSize int
	pending   []float32
	onFrame   func([]float32)
}

func newFrameAssembler(frameSize int, onFrame func([]float32)) *frameAssembler {
	return &frameAssembler{
		frameSize: frameSize,
		pending:   make([]float32, 0, frameSize),
		onFrame:   onFrame,
	}
}

// Push consumes little-endian 16-bit PCM and emits complete frames.
// A trailing odd byte is dropped.
func (a *frameAssembler) Push(pcm []byte) {
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(pcm[i]) | int16(pcm[i+1])<<8
		a.pending = append(a.pending, float32(v)/32768.0)
		if len(a.pending) == a.frameSize {
			frame := make([]float32, a.frameSize)
			copy(frame, a.pending)
			a.pending = a.pending[:0]
			a.onFrame(frame)
		}
	}
}

// Pending returns the number of samples waiting for the next frame.
func (a *frameAssembler) Pending() int {
	return len(a.pending)
}
