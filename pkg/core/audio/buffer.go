package audio

import "sync"

// Buffer accumulates PCM audio chunks with a configurable maximum size.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	maxBytes int
	config   Config
}

// NewBuffer creates a buffer that holds up to maxDurationMs of audio.
func NewBuffer(config Config, maxDurationMs int) *Buffer {
	maxBytes := config.BytesForDurationMs(maxDurationMs)
	return &Buffer{
		data:     make([]byte, 0, maxBytes),
		maxBytes: maxBytes,
		config:   config,
	}
}

// Write appends audio data to the buffer.
// If the buffer would exceed maxBytes, older data is discarded.
func (b *Buffer) Write(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, data...)

	if len(b.data) > b.maxBytes {
		excess := len(b.data) - b.maxBytes
		b.data = b.data[excess:]
	}
}

// Read returns a copy of all buffered audio data.
func (b *Buffer) Read() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]byte, len(b.data))
	copy(result, b.data)
	return result
}

// Len returns the current buffer size in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// DurationMs returns the current buffer duration in milliseconds.
func (b *Buffer) DurationMs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config.DurationMs(len(b.data))
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
}

// RMSEnergy calculates the RMS energy of the buffered audio.
func (b *Buffer) RMSEnergy() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return CalculateRMSEnergy(b.data)
}
