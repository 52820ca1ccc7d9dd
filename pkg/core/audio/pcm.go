package audio

import (
	"encoding/base64"
	"math"

	"github.com/nagrik-ai/nagrik/pkg/core"
)

// Standard sample rates for the voice pipeline. Capture runs at 16 kHz and
// model playback arrives at 24 kHz, both mono 16-bit.
const (
	CaptureSampleRate  = 16000
	PlaybackSampleRate = 24000
	BytesPerSample     = 2
)

// EncodeBytesToText maps arbitrary bytes to a transport-safe base64 string.
func EncodeBytesToText(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeTextToBytes is the inverse of EncodeBytesToText.
func DecodeTextToBytes(text string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, core.NewDecodeError("malformed base64 payload", err)
	}
	return b, nil
}

// SamplesToInt16Bytes converts normalized float samples to signed 16-bit
// little-endian PCM. Each sample is clamped to [-1, 1]; negative values scale
// by 32768 and non-negative by 32767, rounded to the nearest step so the
// error stays under one quantization step.
func SamplesToInt16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		if s < -1 {
			s = -1
		} else if s > 1 {
			s = 1
		}
		var v int16
		if s < 0 {
			v = int16(math.Round(float64(s) * 0x8000))
		} else {
			v = int16(math.Round(float64(s) * 0x7FFF))
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// FloatBuffer is decoded multi-channel audio ready for playback scheduling.
type FloatBuffer struct {
	SampleRate int
	Channels   int
	Data       [][]float32 // one sequence per channel
}

// FrameCount returns the number of sample frames per channel.
func (b *FloatBuffer) FrameCount() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// DurationMs returns the playback duration in milliseconds.
func (b *FloatBuffer) DurationMs() int {
	if b.SampleRate == 0 {
		return 0
	}
	return b.FrameCount() * 1000 / b.SampleRate
}

// Int16BytesToFloatBuffer de-interleaves little-endian 16-bit PCM into one
// float sequence per channel, each value divided by 32768. A trailing partial
// frame is truncated; chunk boundaries in streaming data make those expected.
func Int16BytesToFloatBuffer(b []byte, sampleRate, channels int) *FloatBuffer {
	if channels < 1 {
		channels = 1
	}
	frameBytes := BytesPerSample * channels
	frames := len(b) / frameBytes

	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*BytesPerSample
			v := int16(b[off]) | int16(b[off+1])<<8
			data[c][i] = float32(v) / 32768.0
		}
	}
	return &FloatBuffer{SampleRate: sampleRate, Channels: channels, Data: data}
}

// CalculateRMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM. Returns a value between 0.0 and 1.0.
func CalculateRMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// CalculatePeakAmplitude returns the maximum absolute amplitude in the PCM
// data, between 0.0 and 1.0.
func CalculatePeakAmplitude(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	var maxAbs float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		// float64 avoids overflow when negating -32768
		abs := math.Abs(float64(sample))
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	return maxAbs / 32768.0
}
