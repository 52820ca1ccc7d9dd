package audio

// Config specifies audio format parameters.
type Config struct {
	// SampleRate in Hz. Common values: 16000, 24000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// CaptureConfig returns the microphone-side configuration.
func CaptureConfig() Config {
	return Config{SampleRate: CaptureSampleRate, Channels: 1, BitsPerSample: 16}
}

// PlaybackConfig returns the model-output-side configuration.
func PlaybackConfig() Config {
	return Config{SampleRate: PlaybackSampleRate, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the audio byte rate.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c Config) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c Config) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}
