package types

import "fmt"

// VoiceProfile is a closed set of supported synthetic voices.
// Modeled as an enumeration so invalid profile values never reach the
// transport layer.
type VoiceProfile string

const (
	VoiceZephyr VoiceProfile = "Zephyr"
	VoicePuck   VoiceProfile = "Puck"
	VoiceCharon VoiceProfile = "Charon"
	VoiceKore   VoiceProfile = "Kore"
	VoiceFenrir VoiceProfile = "Fenrir"
	VoiceAoide  VoiceProfile = "Aoide"
	VoiceEos    VoiceProfile = "Eos"
)

// DefaultVoice is used when no profile is configured.
const DefaultVoice = VoiceZephyr

// voiceDescriptors maps each profile to its display descriptor.
var voiceDescriptors = map[VoiceProfile]string{
	VoiceZephyr: "Zephyr (balanced, warm)",
	VoicePuck:   "Puck (bright, quick)",
	VoiceCharon: "Charon (deep, measured)",
	VoiceKore:   "Kore (clear, neutral)",
	VoiceFenrir: "Fenrir (low, firm)",
	VoiceAoide:  "Aoide (melodic)",
	VoiceEos:    "Eos (soft, calm)",
}

// Valid reports whether p is a supported voice profile.
func (p VoiceProfile) Valid() bool {
	_, ok := voiceDescriptors[p]
	return ok
}

// Descriptor returns the human-readable description of the profile.
func (p VoiceProfile) Descriptor() string {
	if d, ok := voiceDescriptors[p]; ok {
		return d
	}
	return string(p)
}

// ParseVoiceProfile validates a profile name.
func ParseVoiceProfile(name string) (VoiceProfile, error) {
	p := VoiceProfile(name)
	if !p.Valid() {
		return "", fmt.Errorf("unsupported voice profile %q", name)
	}
	return p, nil
}

// VoiceProfiles returns all supported profiles in a stable order.
func VoiceProfiles() []VoiceProfile {
	return []VoiceProfile{
		VoiceZephyr, VoicePuck, VoiceCharon, VoiceKore,
		VoiceFenrir, VoiceAoide, VoiceEos,
	}
}
