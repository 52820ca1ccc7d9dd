package types

// UserSettings are the persisted user-facing preferences.
type UserSettings struct {
	UserName            string       `json:"userName"`
	PreferredLanguage   Language     `json:"preferredLanguage"`
	VoiceName           VoiceProfile `json:"voiceName"`
	SpeechRate          float64      `json:"speechRate"`
	AutoSearch          bool         `json:"autoSearch"`
	DeepThinkingDefault bool         `json:"deepThinkingDefault"`
	ThemeColor          string       `json:"themeColor"`
}

// DefaultSettings returns the documented defaults used when the stored
// settings are absent or unreadable.
func DefaultSettings() UserSettings {
	return UserSettings{
		UserName:            "Citizen",
		PreferredLanguage:   DefaultLanguage,
		VoiceName:           DefaultVoice,
		SpeechRate:          1.0,
		AutoSearch:          true,
		DeepThinkingDefault: false,
		ThemeColor:          "brand",
	}
}

// Normalize replaces invalid fields with their defaults.
func (s UserSettings) Normalize() UserSettings {
	def := DefaultSettings()
	if s.UserName == "" {
		s.UserName = def.UserName
	}
	if !s.PreferredLanguage.Valid() {
		s.PreferredLanguage = def.PreferredLanguage
	}
	if !s.VoiceName.Valid() {
		s.VoiceName = def.VoiceName
	}
	if s.SpeechRate < 0.5 || s.SpeechRate > 2.0 {
		s.SpeechRate = def.SpeechRate
	}
	if s.ThemeColor == "" {
		s.ThemeColor = def.ThemeColor
	}
	return s
}
