// Package settings persists user preferences through the same local
// store the archive uses.
package settings

import (
	"encoding/json"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/archive"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

const settingsKey = "nagrikai_settings"

// Load reads stored settings, falling back to defaults when nothing is
// stored or the blob is unreadable. Individual invalid fields are
// normalized rather than rejecting the whole blob.
func Load(store archive.Store) types.UserSettings {
	data, found, err := store.Get(settingsKey)
	if err != nil || !found {
		return types.DefaultSettings()
	}
	var s types.UserSettings
	if json.Unmarshal(data, &s) != nil {
		return types.DefaultSettings()
	}
	return s.Normalize()
}

// Save persists the settings. The value is normalized first so a bad
// field never reaches disk.
func Save(store archive.Store, s types.UserSettings) error {
	data, err := json.Marshal(s.Normalize())
	if err != nil {
		return core.NewStorageError("cannot serialize settings", err)
	}
	return store.Set(settingsKey, data)
}
