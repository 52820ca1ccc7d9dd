package archive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

const (
	sessionsKey = "nagrikai_saved_sessions"

	// DefaultSessionName marks a session that has not yet been named;
	// the first user message replaces it automatically.
	DefaultSessionName = "New Consultation"

	// StorageLimitBytes is the usage ceiling reported to the user.
	StorageLimitBytes = int64(4.5 * 1024 * 1024)

	autoNameLimit = 30
)

// SaveStatus classifies a persistence attempt.
type SaveStatus int

const (
	SaveOK SaveStatus = iota
	SaveQuotaExceeded
	SaveStorageError
)

// SaveResult reports how a write to the store went. On failure the
// in-memory state still reflects the change, so the user keeps working
// and only persistence is degraded.
type SaveResult struct {
	Status SaveStatus
	Err    error
}

func (r SaveResult) OK() bool { return r.Status == SaveOK }

// Manager owns the archive of saved consultations. Sessions are ordered
// newest first and exactly one is active at any time once created.
type Manager struct {
	store Store

	mu       sync.Mutex
	sessions []types.SavedSession
	activeID string
	lastID   int64
}

// NewManager loads existing sessions from the store. A missing or corrupt
// blob degrades to an empty archive rather than failing startup.
func NewManager(store Store) *Manager {
	m := &Manager{store: store}
	data, found, err := store.Get(sessionsKey)
	if err == nil && found {
		var sessions []types.SavedSession
		if json.Unmarshal(data, &sessions) == nil {
			m.sessions = sessions
		}
	}
	return m
}

// Sessions returns a snapshot of all saved sessions, newest first.
func (m *Manager) Sessions() []types.SavedSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.SavedSession, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// ActiveID returns the id of the session currently being written to, or
// empty when none has been created or loaded yet.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// ActiveSession returns a copy of the active session.
func (m *Manager) ActiveSession() (types.SavedSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(m.activeID)
	if i < 0 {
		return types.SavedSession{}, false
	}
	return m.sessions[i], true
}

// CreateSession starts a fresh consultation and makes it active. Initial
// messages (a greeting, typically) seed the transcript. The archive is
// not written; callers persist with an explicit Save.
func (m *Manager) CreateSession(initial ...types.ChatMessage) types.SavedSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.newSessionLocked(initial)
	m.sessions = append([]types.SavedSession{session}, m.sessions...)
	m.activeID = session.ID
	return session
}

// Save writes the full archive to the store in one serialized write.
func (m *Manager) Save() SaveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked()
}

// LoadSession makes an existing session active and returns it.
func (m *Manager) LoadSession(id string) (types.SavedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return types.SavedSession{}, core.NewGenericError(fmt.Sprintf("no saved session with id %q", id), nil)
	}
	m.activeID = id
	return m.sessions[i], nil
}

// RenameSession sets a user-chosen name. A renamed session is never
// auto-renamed again.
func (m *Manager) RenameSession(id, name string) SaveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return SaveResult{Status: SaveStorageError, Err: core.NewGenericError(fmt.Sprintf("no saved session with id %q", id), nil)}
	}
	m.sessions[i].Name = name
	return m.persistLocked()
}

// DeleteSession removes a session. Deleting the active session replaces
// it with a fresh one so the archive is never left without an active
// consultation.
func (m *Manager) DeleteSession(id string, initial ...types.ChatMessage) (types.SavedSession, SaveResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := m.sessions[:0:0]
	for _, s := range m.sessions {
		if s.ID != id {
			remaining = append(remaining, s)
		}
	}
	m.sessions = remaining

	var replacement types.SavedSession
	if m.activeID == id {
		replacement = m.newSessionLocked(initial)
		m.sessions = append([]types.SavedSession{replacement}, m.sessions...)
		m.activeID = replacement.ID
	}
	return replacement, m.persistLocked()
}

// ClearAll wipes the archive and leaves a single fresh session active.
func (m *Manager) ClearAll(initial ...types.ChatMessage) (types.SavedSession, SaveResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	replacement := m.newSessionLocked(initial)
	m.sessions = []types.SavedSession{replacement}
	m.activeID = replacement.ID
	return replacement, m.persistLocked()
}

// AppendMessage adds a message to the active session and persists. While
// the session still carries the default name, the first user message
// names it, truncated with an ellipsis when it runs long.
func (m *Manager) AppendMessage(msg types.ChatMessage) SaveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(m.activeID)
	if i < 0 {
		return SaveResult{Status: SaveStorageError, Err: core.NewGenericError("no active session", nil)}
	}
	m.sessions[i].Messages = append(m.sessions[i].Messages, msg)
	if m.sessions[i].Name == DefaultSessionName {
		if first, ok := m.sessions[i].FirstUserMessage(); ok {
			m.sessions[i].Name = autoName(first.Content)
		}
	}
	return m.persistLocked()
}

// ReplaceMessages swaps the active session's transcript wholesale, used
// when regenerating a reply rewinds the conversation.
func (m *Manager) ReplaceMessages(messages []types.ChatMessage) SaveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(m.activeID)
	if i < 0 {
		return SaveResult{Status: SaveStorageError, Err: core.NewGenericError("no active session", nil)}
	}
	m.sessions[i].Messages = messages
	if m.sessions[i].Name == DefaultSessionName {
		if first, ok := m.sessions[i].FirstUserMessage(); ok {
			m.sessions[i].Name = autoName(first.Content)
		}
	}
	return m.persistLocked()
}

// UsageBytes reports the serialized size of the archive.
func (m *Manager) UsageBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usageBytesLocked()
}

// UsagePercent reports archive usage against the storage ceiling,
// clamped to 100.
func (m *Manager) UsagePercent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	pct := float64(m.usageBytesLocked()) / float64(StorageLimitBytes) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (m *Manager) usageBytesLocked() int64 {
	data, err := json.Marshal(m.sessions)
	if err != nil {
		return 0
	}
	return int64(len(data))
}

func (m *Manager) newSessionLocked(initial []types.ChatMessage) types.SavedSession {
	now := time.Now()
	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	msgs := make([]types.ChatMessage, len(initial))
	copy(msgs, initial)
	return types.SavedSession{
		ID:        strconv.FormatInt(id, 10),
		Name:      DefaultSessionName,
		Timestamp: now.UnixMilli(),
		Messages:  msgs,
	}
}

func (m *Manager) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range m.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the archive to the store. In-memory state is kept
// even when the write fails; the result tells the caller which banner to
// show.
func (m *Manager) persistLocked() SaveResult {
	data, err := json.Marshal(m.sessions)
	if err != nil {
		return SaveResult{Status: SaveStorageError, Err: core.NewStorageError("cannot serialize sessions", err)}
	}
	if err := m.store.Set(sessionsKey, data); err != nil {
		if core.KindOf(err) == core.ErrQuotaExceeded {
			return SaveResult{Status: SaveQuotaExceeded, Err: err}
		}
		return SaveResult{Status: SaveStorageError, Err: err}
	}
	return SaveResult{Status: SaveOK}
}

func autoName(content string) string {
	runes := []rune(content)
	if len(runes) <= autoNameLimit {
		return content
	}
	return string(runes[:autoNameLimit]) + "..."
}
