package match

import "sync"

type Status string

const (
	StatusLobby   Status = "lobby"
	StatusQueued  Status = "queued"
	StatusWaiting Status = "waiting"
	StatusInRoom  Status = "in_room"
)

// Identity is the player record returned by the identity store.
type Identity struct {
	DisplayName  string
	IsAdmin      bool
	TotalScore   int
	GamesPlayed  int
	WordsGuessed int
}

type Session struct {
	ConnectionID string
	Identity     Identity
	Status       Status
	RoomCode     string
}

// SessionManager maps live connections to players. Display names are unique
// among live sessions.
type SessionManager struct {
	sessions map[string]*Session // ConnectionID -> Session
	names    map[string]string   // DisplayName -> ConnectionID
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		names:    make(map[string]string),
	}
}

// Associate binds an identity to a connection. A connection may switch
// identity only while it is in the lobby.
func (sm *SessionManager) Associate(connID string, identity Identity) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if owner, taken := sm.names[identity.DisplayName]; taken && owner != connID {
		return ErrNameInUse
	}

	if existing, ok := sm.sessions[connID]; ok {
		if existing.Status != StatusLobby {
			return ErrNotInLobby
		}
		delete(sm.names, existing.Identity.DisplayName)
	}

	sm.sessions[connID] = &Session{
		ConnectionID: connID,
		Identity:     identity,
		Status:       StatusLobby,
	}
	sm.names[identity.DisplayName] = connID
	return nil
}

func (sm *SessionManager) Lookup(connID string) (Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, ok := sm.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

func (sm *SessionManager) Remove(connID string) (Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[connID]
	if !ok {
		return Session{}, false
	}
	delete(sm.sessions, connID)
	if sm.names[s.Identity.DisplayName] == connID {
		delete(sm.names, s.Identity.DisplayName)
	}
	return *s, true
}

// Transition moves a session from one status to another atomically. It
// fails with ErrNotInLobby when the session is not in the expected status.
func (sm *SessionManager) Transition(connID string, from, to Status, roomCode string) (Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[connID]
	if !ok {
		return Session{}, ErrUnknownPlayer
	}
	if s.Status != from {
		return Session{}, ErrNotInLobby
	}
	s.Status = to
	s.RoomCode = roomCode
	return *s, nil
}

// ReleaseRoom sends a player back to the lobby if it is still bound to code.
func (sm *SessionManager) ReleaseRoom(connID, code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.sessions[connID]; ok && s.RoomCode == code {
		s.Status = StatusLobby
		s.RoomCode = ""
	}
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) All() []Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, *s)
	}
	return sessions
}
