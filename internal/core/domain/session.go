package domain

import "time"

// Session is one connected client context inside a world.
type Session struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	WorldID     string    `json:"worldId"`
	IsGM        bool      `json:"isGM"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// SessionContext identifies the session on whose behalf a coordinator call
// runs. It is threaded explicitly through every call instead of being looked
// up from ambient state.
type SessionContext struct {
	SessionID string
	UserID    string
	WorldID   string
	IsGM      bool
}

// Context derives the call context for a session.
func (s Session) Context() SessionContext {
	return SessionContext{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		WorldID:   s.WorldID,
		IsGM:      s.IsGM,
	}
}
