package domain

import "time"

type SessionID string

type View string

const (
	ViewChat         View = "chat"
	ViewDocuments    View = "documents"
	ViewPermissions  View = "permissions"
	ViewArchitecture View = "architecture"
)

var Views = []View{ViewChat, ViewDocuments, ViewPermissions, ViewArchitecture}

func (v View) Valid() bool {
	switch v {
	case ViewChat, ViewDocuments, ViewPermissions, ViewArchitecture:
		return true
	}
	return false
}

// Session is everything one console tab knows: who it acts as, what was said,
// and the last known users, documents and capabilities.
type Session struct {
	ID              SessionID       `json:"id"`
	Identity        string          `json:"identity"`
	Users           []User          `json:"users"`
	Transcript      []Turn          `json:"transcript"`
	Busy            bool            `json:"busy"`
	Documents       []Document      `json:"documents"`
	DocumentsLoaded bool            `json:"documents_loaded"`
	Capabilities    CapabilityTable `json:"capabilities"`
	View            View            `json:"view"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.Users = append([]User(nil), s.Users...)
	out.Transcript = append([]Turn(nil), s.Transcript...)
	out.Documents = append([]Document(nil), s.Documents...)
	out.Capabilities = s.Capabilities.Clone()
	return out
}

// ActiveUser returns the user matching the identity, if it is known.
func (s Session) ActiveUser() (User, bool) {
	return FindUser(s.Users, s.Identity)
}
