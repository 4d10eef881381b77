package audit

import "time"

// Event is an immutable, append-only record of an admin mutation.
//
// Invariants:
// - Events are never updated or deleted.
// - database_id scopes the record to one content database.
// - actor and ip capture are best-effort; do not block CMS writes on audit failures.
type Event struct {
	ID         string `json:"id" db:"id"`
	DatabaseID string `json:"database_id" db:"database_id"`

	Type EventType `json:"type" db:"type"`

	// Action is the function action that caused the event (create, upload, register...).
	Action string `json:"action" db:"action"`

	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorEmail  string `json:"actor_email,omitempty" db:"actor_email"`

	// IPAddress is the client IP as resolved by gin (trusted proxies apply).
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers, depending on the event type.
	Collection string `json:"collection,omitempty" db:"collection"`
	DocumentID string `json:"document_id,omitempty" db:"document_id"`
	FileID     string `json:"file_id,omitempty" db:"file_id"`
	UserID     string `json:"user_id,omitempty" db:"user_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeDocument EventType = "document"
	EventTypeFile     EventType = "file"
	EventTypeAdmin    EventType = "admin"
)

// Actor is the authenticated caller behind an event.
type Actor struct {
	UserID string
	Email  string
	IP     string
}
