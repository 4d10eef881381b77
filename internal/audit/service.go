package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records admin mutations.
//
// Audit is internal-only and callers treat it as best-effort.
type Service struct {
	repo       Repository
	databaseID string
	clock      func() time.Time
}

func NewService(repo Repository, databaseID string) *Service {
	return &Service{repo: repo, databaseID: databaseID, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.DatabaseID == "" {
		e.DatabaseID = s.databaseID
	}
	if e.DatabaseID == "" || e.Type == "" || e.Action == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogDocument records a create, update or delete against a collection.
func (s *Service) LogDocument(ctx context.Context, actor Actor, action, collection, documentID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeDocument,
		Action:      action,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		IPAddress:   actor.IP,
		Collection:  collection,
		DocumentID:  documentID,
	})
}

// LogFile records an upload or file deletion.
func (s *Service) LogFile(ctx context.Context, actor Actor, action, fileID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeFile,
		Action:      action,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		IPAddress:   actor.IP,
		FileID:      fileID,
	})
}

// LogAdmin records directory changes such as registering a new admin.
func (s *Service) LogAdmin(ctx context.Context, actor Actor, action, userID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAdmin,
		Action:      action,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		IPAddress:   actor.IP,
		UserID:      userID,
	})
}
