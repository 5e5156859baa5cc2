package timetable

import (
	"context"
	"time"
)

type EventKind string

// Event kinds
const (
	EventCreated   EventKind = "entry.created"
	EventUpdated   EventKind = "entry.updated"
	EventCancelled EventKind = "entry.cancelled"
	EventRestored  EventKind = "entry.restored"
	EventDeleted   EventKind = "entry.deleted"
)

// Event describes an accepted timetable mutation.
type Event struct {
	Kind       EventKind `json:"kind"`
	Entry      Entry     `json:"entry"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"` // UTC
}

type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
