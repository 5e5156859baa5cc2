package eventsvc

import (
	"context"

	"github.com/trezcool/ratiba/core/timetable"
)

// Discard drops every event. Used when no broker is configured.
type Discard struct{}

var _ timetable.EventPublisher = Discard{}

func (Discard) Publish(context.Context, timetable.Event) error { return nil }
