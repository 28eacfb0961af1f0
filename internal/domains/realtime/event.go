package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event names
const (
	EventAvailability = "availability"
	EventPresence     = "presence"
	EventTitleCreated = "title:created"
	EventTitleUpdated = "title:updated"
	EventTitleDeleted = "title:deleted"
)

// Event is one message pushed to every observer.
//
// Events of one title may arrive out of order: the publish happens after the
// write commits, so two concurrent borrows can announce in either order.
// Version is the title version after the change. Observers apply an event only
// if its version is greater than the last one they applied for that title
// (see Supersedes) and refetch the title when they reconnect.
type Event struct {
	Name            string          `json:"event"`
	TitleID         string          `json:"titleId,omitempty"`
	CopiesAvailable *int            `json:"copiesAvailable,omitempty"`
	Version         int             `json:"version,omitempty"`
	Online          *int            `json:"online,omitempty"`
	Title           json.RawMessage `json:"title,omitempty"`
	At              time.Time       `json:"at"`
}

// Supersedes reports whether next should replace last for the same title.
// A zero last means nothing was applied yet.
func Supersedes(next, last Event) bool {
	return last.Version == 0 || next.Version > last.Version
}

// Publisher delivers committed changes to observers
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// AvailabilityChanged is emitted after every successful borrow or return
func AvailabilityChanged(titleID uuid.UUID, copiesAvailable, version int) Event {
	return Event{
		Name:            EventAvailability,
		TitleID:         titleID.String(),
		CopiesAvailable: &copiesAvailable,
		Version:         version,
		At:              time.Now().UTC(),
	}
}

// Presence carries the number of connected observers on this instance
func Presence(online int) Event {
	return Event{
		Name:   EventPresence,
		Online: &online,
		At:     time.Now().UTC(),
	}
}

// TitleChanged wraps a catalog change. body is encoded as the title payload;
// pass nil for deletions.
func TitleChanged(name string, titleID uuid.UUID, version int, body interface{}) (Event, error) {
	evt := Event{
		Name:    name,
		TitleID: titleID.String(),
		Version: version,
		At:      time.Now().UTC(),
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
		}
		evt.Title = raw
	}
	return evt, nil
}
