// Package realtime forwards content-change events to connected admin
// clients. Mutating handlers publish events to a Valkey pub/sub channel;
// the bridge subscribes and fans the payloads out over websockets.
// Delivery is best-effort: clients refresh on reconnect.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the Valkey pub/sub channel events are published to.
const Channel = "instipress:events"

// Actions carried by events. Combined with the entity they form the
// event type, e.g. "page.updated".
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionTrashed  = "trashed"
	ActionRestored = "restored"
	ActionDeleted  = "deleted"
)

// Event describes a single content change.
type Event struct {
	Type   string    `json:"type"`   // "<entity>.<action>", e.g. "page.updated"
	Entity string    `json:"entity"` // "page", "post", "block", "media"
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug,omitempty"`
	At     time.Time `json:"at"`
}

// NewEvent builds an event with the type derived from entity and action.
func NewEvent(entity, action string, id uuid.UUID, slug string) Event {
	return Event{
		Type:   entity + "." + action,
		Entity: entity,
		ID:     id,
		Slug:   slug,
		At:     time.Now().UTC(),
	}
}

// Publisher sends events into the pub/sub channel.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a publisher backed by the given Valkey client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish serializes the event and sends it to the channel.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("event marshal: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("event publish: %w", err)
	}
	return nil
}
