// Package events publishes grading lifecycle events to the configured brokers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Event types emitted after a successful write.
const (
	SubmissionSubmitted = "submission.submitted"
	SubmissionGraded    = "submission.graded"
	AttemptSubmitted    = "attempt.submitted"
	AttemptGraded       = "attempt.graded"
)

// Event is the broker payload for one lifecycle change.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	EntityType string                 `json:"entity_type"`
	EntityID   uint                   `json:"entity_id"`
	ActorID    uint                   `json:"actor_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New builds an event with a fresh id.
func New(eventType, entityType string, entityID, actorID uint, payload map[string]interface{}, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: occurredAt.UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher publishes events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher targets "<channelBase>:grading".
func NewRedisPublisher(client *redis.Client, channelBase string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: RedisChannel(channelBase)}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// NATSPublisher publishes events on per-type NATS subjects.
type NATSPublisher struct {
	conn        *nats.Conn
	subjectBase string
}

// NewNATSPublisher targets "<channelBase with dots>.grading.<event type>".
func NewNATSPublisher(conn *nats.Conn, channelBase string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subjectBase: SubjectBase(channelBase)}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	if p == nil || p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subjectBase+"."+event.Type, payload)
}

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, publisher := range m {
		if publisher == nil {
			continue
		}
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RedisChannel returns the pub/sub channel for grading events.
func RedisChannel(channelBase string) string {
	return channelBase + ":grading"
}

// SubjectBase returns the NATS subject prefix for grading events.
func SubjectBase(channelBase string) string {
	return strings.ReplaceAll(channelBase, ":", ".") + ".grading"
}
