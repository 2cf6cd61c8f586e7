// Package queue defines message payloads exchanged over the message broker,
// together with the publisher and the background consumer that turns
// domain events into notifications and hub pushes.
package queue

import "time"

// EventType names the domain events the lifecycle and disclosure
// services publish. The notifier consumer maps each type to the
// notification it creates for the recipients.
type EventType string

const (
	EventCompletionRequested EventType = "completion.requested"
	EventCompletionConfirmed EventType = "completion.confirmed"
	EventStatusChanged       EventType = "status.changed"
	EventPhoneRevealed       EventType = "phone.revealed"
)

// MatchEvent is published whenever a match changes state or a contact
// number is revealed. It carries enough information for downstream
// consumers to build notifications without querying the primary
// database. Delivery is at-least-once: EventID lets consumers spot
// redeliveries, and the client-side reconciliation loop is the
// correctness backstop for any duplicate or lost push that results.
type MatchEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	MatchID    uint64    `json:"match_id"`
	ActorID    uint64    `json:"actor_id"`
	ActorName  string    `json:"actor_name,omitempty"`
	Recipients []uint64  `json:"recipients"`
	Status     string    `json:"status,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
