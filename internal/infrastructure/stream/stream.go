// Package stream fans term mutations out to peer service instances over a
// Kafka-compatible broker with franz-go. Each instance publishes a change
// event after every committed mutation and invalidates its own query cache
// when it sees a change from another instance. Invalidation is idempotent,
// so at-least-once delivery is enough; this is cache coherence between
// replicas, not a push channel to users.
package stream

import (
	"encoding/json"
	"time"

	"github.com/trendingvenues/termdict/internal/query"
)

// TopicTermChanges carries one event per committed term mutation.
const TopicTermChanges = "dictionary.term-changes"

// Event is the wire form of a committed mutation.
type Event struct {
	Kind      query.ChangeKind `json:"kind"`
	TermID    string           `json:"term_id"`
	Actor     string           `json:"actor,omitempty"`
	Origin    string           `json:"origin"`
	Timestamp time.Time        `json:"timestamp"`
}

// Encode serializes the event for the broker.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an event off the wire.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
