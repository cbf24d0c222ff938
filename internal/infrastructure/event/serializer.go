package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/onixgym/backend/internal/domain/shared"
)

// ErrUnregisteredEvent is returned for event types the serializer cannot
// decode. Writing such an event would leave an outbox row nobody can replay.
var ErrUnregisteredEvent = errors.New("event type is not registered")

type decodeFunc func(data []byte) (shared.DomainEvent, error)

// EventSerializer turns domain events into outbox payloads and decodes the
// payloads back into their concrete type for the processor.
type EventSerializer struct {
	mu       sync.RWMutex
	decoders map[string]decodeFunc
}

// NewEventSerializer creates an empty serializer; see RegisterAllEvents
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{decoders: make(map[string]decodeFunc)}
}

// Register binds eventType to the payload struct E. Registering a type twice
// replaces the earlier binding.
func Register[E any, P interface {
	*E
	shared.DomainEvent
}](s *EventSerializer, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decoders[eventType] = func(data []byte) (shared.DomainEvent, error) {
		event := P(new(E))
		if err := json.Unmarshal(data, event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
		}
		return event, nil
	}
}

// Serialize encodes a registered event
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredEvent, event.EventType())
	}
	return json.Marshal(event)
}

// Deserialize decodes the payload of an outbox row. The payload must carry
// the same type as the row.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	decode, ok := s.decoders[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredEvent, eventType)
	}

	event, err := decode(data)
	if err != nil {
		return nil, err
	}
	if event.EventType() != eventType {
		return nil, fmt.Errorf("payload of %s carries event type %q", eventType, event.EventType())
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.decoders[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.decoders))
	for t := range s.decoders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
