// Package events defines the change events the sandwich service emits after
// committed mutations, and the publishers that deliver them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// Source identifies this service as the event producer.
	Source = "chamicore-sandwich"
	// SubjectPrefix prefixes every event type and NATS subject.
	SubjectPrefix = "chamicore.sandwich"
	// JSONDataContentType is the content type of Event.Data.
	JSONDataContentType = "application/json"

	specVersion = "1.0"
)

// Action names the kind of mutation an event reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is a CloudEvents-shaped change notification.
type Event struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

var newEventID = uuid.NewString

// TypeFor returns the event type for an action on an entity collection,
// e.g. "chamicore.sandwich.orders.created".
func TypeFor(entity string, action Action) string {
	return SubjectPrefix + "." + entity + "." + string(action)
}

// New builds an event carrying data as its JSON payload.
func New(entity string, action Action, id int64, data any) (Event, error) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return Event{}, fmt.Errorf("entity is required")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshaling %s event payload: %w", entity, err)
	}

	return Event{
		ID:              newEventID(),
		Source:          Source,
		SpecVersion:     specVersion,
		Type:            TypeFor(entity, action),
		Subject:         fmt.Sprintf("%d", id),
		Time:            time.Now().UTC(),
		DataContentType: JSONDataContentType,
		Data:            payload,
	}, nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// FailWith makes subsequent Publish calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
