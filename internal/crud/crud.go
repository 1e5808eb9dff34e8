// Package crud implements the five CRUD operations shared by every sandwich
// entity on top of a store table, and emits change events for mutations
// that touched a row.
package crud

import (
	"context"

	"github.com/rs/zerolog/log"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/events"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/model"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/store"
)

// Entity is a persisted record with an integer primary key.
type Entity interface {
	EntityID() int64
}

// Patch is a partial update. Changes returns only the provided columns.
type Patch interface {
	Changes() map[string]any
}

// Table is the persistence surface a Service needs. *store.Table satisfies it.
type Table[E any] interface {
	Name() string
	Insert(ctx context.Context, e E) (E, error)
	FindByID(ctx context.Context, id int64) (E, bool, error)
	FindAll(ctx context.Context) ([]E, error)
	Patch(ctx context.Context, id int64, changes map[string]any) (int64, error)
	Remove(ctx context.Context, id int64) (int64, error)
}

// Service runs CRUD operations for one entity type.
type Service[E Entity, P Patch] struct {
	table     Table[E]
	publisher events.Publisher
}

// New creates a Service. A nil publisher disables events.
func New[E Entity, P Patch](table Table[E], publisher events.Publisher) *Service[E, P] {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service[E, P]{table: table, publisher: publisher}
}

// Entity returns the collection name, which is also the table name.
func (s *Service[E, P]) Entity() string {
	return s.table.Name()
}

// Create persists e and returns the stored record with its new id.
func (s *Service[E, P]) Create(ctx context.Context, e E) (E, error) {
	created, err := s.table.Insert(ctx, e)
	if err != nil {
		return created, err
	}
	s.publish(ctx, events.ActionCreated, created.EntityID(), created)
	return created, nil
}

// ReadAll returns every record. The result is never nil.
func (s *Service[E, P]) ReadAll(ctx context.Context) ([]E, error) {
	return s.table.FindAll(ctx)
}

// ReadOne returns the record with id. The boolean is false when it is absent.
func (s *Service[E, P]) ReadOne(ctx context.Context, id int64) (E, bool, error) {
	return s.table.FindByID(ctx, id)
}

// Update applies the provided fields of patch to the record with id and
// returns the record as stored afterwards. Fields not provided keep their
// values. The boolean is false when no record has id.
func (s *Service[E, P]) Update(ctx context.Context, id int64, patch P) (E, bool, error) {
	var zero E

	changes := patch.Changes()
	n, err := s.table.Patch(ctx, id, changes)
	if err != nil {
		return zero, false, err
	}
	if n == 0 {
		return zero, false, nil
	}

	updated, ok, err := s.table.FindByID(ctx, id)
	if err != nil || !ok {
		return zero, ok, err
	}
	if len(changes) > 0 {
		s.publish(ctx, events.ActionUpdated, id, updated)
	}
	return updated, true, nil
}

// Delete removes the record with id. Deleting an absent record is a no-op.
func (s *Service[E, P]) Delete(ctx context.Context, id int64) error {
	n, err := s.table.Remove(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.publish(ctx, events.ActionDeleted, id, map[string]int64{"id": id})
	}
	return nil
}

// publish reports a committed mutation. Delivery failures are logged only;
// the row is already durable.
func (s *Service[E, P]) publish(ctx context.Context, action events.Action, id int64, data any) {
	logger := log.Ctx(ctx).With().
		Str("entity", s.Entity()).
		Str("action", string(action)).
		Int64("id", id).
		Logger()

	event, err := events.New(s.Entity(), action, id, data)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to build change event")
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to publish change event")
	}
}

// Services holds one Service per sandwich entity.
type Services struct {
	Orders       *Service[model.Order, model.OrderPatch]
	OrderDetails *Service[model.OrderDetail, model.OrderDetailPatch]
	Sandwiches   *Service[model.Sandwich, model.SandwichPatch]
	Recipes      *Service[model.Recipe, model.RecipePatch]
	Resources    *Service[model.Resource, model.ResourcePatch]
}

// NewServices wires a Service to each table of st.
func NewServices(st *store.Store, publisher events.Publisher) *Services {
	return &Services{
		Orders:       New[model.Order, model.OrderPatch](st.Orders, publisher),
		OrderDetails: New[model.OrderDetail, model.OrderDetailPatch](st.OrderDetails, publisher),
		Sandwiches:   New[model.Sandwich, model.SandwichPatch](st.Sandwiches, publisher),
		Recipes:      New[model.Recipe, model.RecipePatch](st.Recipes, publisher),
		Resources:    New[model.Resource, model.ResourcePatch](st.Resources, publisher),
	}
}
