package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/events"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/model"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/store"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newServices(t *testing.T) (*Services, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	st := store.New(testutil.NewTestSQLite(t), store.DialectSQLite)
	return NewServices(st, rec), rec
}

func TestService_CreateAssignsDistinctIDs(t *testing.T) {
	svc, rec := newServices(t)
	ctx := context.Background()

	a, err := svc.Sandwiches.Create(ctx, model.Sandwich{Name: "BLT", Price: 6.5})
	require.NoError(t, err)
	b, err := svc.Sandwiches.Create(ctx, model.Sandwich{Name: "Club", Price: 7.25, Description: "triple"})
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Club", b.Name)
	assert.Equal(t, 7.25, b.Price)
	assert.Equal(t, "triple", b.Description)

	got, ok, err := svc.Sandwiches.ReadOne(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, got)

	evts := rec.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, "chamicore.sandwich.sandwiches.created", evts[1].Type)
	var payload model.Sandwich
	require.NoError(t, json.Unmarshal(evts[1].Data, &payload))
	assert.Equal(t, b, payload)
}

func TestService_ReadAllEmpty(t *testing.T) {
	svc, _ := newServices(t)

	items, err := svc.Resources.ReadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestService_ReadAllOrdered(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	for _, item := range []string{"bread", "ham", "cheese"} {
		_, err := svc.Resources.Create(ctx, model.Resource{Item: item, Amount: 10})
		require.NoError(t, err)
	}

	items, err := svc.Resources.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "bread", items[0].Item)
	assert.Equal(t, "cheese", items[2].Item)
	assert.Less(t, items[0].ID, items[1].ID)
}

func TestService_ReadOneMissing(t *testing.T) {
	svc, _ := newServices(t)

	_, ok, err := svc.Orders.ReadOne(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_UpdateMergesProvidedFields(t *testing.T) {
	svc, rec := newServices(t)
	ctx := context.Background()

	created, err := svc.Resources.Create(ctx, model.Resource{Item: "bread", Amount: 10})
	require.NoError(t, err)

	updated, ok, err := svc.Resources.Update(ctx, created.ID, model.ResourcePatch{Amount: ptr(4)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Resource{ID: created.ID, Item: "bread", Amount: 4}, updated)

	got, _, err := svc.Resources.ReadOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	evts := rec.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, "chamicore.sandwich.resources.updated", evts[1].Type)
}

func TestService_UpdateEmptyPatchIsNoop(t *testing.T) {
	svc, rec := newServices(t)
	ctx := context.Background()

	created, err := svc.Resources.Create(ctx, model.Resource{Item: "ham", Amount: 2})
	require.NoError(t, err)

	updated, ok, err := svc.Resources.Update(ctx, created.ID, model.ResourcePatch{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, updated)
	assert.Len(t, rec.Events(), 1)
}

func TestService_UpdateMissing(t *testing.T) {
	svc, rec := newServices(t)

	_, ok, err := svc.Resources.Update(context.Background(), 42, model.ResourcePatch{Amount: ptr(1)})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Resources.Update(context.Background(), 42, model.ResourcePatch{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.Events())
}

func TestService_UpdateOrderDate(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	placed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	created, err := svc.Orders.Create(ctx, model.Order{CustomerName: "Ada", OrderDate: placed})
	require.NoError(t, err)
	assert.True(t, placed.Equal(created.OrderDate))

	moved := placed.Add(48 * time.Hour)
	updated, ok, err := svc.Orders.Update(ctx, created.ID, model.OrderPatch{
		OrderDate:   &moved,
		Description: ptr("no onions"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada", updated.CustomerName)
	assert.Equal(t, "no onions", updated.Description)
	assert.True(t, moved.Equal(updated.OrderDate))
}

func TestService_DeleteIsIdempotent(t *testing.T) {
	svc, rec := newServices(t)
	ctx := context.Background()

	created, err := svc.Recipes.Create(ctx, model.Recipe{SandwichID: 1, ResourceID: 2, Amount: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Recipes.Delete(ctx, created.ID))
	_, ok, err := svc.Recipes.ReadOne(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Recipes.Delete(ctx, created.ID))

	evts := rec.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, "chamicore.sandwich.recipes.deleted", evts[1].Type)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d}`, created.ID), string(evts[1].Data))
}

func TestService_PublishFailureDoesNotFailMutation(t *testing.T) {
	svc, rec := newServices(t)
	rec.FailWith(errors.New("broker down"))
	ctx := context.Background()

	created, err := svc.OrderDetails.Create(ctx, model.OrderDetail{OrderID: 1, SandwichID: 1, Amount: 2})
	require.NoError(t, err)

	_, ok, err := svc.OrderDetails.ReadOne(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	db := testutil.NewTestSQLite(t)
	svc := New[model.Sandwich, model.SandwichPatch](
		store.NewTable(db, store.DialectSQLite, store.SandwichSchema), nil)
	require.NoError(t, db.Close())
	ctx := context.Background()

	_, err := svc.Create(ctx, model.Sandwich{Name: "BLT"})
	assert.Error(t, err)
	_, err = svc.ReadAll(ctx)
	assert.Error(t, err)
	_, _, err = svc.ReadOne(ctx, 1)
	assert.Error(t, err)
	_, _, err = svc.Update(ctx, 1, model.SandwichPatch{Name: ptr("x")})
	assert.Error(t, err)
	assert.Error(t, svc.Delete(ctx, 1))
}
