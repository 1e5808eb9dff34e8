package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/model"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/store"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/testutil"
)

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testutil.NewTestSQLite(t), store.DialectSQLite)
}

func TestTable_InsertAssignsDistinctIDs(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	a, err := st.Resources.Insert(ctx, model.Resource{Item: "bread", Amount: 10})
	require.NoError(t, err)
	b, err := st.Resources.Insert(ctx, model.Resource{Item: "bread", Amount: 10})
	require.NoError(t, err)

	assert.Positive(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "bread", b.Item)
}

func TestTable_FindAll(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	empty, err := st.Sandwiches.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, name := range []string{"BLT", "Club", "Reuben"} {
		_, err := st.Sandwiches.Insert(ctx, model.Sandwich{Name: name, Price: 6.25})
		require.NoError(t, err)
	}

	all, err := st.Sandwiches.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BLT", all[0].Name)
	assert.Equal(t, "Reuben", all[2].Name)
	assert.Less(t, all[0].ID, all[1].ID)
	assert.InDelta(t, 6.25, all[1].Price, 0.0001)
}

func TestTable_OrderDateRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	when := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	created, err := st.Orders.Insert(ctx, model.Order{CustomerName: "Ann", Description: "lunch", OrderDate: when})
	require.NoError(t, err)
	assert.True(t, created.OrderDate.Equal(when))

	found, ok, err := st.Orders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ann", found.CustomerName)
	assert.True(t, found.OrderDate.Equal(when), "got %s", found.OrderDate)

	later := when.Add(48 * time.Hour)
	n, err := st.Orders.Patch(ctx, created.ID, model.OrderPatch{OrderDate: &later}.Changes())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, _, err = st.Orders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found.OrderDate.Equal(later))
	assert.Equal(t, "lunch", found.Description)
}

func TestTable_FindByIDMissing(t *testing.T) {
	st := newSQLiteStore(t)

	_, ok, err := st.Recipes.FindByID(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTable_PatchOnlyTouchesProvidedColumns(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	created, err := st.OrderDetails.Insert(ctx, model.OrderDetail{OrderID: 1, SandwichID: 2, Amount: 3})
	require.NoError(t, err)

	amount := 5
	n, err := st.OrderDetails.Patch(ctx, created.ID, model.OrderDetailPatch{Amount: &amount}.Changes())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, _, err := st.OrderDetails.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDetail{ID: created.ID, OrderID: 1, SandwichID: 2, Amount: 5}, found)
}

func TestTable_PatchMissingAndEmpty(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	item := "ham"
	n, err := st.Resources.Patch(ctx, 42, model.ResourcePatch{Item: &item}.Changes())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = st.Resources.Patch(ctx, 42, map[string]any{})
	require.NoError(t, err)
	assert.Zero(t, n)

	created, err := st.Resources.Insert(ctx, model.Resource{Item: "ham", Amount: 1})
	require.NoError(t, err)
	n, err = st.Resources.Patch(ctx, created.ID, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTable_RemoveIsIdempotent(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	created, err := st.Recipes.Insert(ctx, model.Recipe{SandwichID: 1, ResourceID: 1, Amount: 2})
	require.NoError(t, err)

	n, err := st.Recipes.Remove(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = st.Recipes.Remove(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := st.Recipes.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTable_Name(t *testing.T) {
	st := newSQLiteStore(t)

	assert.Equal(t, "orders", st.Orders.Name())
	assert.Equal(t, "order_details", st.OrderDetails.Name())
	assert.Equal(t, "sandwiches", st.Sandwiches.Name())
	assert.Equal(t, "recipes", st.Recipes.Name())
	assert.Equal(t, "resources", st.Resources.Name())
}

func TestStore_Ping(t *testing.T) {
	db := testutil.NewTestSQLite(t)
	st := store.New(db, store.DialectSQLite)

	require.NoError(t, st.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, st.Ping(context.Background()))
}
