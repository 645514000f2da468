package repos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/repos"
)

func TestDecrementStockIsConditional(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	s := repos.NewStore(db)

	require.NoError(t, s.Products.DecrementStock(ctx, "p-tshirt", 2))
	err = s.Products.DecrementStock(ctx, "p-tshirt", 2)
	assert.True(t, errors.Is(err, repos.ErrNoRows))

	p, err := s.Products.Get(ctx, "p-tshirt")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
	assert.Equal(t, 1, p.TotalOrders)
}

func TestCartUpsertMerges(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	s := repos.NewStore(db)

	cartID, err := s.Carts.EnsureCart(ctx, "u-alice")
	require.NoError(t, err)
	again, err := s.Carts.EnsureCart(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, cartID, again)

	require.NoError(t, s.Carts.UpsertItem(ctx, cartID, "p-kettle", 1, 1000))
	require.NoError(t, s.Carts.UpsertItem(ctx, cartID, "p-kettle", 2, 1000))
	items, err := s.Carts.Items(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "5400", items[0].Subtotal().String())

	assert.ErrorIs(t, s.Carts.UpsertItem(ctx, cartID, "p-kettle", 998, 1000), repos.ErrNoRows)
	require.NoError(t, s.Carts.UpsertItem(ctx, cartID, "p-kettle", 997, 1000))
	items, err = s.Carts.Items(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, 1000, items[0].Quantity)
}

func TestInTxRollsBack(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err = repos.InTx(ctx, db, func(s *repos.Store) error {
		require.NoError(t, s.Products.DecrementStock(ctx, "p-kettle", 4))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := repos.NewStore(db).Products.Get(ctx, "p-kettle")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestProductListFilters(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	s := repos.NewStore(db)

	out, total, err := s.Products.List(ctx, repos.ProductFilter{SortBy: "price", Desc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, out, 2)
	assert.Equal(t, "p-headphones", out[0].ID)
	assert.Equal(t, "p-kettle", out[1].ID)

	out, total, err = s.Products.List(ctx, repos.ProductFilter{Search: "KETTLE", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "p-kettle", out[0].ID)
}
