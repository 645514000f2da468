package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/gateway"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

var (
	alice  = services.Actor{UserID: "u-alice", Role: domain.RoleCustomer}
	bob    = services.Actor{UserID: "u-bob", Role: domain.RoleCustomer}
	admin  = services.Actor{UserID: "u-admin", Role: domain.RoleAdmin}
	seller = services.Actor{UserID: "u-seller", Role: domain.RoleSeller}
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// filedb is needed wherever several connections must race.
func filedb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "bazaar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func addProduct(t *testing.T, db *sqlx.DB, id, price string, stock int) {
	t.Helper()
	err := repos.NewProductRepo(db).Create(context.Background(), &domain.Product{
		ID: id, Name: "Item " + id, Slug: "item-" + id, Price: decimal.RequireFromString(price),
		Stock: stock, IsActive: true, SellerID: "u-seller",
	})
	require.NoError(t, err)
}

func stockOf(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	p, err := repos.NewProductRepo(db).Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func line(id string, qty int) services.OrderLineInput {
	return services.OrderLineInput{ProductID: id, Quantity: qty}
}

// fakeGateway records requests and answers with resp or err.
type fakeGateway struct {
	calls []gateway.InitRequest
	resp  *gateway.InitResponse
	err   error
}

func (f *fakeGateway) Init(_ context.Context, req gateway.InitRequest) (*gateway.InitResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &gateway.InitResponse{Status: "SUCCESS", SessionKey: "sess-" + req.TransactionID,
		GatewayPageURL: "https://pay.test/" + req.TransactionID}, nil
}
