package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anasol/cafe-orders/internal/clock"
	"github.com/anasol/cafe-orders/internal/inventory"
	"github.com/anasol/cafe-orders/internal/orders"
	"github.com/anasol/cafe-orders/internal/testutil"
)

type fixture struct {
	repo      *orders.Repo
	svc       *orders.Service
	user      orders.User
	branchID  string
	productID string
}

func newFixture(t *testing.T, ctx context.Context, stock int64) fixture {
	t.Helper()
	pool := testutil.NewTestPool(t)
	testutil.TruncateAll(t, ctx, pool)

	branchID := testutil.InsertBranch(t, ctx, pool, "JKT-01", "Central")
	userID := testutil.InsertUser(t, ctx, pool, "staff@cafe.local", branchID)
	productID := testutil.InsertProduct(t, ctx, pool, "Arabica Beans", stock)

	repo := orders.NewRepo(pool)
	svc := orders.NewService(repo, &inventory.Ledger{Pool: pool}, clock.NewSystem(), zap.NewNop())

	return fixture{
		repo:      repo,
		svc:       svc,
		user:      orders.User{ID: userID, Email: "staff@cafe.local", Role: "STAFF", BranchID: branchID},
		branchID:  branchID,
		productID: productID,
	}
}

func TestServiceAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, ctx, 10)

	view, err := fx.svc.PlaceOrder(ctx, fx.user, orders.PlaceOrderInput{
		BranchID: fx.branchID, ProductID: fx.productID, Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, view.Status)
	require.NotNil(t, view.Branch)
	assert.Equal(t, "JKT-01", view.Branch.Code)
	require.NotNil(t, view.Product)
	assert.Equal(t, "Arabica Beans", view.Product.Name)
	assert.WithinDuration(t, time.Now().UTC(), view.CreatedAt, time.Minute)

	updated, err := fx.svc.UpdateStatus(ctx, view.ID, orders.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusRejected, updated.Status)

	// released quantity is visible through a fresh placement
	again, err := fx.svc.PlaceOrder(ctx, fx.user, orders.PlaceOrderInput{
		BranchID: fx.branchID, ProductID: fx.productID, Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.Quantity)
}

func TestRepoOptimisticVersionCheck(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, ctx, 10)

	view, err := fx.svc.PlaceOrder(ctx, fx.user, orders.PlaceOrderInput{
		BranchID: fx.branchID, ProductID: fx.productID, Quantity: 1,
	})
	require.NoError(t, err)

	loaded, err := fx.repo.GetOrder(ctx, view.ID)
	require.NoError(t, err)

	require.NoError(t, fx.repo.UpdateOrderStatus(ctx, view.ID, orders.StatusApproved, loaded.Version))

	// a second writer holding the stale version loses
	err = fx.repo.UpdateOrderStatus(ctx, view.ID, orders.StatusCancelled, loaded.Version)
	assert.ErrorIs(t, err, orders.ErrConflict)
}

func TestRepoNotFoundMapping(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, ctx, 10)

	_, err := fx.repo.GetOrder(ctx, uuid.NewString())
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)

	_, err = fx.repo.GetOrder(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)

	_, err = fx.repo.GetBranch(ctx, uuid.NewString())
	assert.ErrorIs(t, err, orders.ErrBranchNotFound)

	err = fx.repo.DeleteOrder(ctx, uuid.NewString())
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestListOrdersPagination(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, ctx, 100)

	for i := 0; i < 12; i++ {
		_, err := fx.svc.PlaceOrder(ctx, fx.user, orders.PlaceOrderInput{
			BranchID: fx.branchID, ProductID: fx.productID, Quantity: 1,
		})
		require.NoError(t, err)
	}

	page, err := fx.svc.List(ctx, orders.Filter{UserID: fx.user.ID}, orders.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Content, 10)
	assert.Equal(t, int64(12), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)

	last, err := fx.svc.List(ctx, orders.Filter{UserID: fx.user.ID}, orders.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Len(t, last.Content, 2)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrevious)

	none, err := fx.svc.List(ctx, orders.Filter{Status: orders.StatusApproved}, orders.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, none.Content)
	assert.Equal(t, int64(0), none.TotalItems)
}
