package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anasol/cafe-orders/internal/inventory"
	"github.com/anasol/cafe-orders/internal/postgres"
	"github.com/anasol/cafe-orders/internal/testutil"
)

func TestLedgerReserveRelease(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	productID := testutil.InsertProduct(t, ctx, pool, "House Blend", 10)
	ledger := &inventory.Ledger{Pool: pool}

	remaining, err := ledger.Reserve(ctx, productID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), remaining)
	assert.Equal(t, int64(6), testutil.ProductQuantity(t, ctx, pool, productID))

	restored, err := ledger.Release(ctx, productID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(10), restored)
	assert.Equal(t, int64(10), testutil.ProductQuantity(t, ctx, pool, productID))
}

func TestLedgerReserveInsufficient(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	productID := testutil.InsertProduct(t, ctx, pool, "Single Origin", 2)
	ledger := &inventory.Ledger{Pool: pool}

	_, err := ledger.Reserve(ctx, productID, 3)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, int64(2), testutil.ProductQuantity(t, ctx, pool, productID))
}

func TestLedgerUnknownProduct(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	ledger := &inventory.Ledger{Pool: pool}

	_, err := ledger.Reserve(ctx, "2fd8a7c2-54cc-4f6d-9fd1-1b2f0c3d4e5f", 1)
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)

	_, err = ledger.Release(ctx, "not-a-uuid", 1)
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

func TestLedgerReservationRollsBackWithTransaction(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	productID := testutil.InsertProduct(t, ctx, pool, "Decaf", 10)
	ledger := &inventory.Ledger{Pool: pool}

	fault := errors.New("simulated storage fault")
	err := postgres.WithTx(ctx, pool, func(txCtx context.Context) error {
		if _, err := ledger.Reserve(txCtx, productID, 4); err != nil {
			return err
		}
		return fault
	})
	require.ErrorIs(t, err, fault)

	assert.Equal(t, int64(10), testutil.ProductQuantity(t, ctx, pool, productID))
}

// Two transactions reserving from the same product must serialize on the row
// lock; without FOR UPDATE both would read stale stock and oversell.
func TestLedgerConcurrentReservationsSerialize(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	productID := testutil.InsertProduct(t, ctx, pool, "Espresso", 5)
	ledger := &inventory.Ledger{Pool: pool}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- postgres.WithTx(ctx, pool, func(txCtx context.Context) error {
				_, err := ledger.Reserve(txCtx, productID, 3)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one reservation must fail")
	assert.Equal(t, int64(2), testutil.ProductQuantity(t, ctx, pool, productID))
}
