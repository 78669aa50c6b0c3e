// Package inventory owns per-product stock and the two mutations allowed on
// it: reserving stock for a new order and releasing it when an order that held
// a reservation is rejected or cancelled. Quantities are never assigned
// directly from order flows.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anasol/cafe-orders/internal/postgres"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Ledger mutates product stock under a row-level exclusive lock. Both calls
// join the transaction carried in ctx, so the lock is held until the caller's
// enclosing transaction commits or rolls back. Two concurrent reservations on
// the same product therefore serialize instead of both reading stale stock;
// an optimistic read-then-write here would reintroduce the oversell race.
type Ledger struct {
	Pool *pgxpool.Pool
}

// Reserve decrements on-hand stock by qty and returns the remaining quantity.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int64) (int64, error) {
	q := postgres.From(ctx, l.Pool)

	var stock int64
	err := q.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidUUID(err) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("lock product: %w", err)
	}
	if stock < qty {
		return stock, fmt.Errorf("%w: product %s has %d, requested %d",
			ErrInsufficientStock, productID, stock, qty)
	}

	remaining := stock - qty
	ct, err := q.Exec(ctx, `UPDATE products SET quantity = quantity - $2 WHERE id=$1`, productID, qty)
	if err != nil {
		return 0, fmt.Errorf("reserve stock: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return 0, ErrProductNotFound
	}
	return remaining, nil
}

// Release credits qty back to the product. The state machine guarantees it is
// invoked at most once per order transition; the ledger trusts its caller.
func (l *Ledger) Release(ctx context.Context, productID string, qty int64) (int64, error) {
	q := postgres.From(ctx, l.Pool)

	var stock int64
	err := q.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidUUID(err) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("lock product: %w", err)
	}

	ct, err := q.Exec(ctx, `UPDATE products SET quantity = quantity + $2 WHERE id=$1`, productID, qty)
	if err != nil {
		return 0, fmt.Errorf("release stock: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return 0, ErrProductNotFound
	}
	return stock + qty, nil
}
