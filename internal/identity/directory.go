// Package identity resolves an authenticated principal to a backing user
// record. Authentication itself happens upstream; the HTTP layer hands the
// resolved user to the core explicitly instead of the core reaching into an
// ambient security context.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anasol/cafe-orders/internal/orders"
	"github.com/anasol/cafe-orders/internal/postgres"
)

type Directory struct{ DB *pgxpool.Pool }

func NewDirectory(db *pgxpool.Pool) *Directory { return &Directory{DB: db} }

// FindByEmail returns the user behind a principal, or ErrUserNotFound when
// the principal has no backing row.
func (d *Directory) FindByEmail(ctx context.Context, email string) (orders.User, error) {
	if email == "" {
		return orders.User{}, orders.ErrUnauthenticated
	}

	q := postgres.From(ctx, d.DB)

	var u orders.User
	err := q.QueryRow(ctx, `
		SELECT id, email, role, COALESCE(branch_id::text, '')
		FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Role, &u.BranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.User{}, orders.ErrUserNotFound
		}
		return orders.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
