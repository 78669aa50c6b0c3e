package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anasol/cafe-orders/internal/postgres"
)

// Repo is the pgx-backed Repository. All reads and writes go through
// postgres.From so they join an open transaction when the context has one.
type Repo struct{ DB *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{DB: db} }

func (r *Repo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return postgres.WithTx(ctx, r.DB, fn)
}

func (r *Repo) GetBranch(ctx context.Context, branchID string) (Branch, error) {
	q := postgres.From(ctx, r.DB)

	var b Branch
	err := q.QueryRow(ctx, `
		SELECT id, code, name, address, active
		FROM branches WHERE id=$1`, branchID).
		Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidUUID(err) {
			return Branch{}, ErrBranchNotFound
		}
		return Branch{}, fmt.Errorf("get branch: %w", err)
	}
	return b, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	q := postgres.From(ctx, r.DB)

	var o Order
	var status string
	err := q.QueryRow(ctx, `
		SELECT id, product_id, user_id, branch_id, quantity, status, version, created_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.ProductID, &o.UserID, &o.BranchID, &o.Quantity, &status, &o.Version, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidUUID(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Status = Status(status)
	return o, nil
}

func (r *Repo) CreateOrder(ctx context.Context, o Order) error {
	q := postgres.From(ctx, r.DB)

	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, product_id, user_id, branch_id, quantity, status, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`,
		o.ID, o.ProductID, o.UserID, o.BranchID, o.Quantity, string(o.Status), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// UpdateOrderStatus bumps the version on every write; a stale version means a
// concurrent transaction got there first and the caller sees ErrConflict.
func (r *Repo) UpdateOrderStatus(ctx context.Context, orderID string, status Status, version int64) error {
	q := postgres.From(ctx, r.DB)

	ct, err := q.Exec(ctx, `
		UPDATE orders SET status=$2, version=version+1
		WHERE id=$1 AND version=$3`,
		orderID, string(status), version)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *Repo) DeleteOrder(ctx context.Context, orderID string) error {
	q := postgres.From(ctx, r.DB)

	ct, err := q.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repo) GetOrderView(ctx context.Context, orderID string) (OrderView, error) {
	q := postgres.From(ctx, r.DB)

	v, err := scanView(q.QueryRow(ctx, viewSelect+` WHERE o.id=$1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsInvalidUUID(err) {
			return OrderView{}, ErrOrderNotFound
		}
		return OrderView{}, fmt.Errorf("get order view: %w", err)
	}
	return v, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	q := postgres.From(ctx, r.DB)

	rows, err := q.Query(ctx, `
		SELECT id, name, quantity, active, COALESCE(category_id::text, ''), created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.Active, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const viewSelect = `
	SELECT o.id, o.product_id, o.branch_id, o.quantity, o.status, o.created_at,
	       b.id, b.code, b.name, b.active,
	       p.id, p.name
	FROM orders o
	JOIN branches b ON b.id = o.branch_id
	JOIN products p ON p.id = o.product_id`

func scanView(row pgx.Row) (OrderView, error) {
	var v OrderView
	var status string
	var b BranchSummary
	var p ProductSummary
	err := row.Scan(&v.ID, &v.ProductID, &v.BranchID, &v.Quantity, &status, &v.CreatedAt,
		&b.ID, &b.Code, &b.Name, &b.Active,
		&p.ID, &p.Name)
	if err != nil {
		return OrderView{}, err
	}
	v.Status = Status(status)
	v.Branch = &b
	v.Product = &p
	return v, nil
}
