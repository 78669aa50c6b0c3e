package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/anasol/cafe-orders/internal/postgres"
)

// ListOrders pages over the order views matching f. Plain reads, no locks.
func (r *Repo) ListOrders(ctx context.Context, f Filter, p PageRequest) (Page[OrderView], error) {
	q := postgres.From(ctx, r.DB)

	where, args := buildWhere(f)

	var total int64
	countSQL := `SELECT COUNT(*) FROM orders o` + where
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return Page[OrderView]{}, fmt.Errorf("count orders: %w", err)
	}

	listSQL := fmt.Sprintf("%s%s ORDER BY o.%s LIMIT $%d OFFSET $%d",
		viewSelect, where, p.orderByClause(), len(args)+1, len(args)+2)
	args = append(args, p.Size, p.Page*p.Size)

	rows, err := q.Query(ctx, listSQL, args...)
	if err != nil {
		return Page[OrderView]{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	content := make([]OrderView, 0, p.Size)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return Page[OrderView]{}, fmt.Errorf("scan order view: %w", err)
		}
		content = append(content, v)
	}
	if err := rows.Err(); err != nil {
		return Page[OrderView]{}, fmt.Errorf("list orders: %w", err)
	}

	return NewPage(content, p.Page, p.Size, total), nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("o.status = $%d", string(f.Status))
	}
	if f.UserID != "" {
		add("o.user_id = $%d", f.UserID)
	}
	if f.BranchID != "" {
		add("o.branch_id = $%d", f.BranchID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
