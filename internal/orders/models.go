package orders

import "time"

type Product struct {
	ID         string
	Name       string
	Quantity   int64
	Active     bool
	CategoryID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Branch struct {
	ID      string
	Code    string
	Name    string
	Address string
	Active  bool
}

type User struct {
	ID       string
	Email    string
	Role     string
	BranchID string
}

// Order quantity is fixed at creation; only the status (and its version
// counter) change afterwards. Version backs the optimistic check on updates.
type Order struct {
	ID        string
	ProductID string
	UserID    string
	BranchID  string
	Quantity  int64
	Status    Status
	Version   int64
	CreatedAt time.Time
}

type BranchSummary struct {
	ID     string `json:"id"`
	Code   string `json:"branchCode"`
	Name   string `json:"branchName"`
	Active bool   `json:"active"`
}

type ProductSummary struct {
	ID   string `json:"id"`
	Name string `json:"productName"`
}

// OrderView is the fully populated read model returned by service operations.
type OrderView struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	BranchID  string          `json:"branchId"`
	Quantity  int64           `json:"quantity"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Branch    *BranchSummary  `json:"branch,omitempty"`
	Product   *ProductSummary `json:"product,omitempty"`
}

type Page[T any] struct {
	Content     []T   `json:"content"`
	CurrentPage int   `json:"currentPage"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	totalPages := int((total + int64(size) - 1) / int64(size))
	return Page[T]{
		Content:     content,
		CurrentPage: page,
		TotalItems:  total,
		TotalPages:  totalPages,
		PageSize:    size,
		HasNext:     page+1 < totalPages,
		HasPrevious: page > 0,
	}
}
