package orders

import "strings"

// Filter narrows a listing; zero values mean "any".
type Filter struct {
	Status   Status
	UserID   string
	BranchID string
}

type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// sortColumns whitelists caller-supplied sort fields against the orders table.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"status":    "status",
	"quantity":  "quantity",
	"id":        "id",
}

// Normalized applies the listing defaults: page 0, size 10, newest first.
func (p PageRequest) Normalized() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	if _, ok := sortColumns[p.SortBy]; !ok {
		p.SortBy = "createdAt"
	}
	if strings.EqualFold(p.Direction, "asc") {
		p.Direction = "asc"
	} else {
		p.Direction = "desc"
	}
	return p
}

func (p PageRequest) orderByClause() string {
	col := sortColumns[p.SortBy]
	if col == "" {
		col = "created_at"
	}
	dir := "DESC"
	if p.Direction == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}
