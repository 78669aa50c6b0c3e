package orders

import (
	"fmt"
	"sort"
	"strings"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

// StockEffect tells the caller what the ledger must do alongside a transition.
type StockEffect int

const (
	StockNone StockEffect = iota
	StockRelease
)

var validNext = map[Status]map[Status]StockEffect{
	StatusPending: {
		StatusApproved:  StockNone,
		StatusRejected:  StockRelease,
		StatusCancelled: StockRelease,
	},
	StatusApproved: {
		StatusShipped:   StockNone,
		StatusCancelled: StockRelease,
	},
	StatusShipped: {
		StatusDelivered: StockNone,
	},
	StatusRejected:  {},
	StatusCancelled: {},
	StatusDelivered: {},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// Transition validates a status change and returns the ledger side effect.
// Requesting the current status is accepted as a no-op so retries stay safe.
// Pure logic: it never touches storage, the order service applies the effect.
func Transition(from, to Status) (StockEffect, error) {
	if from == to {
		return StockNone, nil
	}
	next, ok := validNext[from]
	if !ok {
		return StockNone, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	effect, ok := next[to]
	if !ok {
		if from.IsTerminal() {
			return StockNone, fmt.Errorf("%w: order is %s and can no longer change", ErrInvalidTransition, from)
		}
		return StockNone, fmt.Errorf("%w: cannot move from %s to %s, allowed: %s",
			ErrInvalidTransition, from, to, allowedList(next))
	}
	return effect, nil
}

func allowedList(next map[Status]StockEffect) string {
	names := make([]string, 0, len(next))
	for s := range next {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
