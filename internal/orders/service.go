package orders

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anasol/cafe-orders/internal/clock"
)

// Repository is the persistence surface the service needs. WithTx must run fn
// as one atomic unit; every other method joins an open transaction when the
// context carries one.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBranch(ctx context.Context, branchID string) (Branch, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	CreateOrder(ctx context.Context, o Order) error
	// UpdateOrderStatus must fail with ErrConflict when the stored version no
	// longer matches, so racing updates surface as retryable conflicts.
	UpdateOrderStatus(ctx context.Context, orderID string, status Status, version int64) error
	DeleteOrder(ctx context.Context, orderID string) error
	GetOrderView(ctx context.Context, orderID string) (OrderView, error)
	ListOrders(ctx context.Context, f Filter, p PageRequest) (Page[OrderView], error)
}

// StockLedger reserves and releases product stock inside the caller's
// transaction. Implemented by inventory.Ledger.
type StockLedger interface {
	Reserve(ctx context.Context, productID string, qty int64) (int64, error)
	Release(ctx context.Context, productID string, qty int64) (int64, error)
}

type Service struct {
	repo   Repository
	ledger StockLedger
	clock  clock.Clock
	log    *zap.Logger
	pub    Publisher
}

func NewService(repo Repository, ledger StockLedger, clk clock.Clock, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{repo: repo, ledger: ledger, clock: clk, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ServiceOption func(*Service)

// WithPublisher emits domain events after successful commits.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.pub = p }
}

type PlaceOrderInput struct {
	BranchID  string
	ProductID string
	Quantity  int64
}

// PlaceOrder reserves stock and creates a PENDING order as one atomic unit.
// The reservation holds a row lock on the product until commit, so concurrent
// placements against the same product serialize and can never oversell. If
// anything after the reservation fails the whole transaction rolls back and
// the stock decrement is undone with it.
func (s *Service) PlaceOrder(ctx context.Context, user User, in PlaceOrderInput) (OrderView, error) {
	if err := validatePlaceOrder(in); err != nil {
		return OrderView{}, err
	}
	if user.ID == "" {
		return OrderView{}, ErrUnauthenticated
	}

	var view OrderView
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetBranch(txCtx, in.BranchID); err != nil {
			return err
		}

		remaining, err := s.ledger.Reserve(txCtx, in.ProductID, in.Quantity)
		if err != nil {
			return err
		}

		order := Order{
			ID:        uuid.NewString(),
			ProductID: in.ProductID,
			UserID:    user.ID,
			BranchID:  in.BranchID,
			Quantity:  in.Quantity,
			Status:    StatusPending,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		s.log.Info("order placed",
			zap.String("order_id", order.ID),
			zap.String("user_id", user.ID),
			zap.String("product_id", in.ProductID),
			zap.Int64("quantity", in.Quantity),
			zap.Int64("stock_remaining", remaining))

		view, err = s.repo.GetOrderView(txCtx, order.ID)
		return err
	})
	if err != nil {
		s.log.Warn("place order failed", zap.String("product_id", in.ProductID), zap.Error(err))
		return OrderView{}, wrapErr("PlaceOrder", err)
	}
	if s.pub != nil {
		s.pub.OrderPlaced(view, user)
	}
	return view, nil
}

// GetOrder returns the populated view of a single order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (OrderView, error) {
	view, err := s.repo.GetOrderView(ctx, orderID)
	if err != nil {
		return OrderView{}, wrapErr("GetOrder", err)
	}
	return view, nil
}

// UpdateStatus moves an order along the lifecycle. Transitions that imply a
// release credit the product back in the same transaction as the status write.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, target Status) (OrderView, error) {
	return s.transition(ctx, orderID, target, nil)
}

// CancelMyOrder is the self-service cancel; the order must belong to user.
func (s *Service) CancelMyOrder(ctx context.Context, user User, orderID string) (OrderView, error) {
	if user.ID == "" {
		return OrderView{}, ErrUnauthenticated
	}
	return s.transition(ctx, orderID, StatusCancelled, &user)
}

// ReceiveMyOrder marks the caller's shipped order as delivered.
func (s *Service) ReceiveMyOrder(ctx context.Context, user User, orderID string) (OrderView, error) {
	if user.ID == "" {
		return OrderView{}, ErrUnauthenticated
	}
	return s.transition(ctx, orderID, StatusDelivered, &user)
}

func (s *Service) transition(ctx context.Context, orderID string, target Status, owner *User) (OrderView, error) {
	if orderID == "" {
		return OrderView{}, wrapValidation("order id is required")
	}

	var view OrderView
	var from Status
	var released bool
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrder(txCtx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if owner != nil && order.UserID != owner.ID {
			return ErrForbidden
		}

		effect, err := Transition(order.Status, target)
		if err != nil {
			return err
		}

		if order.Status != target {
			if effect == StockRelease {
				restored, err := s.ledger.Release(txCtx, order.ProductID, order.Quantity)
				if err != nil {
					return err
				}
				released = true
				s.log.Info("stock restored",
					zap.String("order_id", order.ID),
					zap.String("product_id", order.ProductID),
					zap.Int64("quantity", order.Quantity),
					zap.Int64("stock_now", restored))
			}
			if err := s.repo.UpdateOrderStatus(txCtx, order.ID, target, order.Version); err != nil {
				return err
			}
			s.log.Info("order status updated",
				zap.String("order_id", order.ID),
				zap.String("from", string(order.Status)),
				zap.String("to", string(target)))
		}

		view, err = s.repo.GetOrderView(txCtx, order.ID)
		return err
	})
	if err != nil {
		s.log.Warn("status update failed",
			zap.String("order_id", orderID),
			zap.String("target", string(target)),
			zap.Error(err))
		return OrderView{}, wrapErr("UpdateStatus", err)
	}
	if s.pub != nil && from != target {
		s.pub.StatusChanged(orderID, from, target, released)
	}
	return view, nil
}

// DeleteOrder is the administrative hard delete. It bypasses the state
// machine and performs no stock reconciliation; any reservation the order
// still holds is lost. Kept deliberately outside the normal lifecycle.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return wrapValidation("order id is required")
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetOrder(txCtx, orderID); err != nil {
			return err
		}
		return s.repo.DeleteOrder(txCtx, orderID)
	})
	if err != nil {
		return wrapErr("DeleteOrder", err)
	}
	s.log.Info("order deleted", zap.String("order_id", orderID))
	return nil
}

// List returns a read-side projection of orders; no locks are taken.
func (s *Service) List(ctx context.Context, f Filter, p PageRequest) (Page[OrderView], error) {
	p = p.Normalized()
	page, err := s.repo.ListOrders(ctx, f, p)
	if err != nil {
		return Page[OrderView]{}, wrapErr("List", err)
	}
	return page, nil
}

func validatePlaceOrder(in PlaceOrderInput) error {
	switch {
	case in.BranchID == "":
		return wrapValidation("branch id is required")
	case in.ProductID == "":
		return wrapValidation("product id is required")
	case in.Quantity <= 0:
		return wrapValidation("quantity must be greater than zero")
	}
	return nil
}
