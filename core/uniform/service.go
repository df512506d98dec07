package uniform

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sekolahku/sps/core"
)

var (
	// errors
	ErrUniformNotFound = errors.New("uniform not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrBadOrderStatus  = errors.New("unknown order status")
)

type (
	Repository interface {
		// QueryAvailableUniforms lists uniforms with stock > 0.
		QueryAvailableUniforms() ([]Uniform, error)
		GetUniformByID(id string) (Uniform, error)

		// PlaceOrder atomically reserves stock for every line of the order
		// and persists it. A shortfall on any line is reported as
		// *StockError and leaves all stock untouched. Reservations for the
		// same uniform serialize, so concurrent orders can never jointly
		// oversell.
		PlaceOrder(order Order) (Order, error)

		GetOrderByID(id string) (Order, error)
		// QueryOrdersByStudent returns the student's orders, newest first.
		QueryOrdersByStudent(studentID string) ([]Order, error)
		// QueryOrders returns all orders, newest first, optionally filtered
		// by fulfillment status.
		QueryOrders(status *OrderStatus) ([]Order, error)
		UpdateOrderStatus(id string, status OrderStatus) (Order, error)
		// CreditOrder adds amount to the order's paid total and derives the
		// payment status from the new totals, serialized per order.
		CreditOrder(id string, amount decimal.Decimal) (Order, error)
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// AvailableUniforms lists the catalog entries that can still be ordered.
func (svc *Service) AvailableUniforms() ([]Uniform, error) {
	return svc.repo.QueryAvailableUniforms()
}

// CreateOrder prices the requested lines against the current catalog,
// snapshots per-line prices, and places the order with an all-or-nothing
// stock reservation.
func (svc *Service) CreateOrder(studentID string, req NewOrder) (Order, error) {
	order := Order{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		OrderDate:     time.Now().UTC(),
		TotalAmount:   decimal.Zero,
		TotalPaid:     decimal.Zero,
		PaymentStatus: PaymentUnpaid,
		Status:        OrderPending,
	}

	for _, line := range req.Items {
		u, err := svc.repo.GetUniformByID(line.UniformID)
		if err != nil {
			return Order{}, err
		}
		subTotal := u.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, OrderItem{
			ID:            uuid.NewString(),
			OrderID:       order.ID,
			UniformID:     u.ID,
			UniformName:   u.Name,
			Quantity:      line.Quantity,
			PriceAtMoment: u.Price,
			SubTotal:      subTotal,
		})
		order.TotalAmount = order.TotalAmount.Add(subTotal)
	}

	placed, err := svc.repo.PlaceOrder(order)
	if err != nil {
		return Order{}, err
	}
	svc.log.Info(fmt.Sprintf("created uniform order %s for student %s, total %s",
		placed.ID, studentID, placed.TotalAmount))
	return placed, nil
}

func (svc *Service) GetOrder(id string) (Order, error) {
	return svc.repo.GetOrderByID(id)
}

// OrdersForStudent lists the student's orders, newest first.
func (svc *Service) OrdersForStudent(studentID string) ([]Order, error) {
	return svc.repo.QueryOrdersByStudent(studentID)
}

// Orders lists all orders, optionally filtered by fulfillment status.
func (svc *Service) Orders(status *OrderStatus) ([]Order, error) {
	if status != nil && !ValidOrderStatus(*status) {
		return nil, core.NewValidationError(ErrBadOrderStatus,
			core.FieldError{Field: "status", Error: ErrBadOrderStatus.Error()})
	}
	return svc.repo.QueryOrders(status)
}

// UpdateStatus advances an order's fulfillment status.
func (svc *Service) UpdateStatus(id string, status OrderStatus) (Order, error) {
	if !ValidOrderStatus(status) {
		return Order{}, core.NewValidationError(ErrBadOrderStatus,
			core.FieldError{Field: "status", Error: ErrBadOrderStatus.Error()})
	}
	order, err := svc.repo.UpdateOrderStatus(id, status)
	if err != nil {
		return Order{}, err
	}
	svc.log.Info(fmt.Sprintf("order %s fulfillment status is now %s", id, status))
	return order, nil
}

// RemainingPayable reports how much of the order's total is still unfunded.
func (svc *Service) RemainingPayable(orderID string) (decimal.Decimal, error) {
	order, err := svc.repo.GetOrderByID(orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return order.Remaining(), nil
}

// ApplyFunding credits a settled payment to the order. Callers guarantee the
// amount belongs to a transaction settling exactly once; crediting is
// serialized per order by the repository.
func (svc *Service) ApplyFunding(orderID string, amount decimal.Decimal) error {
	order, err := svc.repo.CreditOrder(orderID, amount)
	if err != nil {
		return err
	}
	svc.log.Info(fmt.Sprintf("order %s credited %s; paid %s of %s (%s)",
		orderID, amount, order.TotalPaid, order.TotalAmount, order.PaymentStatus))
	return nil
}
