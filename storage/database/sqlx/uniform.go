package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sekolahku/sps/core/uniform"
)

const (
	uniformColumns   = "id, name, size, price, stock, description, image_url"
	orderColumns     = "id, student_id, order_date, total_amount, total_paid, payment_status, order_status"
	orderItemColumns = "id, order_id, uniform_id, uniform_name, quantity, price_at_moment, sub_total"
)

type UniformRepository struct {
	db *sqlx.DB
}

var _ uniform.Repository = (*UniformRepository)(nil) // interface compliance check

func NewUniformRepository(db *sqlx.DB) *UniformRepository {
	return &UniformRepository{db: db}
}

func (repo *UniformRepository) QueryAvailableUniforms() ([]uniform.Uniform, error) {
	uniforms := make([]uniform.Uniform, 0)
	err := repo.db.Select(&uniforms,
		"SELECT "+uniformColumns+" FROM uniform WHERE stock > 0 ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "querying uniforms")
	}
	return uniforms, nil
}

func (repo *UniformRepository) GetUniformByID(id string) (uniform.Uniform, error) {
	var u uniform.Uniform
	err := repo.db.Get(&u, "SELECT "+uniformColumns+" FROM uniform WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return uniform.Uniform{}, uniform.ErrUniformNotFound
	}
	if err != nil {
		return uniform.Uniform{}, errors.Wrap(err, "getting uniform")
	}
	return u, nil
}

// PlaceOrder reserves stock and persists the order in one database
// transaction. Each line is a conditional decrement (stock >= quantity); the
// first line that cannot be satisfied rolls everything back, so a partial
// reservation is never observable.
func (repo *UniformRepository) PlaceOrder(order uniform.Order) (uniform.Order, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range order.Items {
		res, err := tx.Exec(
			"UPDATE uniform SET stock = stock - $1 WHERE id = $2 AND stock >= $1",
			item.Quantity, item.UniformID)
		if err != nil {
			return uniform.Order{}, errors.Wrap(err, "reserving stock")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return uniform.Order{}, errors.Wrap(err, "reserving stock")
		}
		if n == 0 {
			var u uniform.Uniform
			err = tx.Get(&u, "SELECT "+uniformColumns+" FROM uniform WHERE id = $1", item.UniformID)
			if err == sql.ErrNoRows {
				return uniform.Order{}, uniform.ErrUniformNotFound
			}
			if err != nil {
				return uniform.Order{}, errors.Wrap(err, "checking stock")
			}
			return uniform.Order{}, &uniform.StockError{
				UniformID: u.ID,
				Name:      u.Name,
				Requested: item.Quantity,
				Available: u.Stock,
			}
		}
	}

	_, err = tx.NamedExec(
		`INSERT INTO uniform_order (id, student_id, order_date, total_amount, total_paid, payment_status, order_status)
		 VALUES (:id, :student_id, :order_date, :total_amount, :total_paid, :payment_status, :order_status)`, order)
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "creating order")
	}
	for _, item := range order.Items {
		_, err = tx.NamedExec(
			`INSERT INTO uniform_order_item (id, order_id, uniform_id, uniform_name, quantity, price_at_moment, sub_total)
			 VALUES (:id, :order_id, :uniform_id, :uniform_name, :quantity, :price_at_moment, :sub_total)`, item)
		if err != nil {
			return uniform.Order{}, errors.Wrap(err, "creating order item")
		}
	}

	if err = tx.Commit(); err != nil {
		return uniform.Order{}, errors.Wrap(err, "committing order")
	}
	return order, nil
}

func (repo *UniformRepository) GetOrderByID(id string) (uniform.Order, error) {
	var order uniform.Order
	err := repo.db.Get(&order, "SELECT "+orderColumns+" FROM uniform_order WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return uniform.Order{}, uniform.ErrOrderNotFound
	}
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "getting order")
	}
	if err = repo.loadItems(&order); err != nil {
		return uniform.Order{}, err
	}
	return order, nil
}

func (repo *UniformRepository) QueryOrdersByStudent(studentID string) ([]uniform.Order, error) {
	orders := make([]uniform.Order, 0)
	err := repo.db.Select(&orders,
		"SELECT "+orderColumns+" FROM uniform_order WHERE student_id = $1 ORDER BY order_date DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying orders")
	}
	return repo.withItems(orders)
}

func (repo *UniformRepository) QueryOrders(status *uniform.OrderStatus) ([]uniform.Order, error) {
	orders := make([]uniform.Order, 0)
	var err error
	if status == nil {
		err = repo.db.Select(&orders, "SELECT "+orderColumns+" FROM uniform_order ORDER BY order_date DESC")
	} else {
		err = repo.db.Select(&orders,
			"SELECT "+orderColumns+" FROM uniform_order WHERE order_status = $1 ORDER BY order_date DESC", *status)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying orders")
	}
	return repo.withItems(orders)
}

func (repo *UniformRepository) UpdateOrderStatus(id string, status uniform.OrderStatus) (uniform.Order, error) {
	var order uniform.Order
	err := repo.db.Get(&order,
		`UPDATE uniform_order SET order_status = $1 WHERE id = $2
		 RETURNING `+orderColumns, status, id)
	if err == sql.ErrNoRows {
		return uniform.Order{}, uniform.ErrOrderNotFound
	}
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "updating order status")
	}
	if err = repo.loadItems(&order); err != nil {
		return uniform.Order{}, err
	}
	return order, nil
}

// CreditOrder adds amount to the paid total and rederives the payment status.
// The order row is locked for the duration, so concurrent credits apply one
// after the other against current totals.
func (repo *UniformRepository) CreditOrder(id string, amount decimal.Decimal) (uniform.Order, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var order uniform.Order
	err = tx.Get(&order, "SELECT "+orderColumns+" FROM uniform_order WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return uniform.Order{}, uniform.ErrOrderNotFound
	}
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "locking order")
	}

	order.TotalPaid = order.TotalPaid.Add(amount)
	order.PaymentStatus = uniform.PaymentStatusFor(order.TotalPaid, order.TotalAmount)
	_, err = tx.Exec(
		"UPDATE uniform_order SET total_paid = $1, payment_status = $2 WHERE id = $3",
		order.TotalPaid, order.PaymentStatus, id)
	if err != nil {
		return uniform.Order{}, errors.Wrap(err, "crediting order")
	}

	if err = tx.Commit(); err != nil {
		return uniform.Order{}, errors.Wrap(err, "committing credit")
	}
	if err = repo.loadItems(&order); err != nil {
		return uniform.Order{}, err
	}
	return order, nil
}

func (repo *UniformRepository) loadItems(order *uniform.Order) error {
	items := make([]uniform.OrderItem, 0)
	err := repo.db.Select(&items,
		"SELECT "+orderItemColumns+" FROM uniform_order_item WHERE order_id = $1 ORDER BY uniform_name", order.ID)
	if err != nil {
		return errors.Wrap(err, "querying order items")
	}
	order.Items = items
	return nil
}

func (repo *UniformRepository) withItems(orders []uniform.Order) ([]uniform.Order, error) {
	for i := range orders {
		if err := repo.loadItems(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
