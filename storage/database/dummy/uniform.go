package dummydb

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sekolahku/sps/core/uniform"
)

type UniformRepository struct {
	db *uniformTable
}

var _ uniform.Repository = (*UniformRepository)(nil) // interface compliance check

func NewUniformRepository(db *DB) *UniformRepository {
	return &UniformRepository{db: db.uniforms}
}

// SetUniform installs or replaces a catalog entry (test/seed helper; catalog
// administration is out of scope).
func (repo *UniformRepository) SetUniform(u uniform.Uniform) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.uniforms[u.ID] = &u
}

func (repo *UniformRepository) QueryAvailableUniforms() ([]uniform.Uniform, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	uniforms := make([]uniform.Uniform, 0, len(repo.db.uniforms))
	for _, u := range repo.db.uniforms {
		if u.Stock > 0 {
			uniforms = append(uniforms, *u)
		}
	}
	sort.Slice(uniforms, func(i, j int) bool { return uniforms[i].Name < uniforms[j].Name })
	return uniforms, nil
}

func (repo *UniformRepository) GetUniformByID(id string) (uniform.Uniform, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if u, ok := repo.db.uniforms[id]; ok {
		return *u, nil
	}
	return uniform.Uniform{}, uniform.ErrUniformNotFound
}

// PlaceOrder checks every line against current stock and only then
// decrements, all under the table's write lock: two concurrent orders for
// the same limited-stock uniform can never both pass the check.
func (repo *UniformRepository) PlaceOrder(order uniform.Order) (uniform.Order, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, item := range order.Items {
		u, ok := repo.db.uniforms[item.UniformID]
		if !ok {
			return uniform.Order{}, uniform.ErrUniformNotFound
		}
		if u.Stock < item.Quantity {
			return uniform.Order{}, &uniform.StockError{
				UniformID: u.ID,
				Name:      u.Name,
				Requested: item.Quantity,
				Available: u.Stock,
			}
		}
	}
	for _, item := range order.Items {
		repo.db.uniforms[item.UniformID].Stock -= item.Quantity
	}
	repo.db.orders[order.ID] = &order
	return order, nil
}

func (repo *UniformRepository) GetOrderByID(id string) (uniform.Order, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.orders[id]; ok {
		return *o, nil
	}
	return uniform.Order{}, uniform.ErrOrderNotFound
}

func (repo *UniformRepository) QueryOrdersByStudent(studentID string) ([]uniform.Order, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	orders := make([]uniform.Order, 0)
	for _, o := range repo.db.orders {
		if o.StudentID == studentID {
			orders = append(orders, *o)
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (repo *UniformRepository) QueryOrders(status *uniform.OrderStatus) ([]uniform.Order, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	orders := make([]uniform.Order, 0, len(repo.db.orders))
	for _, o := range repo.db.orders {
		if status == nil || o.Status == *status {
			orders = append(orders, *o)
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (repo *UniformRepository) UpdateOrderStatus(id string, status uniform.OrderStatus) (uniform.Order, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	o, ok := repo.db.orders[id]
	if !ok {
		return uniform.Order{}, uniform.ErrOrderNotFound
	}
	o.Status = status
	return *o, nil
}

func (repo *UniformRepository) CreditOrder(id string, amount decimal.Decimal) (uniform.Order, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	o, ok := repo.db.orders[id]
	if !ok {
		return uniform.Order{}, uniform.ErrOrderNotFound
	}
	o.TotalPaid = o.TotalPaid.Add(amount)
	o.PaymentStatus = uniform.PaymentStatusFor(o.TotalPaid, o.TotalAmount)
	return *o, nil
}

func sortOrders(orders []uniform.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
}
