package uniform_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sekolahku/sps/core/uniform"
	dummydb "github.com/sekolahku/sps/storage/database/dummy"
	testutil "github.com/sekolahku/sps/tests"
)

func newService(t *testing.T) (*uniform.Service, *dummydb.UniformRepository) {
	t.Helper()
	repo := dummydb.NewUniformRepository(dummydb.NewDB())
	return uniform.NewService(repo, testutil.NopLogger{}), repo
}

func TestPaymentStatusFor(t *testing.T) {
	tests := []struct {
		name  string
		paid  string
		total string
		want  uniform.PaymentStatus
	}{
		{name: "nothing paid", paid: "0", total: "100000", want: uniform.PaymentUnpaid},
		{name: "partially paid", paid: "40000", total: "100000", want: uniform.PaymentPartial},
		{name: "fully paid", paid: "100000", total: "100000", want: uniform.PaymentPaid},
		{name: "overpaid still paid", paid: "120000", total: "100000", want: uniform.PaymentPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniform.PaymentStatusFor(testutil.Amount(t, tt.paid), testutil.Amount(t, tt.total))
			if got != tt.want {
				t.Errorf("PaymentStatusFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestService_CreateOrder(t *testing.T) {
	svc, repo := newService(t)
	shirt := testutil.CreateUniform(t, repo, "Batik Shirt", "80000", 10)
	skirt := testutil.CreateUniform(t, repo, "Skirt", "60000", 4)

	order, err := svc.CreateOrder("student-1", uniform.NewOrder{Items: []uniform.NewOrderItem{
		{UniformID: shirt.ID, Quantity: 2},
		{UniformID: skirt.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	assert.True(t, order.TotalAmount.Equal(testutil.Amount(t, "220000")))
	assert.Equal(t, uniform.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, uniform.OrderPending, order.Status)
	assert.Len(t, order.Items, 2)
	// price is snapshotted per line
	assert.True(t, order.Items[0].PriceAtMoment.Equal(shirt.Price))
	assert.True(t, order.Items[0].SubTotal.Equal(testutil.Amount(t, "160000")))

	// stock reserved
	u, _ := repo.GetUniformByID(shirt.ID)
	assert.Equal(t, 8, u.Stock)
	u, _ = repo.GetUniformByID(skirt.ID)
	assert.Equal(t, 3, u.Stock)
}

func TestService_CreateOrder_allOrNothingStock(t *testing.T) {
	svc, repo := newService(t)
	shirt := testutil.CreateUniform(t, repo, "Batik Shirt", "80000", 10)
	skirt := testutil.CreateUniform(t, repo, "Skirt", "60000", 1)

	// second line cannot be satisfied
	_, err := svc.CreateOrder("student-1", uniform.NewOrder{Items: []uniform.NewOrderItem{
		{UniformID: shirt.ID, Quantity: 2},
		{UniformID: skirt.ID, Quantity: 3},
	}})

	var stockErr *uniform.StockError
	if !assert.ErrorAs(t, err, &stockErr) {
		t.FailNow()
	}
	assert.Equal(t, skirt.ID, stockErr.UniformID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// the first line's stock is untouched
	u, _ := repo.GetUniformByID(shirt.ID)
	assert.Equal(t, 10, u.Stock, "a rejected order must not consume stock")

	orders, _ := svc.OrdersForStudent("student-1")
	assert.Empty(t, orders)
}

func TestService_CreateOrder_concurrentLastUnit(t *testing.T) {
	svc, repo := newService(t)
	shirt := testutil.CreateUniform(t, repo, "Batik Shirt", "80000", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder("student", uniform.NewOrder{Items: []uniform.NewOrderItem{
				{UniformID: shirt.ID, Quantity: 1},
			}})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var stockErr *uniform.StockError
		if assert.ErrorAs(t, err, &stockErr) {
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one order may claim the last unit")
	assert.Equal(t, 1, lost)

	u, _ := repo.GetUniformByID(shirt.ID)
	assert.Equal(t, 0, u.Stock)
}

func TestService_UpdateStatus(t *testing.T) {
	svc, repo := newService(t)
	shirt := testutil.CreateUniform(t, repo, "Batik Shirt", "80000", 5)
	order, err := svc.CreateOrder("student-1", uniform.NewOrder{Items: []uniform.NewOrderItem{
		{UniformID: shirt.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	updated, err := svc.UpdateStatus(order.ID, uniform.OrderConfirmed)
	if err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}
	assert.Equal(t, uniform.OrderConfirmed, updated.Status)

	// unknown statuses are rejected
	if _, err := svc.UpdateStatus(order.ID, uniform.OrderStatus("SHIPPED")); err == nil {
		t.Error("UpdateStatus() accepted an unknown status")
	}
}

func TestService_Orders_filterByStatus(t *testing.T) {
	svc, repo := newService(t)
	shirt := testutil.CreateUniform(t, repo, "Batik Shirt", "80000", 10)

	first, _ := svc.CreateOrder("s1", uniform.NewOrder{Items: []uniform.NewOrderItem{{UniformID: shirt.ID, Quantity: 1}}})
	if _, err := svc.CreateOrder("s2", uniform.NewOrder{Items: []uniform.NewOrderItem{{UniformID: shirt.ID, Quantity: 1}}}); err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}
	if _, err := svc.UpdateStatus(first.ID, uniform.OrderConfirmed); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}

	pending := uniform.OrderPending
	orders, err := svc.Orders(&pending)
	if err != nil {
		t.Fatalf("Orders() failed: %v", err)
	}
	assert.Len(t, orders, 1)

	all, err := svc.Orders(nil)
	if err != nil {
		t.Fatalf("Orders(nil) failed: %v", err)
	}
	assert.Len(t, all, 2)
}

func TestService_ApplyFunding(t *testing.T) {
	svc, repo := newService(t)
	shirt := testutil.CreateUniform(t, repo, "Batik Shirt", "80000", 5)
	order, _ := svc.CreateOrder("s1", uniform.NewOrder{Items: []uniform.NewOrderItem{{UniformID: shirt.ID, Quantity: 2}}})

	if err := svc.ApplyFunding(order.ID, testutil.Amount(t, "60000")); err != nil {
		t.Fatalf("ApplyFunding() failed: %v", err)
	}
	got, _ := svc.GetOrder(order.ID)
	assert.Equal(t, uniform.PaymentPartial, got.PaymentStatus)
	assert.True(t, got.Remaining().Equal(testutil.Amount(t, "100000")))

	if err := svc.ApplyFunding(order.ID, testutil.Amount(t, "100000")); err != nil {
		t.Fatalf("ApplyFunding() failed: %v", err)
	}
	got, _ = svc.GetOrder(order.ID)
	assert.Equal(t, uniform.PaymentPaid, got.PaymentStatus)
	assert.True(t, got.Remaining().IsZero())
}
