package billing_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sekolahku/sps/core/billing"
	"github.com/sekolahku/sps/core/student"
	"github.com/sekolahku/sps/core/uniform"
	testutil "github.com/sekolahku/sps/tests"
)

func TestService_Reconcile_paid(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "parent@test.test", time.Now())

	txn, err := env.svc.PaySPP(stu.ID, 1)
	if err != nil {
		t.Fatalf("PaySPP() failed: %v", err)
	}

	if err := env.svc.Reconcile(txn.InvoiceID, "PAID"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	stored, err := env.billingRepo.GetTransactionByID(txn.ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() failed: %v", err)
	}
	assert.Equal(t, billing.StatusPaid, stored.Status)
	assert.Equal(t, 1, env.mail.count(), "a receipt should go out on settlement")
}

func TestService_Reconcile_settledMapsToPaid(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	txn, _ := env.svc.PaySPP(stu.ID, 1)
	if err := env.svc.Reconcile(txn.InvoiceID, "SETTLED"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	stored, _ := env.billingRepo.GetTransactionByID(txn.ID)
	assert.Equal(t, billing.StatusPaid, stored.Status)
}

func TestService_Reconcile_duplicateDelivery(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "parent@test.test", time.Now())

	txn, _ := env.svc.PaySPP(stu.ID, 1)
	for i := 0; i < 3; i++ {
		if err := env.svc.Reconcile(txn.InvoiceID, "PAID"); err != nil {
			t.Fatalf("Reconcile() #%d failed: %v", i+1, err)
		}
	}
	assert.Equal(t, 1, env.mail.count(), "duplicate deliveries must not renotify")
}

func TestService_Reconcile_conflictingTerminalStatus(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	txn, _ := env.svc.PaySPP(stu.ID, 1)
	if err := env.svc.Reconcile(txn.InvoiceID, "PAID"); err != nil {
		t.Fatalf("Reconcile(PAID) failed: %v", err)
	}
	// a late EXPIRED must not undo the settlement
	if err := env.svc.Reconcile(txn.InvoiceID, "EXPIRED"); err != nil {
		t.Fatalf("Reconcile(EXPIRED) failed: %v", err)
	}

	stored, _ := env.billingRepo.GetTransactionByID(txn.ID)
	assert.Equal(t, billing.StatusPaid, stored.Status)
}

func TestService_Reconcile_expired(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "parent@test.test", time.Now())

	txn, _ := env.svc.PaySPP(stu.ID, 1)
	if err := env.svc.Reconcile(txn.InvoiceID, "EXPIRED"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	stored, _ := env.billingRepo.GetTransactionByID(txn.ID)
	assert.Equal(t, billing.StatusExpired, stored.Status)
	assert.Equal(t, 0, env.mail.count(), "expiry must not send a receipt")
}

func TestService_Reconcile_unknownStatusIgnored(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	txn, _ := env.svc.PaySPP(stu.ID, 1)
	if err := env.svc.Reconcile(txn.InvoiceID, "REFUNDED"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	stored, _ := env.billingRepo.GetTransactionByID(txn.ID)
	assert.Equal(t, billing.StatusPending, stored.Status)
}

func TestService_Reconcile_fundsOrderExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUniform(t, env.uniformRepo, "Batik Shirt", "80000", 5)
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	order, err := env.uniformSvc.CreateOrder(stu.ID, uniform.NewOrder{
		Items: []uniform.NewOrderItem{{UniformID: u.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	txn, err := env.svc.PayOrder(stu.ID, billing.NewOrderPayment{
		OrderID: order.ID,
		Amount:  testutil.Amount(t, "80000"),
	})
	if err != nil {
		t.Fatalf("PayOrder() failed: %v", err)
	}

	// hammer the webhook path with concurrent duplicate deliveries
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.svc.Reconcile(txn.InvoiceID, "PAID")
		}()
	}
	wg.Wait()

	funded, err := env.uniformSvc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("GetOrder() failed: %v", err)
	}
	if !funded.TotalPaid.Equal(testutil.Amount(t, "80000")) {
		t.Errorf("TotalPaid = %s, want 80000 (credited exactly once)", funded.TotalPaid)
	}
	assert.Equal(t, uniform.PaymentPaid, funded.PaymentStatus)
}

func TestService_Reconcile_partialFundingLeavesPartialStatus(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUniform(t, env.uniformRepo, "Sports Kit", "100000", 5)
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	order, _ := env.uniformSvc.CreateOrder(stu.ID, uniform.NewOrder{
		Items: []uniform.NewOrderItem{{UniformID: u.ID, Quantity: 2}},
	})
	txn, err := env.svc.PayOrder(stu.ID, billing.NewOrderPayment{
		OrderID: order.ID,
		Amount:  testutil.Amount(t, "50000"),
	})
	if err != nil {
		t.Fatalf("PayOrder() failed: %v", err)
	}
	if err := env.svc.Reconcile(txn.InvoiceID, "PAID"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	funded, _ := env.uniformSvc.GetOrder(order.ID)
	assert.Equal(t, uniform.PaymentPartial, funded.PaymentStatus)
	assert.True(t, funded.Remaining().Equal(testutil.Amount(t, "150000")))
}

func TestService_Reconcile_legacyRegistrationFallback(t *testing.T) {
	env := newTestEnv(t)

	stu := testutil.CreateStudent(t, env.studentRepo, "Budi", "", time.Time{})
	stu.Status = student.StatusPendingPayment
	stu.InvoiceID = "legacy-inv-1"
	env.studentRepo.SetStudent(stu)

	if err := env.svc.Reconcile("legacy-inv-1", "PAID"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	updated, err := env.studentSvc.GetByID(stu.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.Equal(t, student.StatusRegistered, updated.Status)
	assert.Equal(t, "PAID", updated.PaymentStatus)
}

func TestService_Reconcile_unknownInvoiceIsNoop(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.Reconcile("no-such-invoice", "PAID"); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
}
