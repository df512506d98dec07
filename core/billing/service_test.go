package billing_test

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/sekolahku/sps/core"
	"github.com/sekolahku/sps/core/billing"
	"github.com/sekolahku/sps/core/student"
	"github.com/sekolahku/sps/core/uniform"
	paymentsvc "github.com/sekolahku/sps/services/payment"
	dummydb "github.com/sekolahku/sps/storage/database/dummy"
	testutil "github.com/sekolahku/sps/tests"
)

// mailRecorder captures outgoing notifications synchronously.
type mailRecorder struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

func (r *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		r.sent = append(r.sent, *m)
	}
}

func (r *mailRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type testEnv struct {
	billingRepo *dummydb.BillingRepository
	studentRepo *dummydb.StudentRepository
	uniformRepo *dummydb.UniformRepository
	provider    *paymentsvc.DummyService
	mail        *mailRecorder
	studentSvc  *student.Service
	uniformSvc  *uniform.Service
	svc         *billing.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dummydb.NewDB()
	log := testutil.NopLogger{}
	conf := &core.Config{
		AppName: "SPS",
		Xendit:  core.XenditConfig{Timeout: time.Second, InvoiceDuration: 86400},
	}

	env := &testEnv{
		billingRepo: dummydb.NewBillingRepository(db),
		studentRepo: dummydb.NewStudentRepository(db),
		uniformRepo: dummydb.NewUniformRepository(db),
		provider:    paymentsvc.NewDummyService(),
		mail:        &mailRecorder{},
	}
	env.studentSvc = student.NewService(env.studentRepo, log)
	env.uniformSvc = uniform.NewService(env.uniformRepo, log)
	env.svc = billing.NewService(
		env.billingRepo, env.provider, env.uniformSvc, env.studentSvc, env.studentSvc,
		env.mail, log, conf,
	)
	return env
}

func TestService_PaySPP(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "parent@test.test", time.Now().AddDate(0, -4, 0))

	txn, err := env.svc.PaySPP(stu.ID, 2)
	if err != nil {
		t.Fatalf("PaySPP() failed: %v", err)
	}

	assert.Equal(t, billing.StatusPending, txn.Status)
	assert.Equal(t, billing.PaymentSPP, txn.Type)
	assert.True(t, txn.Amount.Equal(testutil.Amount(t, "200000")))
	assert.NotEmpty(t, txn.InvoiceID)
	assert.NotEmpty(t, txn.PaymentURL)

	// persisted
	stored, err := env.billingRepo.GetTransactionByInvoiceID(txn.InvoiceID)
	if err != nil {
		t.Fatalf("GetTransactionByInvoiceID() failed: %v", err)
	}
	assert.Equal(t, txn.ID, stored.ID)
}

func TestService_PaySPP_feeNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	_, err := env.svc.PaySPP(stu.ID, 1)
	assert.Equal(t, billing.ErrFeeNotConfigured, errors.Cause(err))
}

func TestService_PaySPP_providerFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	env.provider.Err = errors.New("provider is down")
	if _, err := env.svc.PaySPP(stu.ID, 1); err == nil {
		t.Fatal("PaySPP() expected error, got nil")
	}

	txns, err := env.svc.History(stu.ID)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	assert.Empty(t, txns, "a failed issuance must not leave a PENDING transaction")
}

func TestService_PayMonthly(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategoryINFAQ, "25000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	txn, err := env.svc.PayMonthly(stu.ID, billing.CategoryINFAQ, 3)
	if err != nil {
		t.Fatalf("PayMonthly() failed: %v", err)
	}
	assert.Equal(t, billing.PaymentINFAQ, txn.Type)
	assert.True(t, txn.Amount.Equal(testutil.Amount(t, "75000")))

	// SPP is not payable through the monthly path
	_, err = env.svc.PayMonthly(stu.ID, billing.CategorySPP, 1)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestService_PayBills(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategoryINFAQ, "25000")
	testutil.CreateBillType(t, env.billingRepo, billing.CategoryKAS, "15000")
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	txn, err := env.svc.PayBills(stu.ID, billing.PayBills{Items: []billing.BillSelection{
		{Category: billing.CategoryINFAQ, Month: "2025-03"},
		{Category: billing.CategoryINFAQ, Month: "2025-04"},
		{Category: billing.CategoryKAS, Month: "2025-03"},
	}})
	if err != nil {
		t.Fatalf("PayBills() failed: %v", err)
	}
	assert.Equal(t, billing.PaymentINFAQ, txn.Type)
	assert.True(t, txn.Amount.Equal(testutil.Amount(t, "65000")), "got %s", txn.Amount)
}

func TestService_PayOrder(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUniform(t, env.uniformRepo, "Batik Shirt", "80000", 10)
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())

	order, err := env.uniformSvc.CreateOrder(stu.ID, uniform.NewOrder{
		Items: []uniform.NewOrderItem{{UniformID: u.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	// over the remaining balance
	_, err = env.svc.PayOrder(stu.ID, billing.NewOrderPayment{
		OrderID: order.ID,
		Amount:  testutil.Amount(t, "160001"),
	})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// partial payment is fine
	txn, err := env.svc.PayOrder(stu.ID, billing.NewOrderPayment{
		OrderID: order.ID,
		Amount:  testutil.Amount(t, "60000"),
	})
	if err != nil {
		t.Fatalf("PayOrder() failed: %v", err)
	}
	assert.Equal(t, billing.PaymentUniform, txn.Type)
	assert.Equal(t, order.ID, txn.OrderID)
	assert.True(t, txn.FundsOrder())
}

func TestService_History(t *testing.T) {
	env := newTestEnv(t)
	stu := testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now())
	now := time.Now().UTC()
	testutil.CreateTransaction(t, env.billingRepo, stu.ID, billing.PaymentSPP, "100000", billing.StatusPaid, now.Add(-2*time.Hour))
	testutil.CreateTransaction(t, env.billingRepo, stu.ID, billing.PaymentINFAQ, "25000", billing.StatusPaid, now.Add(-time.Hour))
	testutil.CreateTransaction(t, env.billingRepo, stu.ID, billing.PaymentSPP, "100000", billing.StatusPending, now)

	all, err := env.svc.History(stu.ID)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	assert.Len(t, all, 3)
	// newest first
	assert.Equal(t, billing.StatusPending, all[0].Status)

	spp, err := env.svc.History(stu.ID, billing.PaymentSPP)
	if err != nil {
		t.Fatalf("History(SPP) failed: %v", err)
	}
	assert.Len(t, spp, 2)
}

func TestService_ArrearsReport(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateBillType(t, env.billingRepo, billing.CategorySPP, "100000")

	// 5 active months, 2 paid -> 3 unpaid (critical)
	late := testutil.CreateStudent(t, env.studentRepo, "Late Payer", "", time.Now().AddDate(0, -4, 0))
	testutil.CreateTransaction(t, env.billingRepo, late.ID, billing.PaymentSPP, "200000", billing.StatusPaid)

	// fully paid -> not in the report
	good := testutil.CreateStudent(t, env.studentRepo, "Good Payer", "", time.Now().AddDate(0, -1, 0))
	testutil.CreateTransaction(t, env.billingRepo, good.ID, billing.PaymentSPP, "200000", billing.StatusPaid)

	// no registration date -> skipped
	testutil.CreateStudent(t, env.studentRepo, "Unregistered", "", time.Time{})

	report, err := env.svc.ArrearsReport()
	if err != nil {
		t.Fatalf("ArrearsReport() failed: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("ArrearsReport() returned %d rows, want 1", len(report))
	}
	assert.Equal(t, late.ID, report[0].StudentID)
	assert.Equal(t, 3, report[0].MonthsUnpaid)
	assert.True(t, report[0].TotalArrears.Equal(testutil.Amount(t, "300000")))
}

func TestService_ArrearsReport_noFeeConfigured(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateStudent(t, env.studentRepo, "Ahmad", "", time.Now().AddDate(0, -6, 0))

	report, err := env.svc.ArrearsReport()
	if err != nil {
		t.Fatalf("ArrearsReport() failed: %v", err)
	}
	assert.Empty(t, report)
}
