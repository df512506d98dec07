// Package testutil holds fixtures shared across package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sekolahku/sps/core"
	"github.com/sekolahku/sps/core/billing"
	"github.com/sekolahku/sps/core/student"
	"github.com/sekolahku/sps/core/uniform"
	dummydb "github.com/sekolahku/sps/storage/database/dummy"
)

func CreateStudent(
	t *testing.T,
	repo *dummydb.StudentRepository,
	name, parentEmail string,
	registeredAt time.Time,
) student.Student {
	t.Helper()

	stu := student.Student{
		ID:           uuid.NewString(),
		FullName:     name,
		ParentEmail:  parentEmail,
		RegisterDate: registeredAt,
		Status:       student.StatusActive,
	}
	repo.SetStudent(stu)
	return stu
}

func CreateBillType(
	t *testing.T,
	repo *dummydb.BillingRepository,
	category billing.BillCategory,
	amount string,
) billing.BillType {
	t.Helper()

	bt := billing.BillType{
		ID:        uuid.NewString(),
		Name:      string(category),
		Category:  category,
		Amount:    Amount(t, amount),
		Period:    billing.PeriodMonthly,
		CreatedAt: time.Now().UTC(),
	}
	repo.SetBillType(bt)
	return bt
}

func CreateUniform(
	t *testing.T,
	repo *dummydb.UniformRepository,
	name, price string,
	stock int,
) uniform.Uniform {
	t.Helper()

	u := uniform.Uniform{
		ID:    uuid.NewString(),
		Name:  name,
		Size:  uniform.SizeM,
		Price: Amount(t, price),
		Stock: stock,
	}
	repo.SetUniform(u)
	return u
}

func CreateTransaction(
	t *testing.T,
	repo *dummydb.BillingRepository,
	studentID string,
	typ billing.PaymentType,
	amount string,
	status billing.TransactionStatus,
	createdAt ...time.Time,
) billing.Transaction {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	txn, err := repo.CreateTransaction(billing.Transaction{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Type:      typ,
		Amount:    Amount(t, amount),
		InvoiceID: "inv-" + uuid.NewString(),
		Status:    status,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}
	return txn
}

// Amount parses a decimal literal, failing the test on malformed input.
func Amount(t *testing.T, raw string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("Amount(%q) failed: %v", raw, err)
	}
	return d
}

// NopLogger discards everything; it keeps test output clean.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
