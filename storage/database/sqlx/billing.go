// Package sqlxrepos implements the core repositories against PostgreSQL.
// Concurrency guarantees lean on the database: conditional UPDATEs for
// status transitions and row locks for balances.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sekolahku/sps/core/billing"
)

const transactionColumns = "id, student_id, order_id, payment_type, amount, invoice_id, payment_url, status, created_at"

type BillingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*BillingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// CreateBillType installs a fee schedule entry. Used by the admin CLI; the
// most recently created entry per category becomes the active one.
func (repo *BillingRepository) CreateBillType(bt billing.BillType) (billing.BillType, error) {
	_, err := repo.db.NamedExec(
		`INSERT INTO bill_type (id, name, category, amount, period, description, created_at)
		 VALUES (:id, :name, :category, :amount, :period, :description, :created_at)`, bt)
	if err != nil {
		return billing.BillType{}, errors.Wrap(err, "creating bill type")
	}
	return bt, nil
}

func (repo *BillingRepository) GetBillTypeByCategory(category billing.BillCategory) (billing.BillType, error) {
	var bt billing.BillType
	err := repo.db.Get(&bt,
		`SELECT id, name, category, amount, period, description, created_at
		 FROM bill_type WHERE category = $1
		 ORDER BY created_at DESC LIMIT 1`, category)
	if err == sql.ErrNoRows {
		return billing.BillType{}, billing.ErrFeeNotConfigured
	}
	if err != nil {
		return billing.BillType{}, errors.Wrap(err, "getting bill type")
	}
	return bt, nil
}

func (repo *BillingRepository) QueryBillTypes() ([]billing.BillType, error) {
	bts := make([]billing.BillType, 0)
	err := repo.db.Select(&bts,
		`SELECT id, name, category, amount, period, description, created_at
		 FROM bill_type ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying bill types")
	}
	return bts, nil
}

func (repo *BillingRepository) CreateTransaction(txn billing.Transaction) (billing.Transaction, error) {
	_, err := repo.db.NamedExec(
		`INSERT INTO transaction (id, student_id, order_id, payment_type, amount, invoice_id, payment_url, status, created_at)
		 VALUES (:id, :student_id, :order_id, :payment_type, :amount, :invoice_id, :payment_url, :status, :created_at)`, txn)
	if err != nil {
		return billing.Transaction{}, errors.Wrap(err, "creating transaction")
	}
	return txn, nil
}

func (repo *BillingRepository) GetTransactionByID(id string) (billing.Transaction, error) {
	var txn billing.Transaction
	err := repo.db.Get(&txn, "SELECT "+transactionColumns+" FROM transaction WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return billing.Transaction{}, billing.ErrTxnNotFound
	}
	if err != nil {
		return billing.Transaction{}, errors.Wrap(err, "getting transaction")
	}
	return txn, nil
}

func (repo *BillingRepository) GetTransactionByInvoiceID(invoiceID string) (billing.Transaction, error) {
	var txn billing.Transaction
	err := repo.db.Get(&txn, "SELECT "+transactionColumns+" FROM transaction WHERE invoice_id = $1", invoiceID)
	if err == sql.ErrNoRows {
		return billing.Transaction{}, billing.ErrTxnNotFound
	}
	if err != nil {
		return billing.Transaction{}, errors.Wrap(err, "getting transaction by invoice")
	}
	return txn, nil
}

func (repo *BillingRepository) QueryTransactionsByStudent(studentID string) ([]billing.Transaction, error) {
	txns := make([]billing.Transaction, 0)
	err := repo.db.Select(&txns,
		"SELECT "+transactionColumns+" FROM transaction WHERE student_id = $1 ORDER BY created_at DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}
	return txns, nil
}

// TransitionTransactionStatus flips a PENDING transaction to the given
// terminal status. The conditional UPDATE is the idempotency barrier: only
// one of any number of concurrent transitions can match the PENDING row.
func (repo *BillingRepository) TransitionTransactionStatus(id string, to billing.TransactionStatus) (billing.Transaction, error) {
	var txn billing.Transaction
	err := repo.db.Get(&txn,
		`UPDATE transaction SET status = $1 WHERE id = $2 AND status = 'PENDING'
		 RETURNING `+transactionColumns, to, id)
	if err == sql.ErrNoRows {
		// distinguish a missing row from a lost race
		if _, getErr := repo.GetTransactionByID(id); getErr != nil {
			return billing.Transaction{}, getErr
		}
		return billing.Transaction{}, billing.ErrAlreadyFinal
	}
	if err != nil {
		return billing.Transaction{}, errors.Wrap(err, "transitioning transaction")
	}
	return txn, nil
}
