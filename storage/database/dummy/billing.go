package dummydb

import (
	"sort"

	"github.com/sekolahku/sps/core/billing"
)

type BillingRepository struct {
	billTypes    *billTypeTable
	transactions *transactionTable
}

var _ billing.Repository = (*BillingRepository)(nil) // interface compliance check

func NewBillingRepository(db *DB) *BillingRepository {
	return &BillingRepository{billTypes: db.billTypes, transactions: db.transactions}
}

// SetBillType installs or replaces a fee schedule entry (test/seed helper;
// fee administration itself is out of scope).
func (repo *BillingRepository) SetBillType(bt billing.BillType) {
	repo.billTypes.Lock()
	defer repo.billTypes.Unlock()
	repo.billTypes.table[bt.ID] = &bt
}

func (repo *BillingRepository) GetBillTypeByCategory(category billing.BillCategory) (billing.BillType, error) {
	repo.billTypes.RLock()
	defer repo.billTypes.RUnlock()

	var found *billing.BillType
	for _, bt := range repo.billTypes.table {
		if bt.Category != category {
			continue
		}
		if found == nil || bt.CreatedAt.After(found.CreatedAt) {
			found = bt // most recently created entry wins
		}
	}
	if found == nil {
		return billing.BillType{}, billing.ErrFeeNotConfigured
	}
	return *found, nil
}

func (repo *BillingRepository) QueryBillTypes() ([]billing.BillType, error) {
	repo.billTypes.RLock()
	defer repo.billTypes.RUnlock()

	bts := make([]billing.BillType, 0, len(repo.billTypes.table))
	for _, bt := range repo.billTypes.table {
		bts = append(bts, *bt)
	}
	sort.Slice(bts, func(i, j int) bool { return bts[i].Name < bts[j].Name })
	return bts, nil
}

func (repo *BillingRepository) CreateTransaction(txn billing.Transaction) (billing.Transaction, error) {
	repo.transactions.Lock()
	defer repo.transactions.Unlock()

	repo.transactions.table[txn.ID] = &txn
	return txn, nil
}

func (repo *BillingRepository) GetTransactionByID(id string) (billing.Transaction, error) {
	repo.transactions.RLock()
	defer repo.transactions.RUnlock()

	if txn, ok := repo.transactions.table[id]; ok {
		return *txn, nil
	}
	return billing.Transaction{}, billing.ErrTxnNotFound
}

func (repo *BillingRepository) GetTransactionByInvoiceID(invoiceID string) (billing.Transaction, error) {
	repo.transactions.RLock()
	defer repo.transactions.RUnlock()

	for _, txn := range repo.transactions.table {
		if txn.InvoiceID == invoiceID {
			return *txn, nil
		}
	}
	return billing.Transaction{}, billing.ErrTxnNotFound
}

func (repo *BillingRepository) QueryTransactionsByStudent(studentID string) ([]billing.Transaction, error) {
	repo.transactions.RLock()
	defer repo.transactions.RUnlock()

	txns := make([]billing.Transaction, 0)
	for _, txn := range repo.transactions.table {
		if txn.StudentID == studentID {
			txns = append(txns, *txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	return txns, nil
}

func (repo *BillingRepository) TransitionTransactionStatus(id string, to billing.TransactionStatus) (billing.Transaction, error) {
	repo.transactions.Lock()
	defer repo.transactions.Unlock()

	txn, ok := repo.transactions.table[id]
	if !ok {
		return billing.Transaction{}, billing.ErrTxnNotFound
	}
	if txn.Status != billing.StatusPending {
		return billing.Transaction{}, billing.ErrAlreadyFinal
	}
	txn.Status = to
	return *txn, nil
}
