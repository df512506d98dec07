package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Per-month row statuses.
const (
	BillRowPaid    = "PAID"
	BillRowArrears = "ARREARS" // past month, not covered
	BillRowDue     = "DUE"     // current month, not covered
)

type (
	// BillDetailRow is one month of one category in the parent-facing bill
	// breakdown.
	BillDetailRow struct {
		Month         string          `json:"month"` // "2006-01"
		MonthLabel    string          `json:"month_label"`
		Status        string          `json:"status"`
		Amount        decimal.Decimal `json:"amount"`
		PaidAt        *time.Time      `json:"paid_at,omitempty"`
		TransactionID string          `json:"transaction_id,omitempty"`
	}

	MonthlyBillDetail struct {
		InfaqMonthlyFee decimal.Decimal `json:"infaq_monthly_fee"`
		KasMonthlyFee   decimal.Decimal `json:"kas_monthly_fee"`
		InfaqItems      []BillDetailRow `json:"infaq_items"`
		KasItems        []BillDetailRow `json:"kas_items"`
	}
)

// MonthlyBillDetail breaks the student's INFAQ and KAS accrual down into
// per-month rows. Paid amounts are allocated to months sequentially from the
// registration month: floor(paid/fee) months are covered, oldest first.
func (svc *Service) MonthlyBillDetail(studentID string) (MonthlyBillDetail, error) {
	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return MonthlyBillDetail{}, err
	}
	txns, err := svc.repo.QueryTransactionsByStudent(studentID)
	if err != nil {
		return MonthlyBillDetail{}, err
	}

	now := time.Now()
	from := stu.RegisterDate
	if from.IsZero() {
		// No registration date recorded; show the trailing half year.
		from = now.AddDate(0, -6, 0)
	}
	months := MonthsThrough(from, now)

	detail := MonthlyBillDetail{
		InfaqItems: []BillDetailRow{},
		KasItems:   []BillDetailRow{},
	}
	if bt, err := svc.repo.GetBillTypeByCategory(CategoryINFAQ); err == nil {
		detail.InfaqMonthlyFee = bt.Amount
		detail.InfaqItems = buildBillRows(months, bt.Amount, txns, PaymentINFAQ, now)
	} else if err != ErrFeeNotConfigured {
		return MonthlyBillDetail{}, err
	}
	if bt, err := svc.repo.GetBillTypeByCategory(CategoryKAS); err == nil {
		detail.KasMonthlyFee = bt.Amount
		detail.KasItems = buildBillRows(months, bt.Amount, txns, PaymentKAS, now)
	} else if err != ErrFeeNotConfigured {
		return MonthlyBillDetail{}, err
	}
	return detail, nil
}

func buildBillRows(months []time.Time, fee decimal.Decimal, txns []Transaction, typ PaymentType, now time.Time) []BillDetailRow {
	covered := MonthsCovered(PaidTotal(txns, typ), fee)

	// Earliest PAID transaction of the type represents the covered months.
	var rep *Transaction
	for i := range txns {
		t := txns[i]
		if t.Type == typ && t.Status == StatusPaid {
			if rep == nil || t.CreatedAt.Before(rep.CreatedAt) {
				rep = &t
			}
		}
	}

	currentMonth := monthStart(now)
	rows := make([]BillDetailRow, 0, len(months))
	for i, m := range months {
		row := BillDetailRow{
			Month:      MonthKey(m),
			MonthLabel: m.Format("January 2006"),
			Amount:     fee,
		}
		switch {
		case i < covered:
			row.Status = BillRowPaid
			if rep != nil {
				paidAt := rep.CreatedAt
				row.PaidAt = &paidAt
				row.TransactionID = rep.ID
			}
		case m.Before(currentMonth):
			row.Status = BillRowArrears
		default:
			row.Status = BillRowDue
		}
		rows = append(rows, row)
	}
	return rows
}
