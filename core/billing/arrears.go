package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// A student with this many elapsed unpaid months is flagged critical.
const criticalArrearsMonths = 3

// Accrual is the derived billing position of one student for one fee
// category. All figures follow from the registration date, the monthly fee
// and the PAID transaction history; nothing here touches storage.
type Accrual struct {
	MonthlyFee   decimal.Decimal `json:"monthly_fee"`
	MonthsActive int             `json:"months_active"`
	MonthsPaid   int             `json:"months_paid"`
	MonthsUnpaid int             `json:"months_unpaid"`
	TotalArrears decimal.Decimal `json:"total_arrears"`
	IsDue        bool            `json:"is_due"`
	IsCritical   bool            `json:"is_critical"`
}

// MonthsActive counts calendar months from the registration month through
// asOf's month, inclusive: registering mid-month still counts that month.
// A zero registeredAt means the registration flow has not set a date yet;
// the student accrues nothing.
func MonthsActive(registeredAt, asOf time.Time) int {
	if registeredAt.IsZero() {
		return 0
	}
	ry, rm, _ := registeredAt.Date()
	ay, am, _ := asOf.Date()
	n := (ay-ry)*12 + int(am) - int(rm) + 1
	if n < 0 {
		return 0
	}
	return n
}

// MonthsCovered is the number of whole billing periods a paid amount covers:
// floor(paid / fee). Payments are expected in whole-period multiples; a
// partial-period remainder is absorbed and covers nothing. A zero or missing
// fee covers zero months rather than faulting, so unconfigured categories
// report no arrears.
func MonthsCovered(paid, fee decimal.Decimal) int {
	if fee.Sign() <= 0 || paid.Sign() <= 0 {
		return 0
	}
	return int(paid.Div(fee).IntPart())
}

// PaidTotal sums the amounts of PAID transactions of the given type.
func PaidTotal(txns []Transaction, typ PaymentType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.Type == typ && t.Status == StatusPaid {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// ComputeAccrual derives the billing position for one fee category as of a
// date. Only PAID transactions of the matching type count toward coverage.
func ComputeAccrual(registeredAt time.Time, fee decimal.Decimal, txns []Transaction, typ PaymentType, asOf time.Time) Accrual {
	if fee.Sign() < 0 {
		fee = decimal.Zero
	}

	active := MonthsActive(registeredAt, asOf)
	paid := MonthsCovered(PaidTotal(txns, typ), fee)
	unpaid := active - paid
	if unpaid < 0 {
		unpaid = 0
	}

	return Accrual{
		MonthlyFee:   fee,
		MonthsActive: active,
		MonthsPaid:   paid,
		MonthsUnpaid: unpaid,
		TotalArrears: fee.Mul(decimal.NewFromInt(int64(unpaid))),
		IsDue:        paid < active,
		IsCritical:   unpaid >= criticalArrearsMonths,
	}
}
