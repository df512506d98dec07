package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BillCategory identifies a configured fee. Accrual always selects the fee
// by category; period metadata never decides which fee applies.
type BillCategory string

const (
	CategorySPP   BillCategory = "SPP"
	CategoryINFAQ BillCategory = "INFAQ"
	CategoryKAS   BillCategory = "KAS"
)

// Period is the accrual cadence of a bill type.
type Period string

const (
	PeriodMonthly Period = "MONTHLY"
	PeriodOneTime Period = "ONE_TIME"
)

// BillType is one entry of the fee schedule, administered out-of-band.
type BillType struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Period      Period          `json:"period" db:"period"`
	Category    BillCategory    `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// PaymentType classifies what a transaction pays for.
type PaymentType string

const (
	PaymentSPP     PaymentType = "SPP"
	PaymentINFAQ   PaymentType = "INFAQ"
	PaymentKAS     PaymentType = "KAS"
	PaymentUniform PaymentType = "UNIFORM"
	PaymentPPDB    PaymentType = "PPDB" // registration fee, legacy flow
)

// TransactionStatus is the lifecycle state of a payment transaction.
// PENDING moves exactly once to PAID or EXPIRED; terminal states are final.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusPaid    TransactionStatus = "PAID"
	StatusExpired TransactionStatus = "EXPIRED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusExpired
}

// Transaction is one issued payment request and its settlement state.
// Created PENDING by the issuer; transitioned by the webhook reconciler;
// never mutated afterward.
type Transaction struct {
	ID         string            `json:"id" db:"id"`
	StudentID  string            `json:"student_id" db:"student_id"`
	OrderID    string            `json:"order_id,omitempty" db:"order_id"`
	Type       PaymentType       `json:"payment_type" db:"payment_type"`
	Amount     decimal.Decimal   `json:"amount" db:"amount"`
	InvoiceID  string            `json:"invoice_id" db:"invoice_id"`
	PaymentURL string            `json:"payment_url" db:"payment_url"`
	Status     TransactionStatus `json:"status" db:"status"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// FundsOrder reports whether settling this transaction must credit an order.
func (t Transaction) FundsOrder() bool {
	return t.Type == PaymentUniform && t.OrderID != ""
}

// InvoiceRequest is what the payment-provider collaborator needs to create
// a payable invoice.
type InvoiceRequest struct {
	ExternalID  string
	Amount      decimal.Decimal
	Description string
	PayerEmail  string
}

// ProviderInvoice is the provider's answer: its invoice id (our correlation
// key for webhooks) and the URL the payer is sent to.
type ProviderInvoice struct {
	ID         string
	PaymentURL string
}

// Invoicer creates invoices at the payment provider. Implementations are
// possibly slow and possibly failing remote calls; the issuer bounds them
// with the context deadline.
type Invoicer interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (ProviderInvoice, error)
}

// OrderLedger is the slice of the uniform-order service the billing core
// needs: how much an order can still take, and crediting it once paid.
type OrderLedger interface {
	RemainingPayable(orderID string) (decimal.Decimal, error)
	ApplyFunding(orderID string, amount decimal.Decimal) error
}

// LegacyRegistrations reconciles provider invoices that predate the
// transaction ledger (registration fees referenced directly on the student
// record). Reports whether the invoice was recognized.
type LegacyRegistrations interface {
	ReconcileInvoice(invoiceID, status string) (bool, error)
}

// NewSppPayment is the request payload to prepay SPP for a number of months.
type NewSppPayment struct {
	Months int `json:"months" validate:"required,gte=1,lte=12"`
}

// NewMonthlyPayment is the request payload to prepay INFAQ or KAS.
type NewMonthlyPayment struct {
	Category BillCategory `json:"category" validate:"required,oneof=INFAQ KAS"`
	Months   int          `json:"months" validate:"required,gte=1,lte=12"`
}

// BillSelection is one month of one category chosen in a pay-selected-bills
// request.
type BillSelection struct {
	Category BillCategory `json:"category" validate:"required,oneof=INFAQ KAS"`
	Month    string       `json:"month" validate:"required"` // "2006-01"
}

// PayBills is the request payload covering a mixed selection of monthly bills.
type PayBills struct {
	Items []BillSelection `json:"items" validate:"required,min=1,dive"`
}

// NewOrderPayment is the request payload to pay (part of) a uniform order.
type NewOrderPayment struct {
	OrderID string          `json:"order_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
}
