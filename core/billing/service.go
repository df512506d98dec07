package billing

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sekolahku/sps/core"
	"github.com/sekolahku/sps/core/student"
)

var (
	// errors
	ErrTxnNotFound      = errors.New("transaction not found")
	ErrFeeNotConfigured = errors.New("fee is not configured for this category")
	ErrAlreadyFinal     = errors.New("transaction is already in a terminal status")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrExceedsRemaining = errors.New("amount exceeds the order's remaining balance")
)

type (
	Repository interface {
		// GetBillTypeByCategory returns the active fee schedule entry for a
		// category; ErrFeeNotConfigured when none exists. When several
		// entries exist the most recently created one wins.
		GetBillTypeByCategory(category BillCategory) (BillType, error)
		QueryBillTypes() ([]BillType, error)

		CreateTransaction(txn Transaction) (Transaction, error)
		GetTransactionByID(id string) (Transaction, error)
		GetTransactionByInvoiceID(invoiceID string) (Transaction, error)
		// QueryTransactionsByStudent returns the student's transactions,
		// newest first.
		QueryTransactionsByStudent(studentID string) ([]Transaction, error)
		// TransitionTransactionStatus atomically moves a PENDING transaction
		// into a terminal status. ErrAlreadyFinal when the transaction is no
		// longer PENDING; the caller decides whether that is a duplicate
		// delivery or a conflict.
		TransitionTransactionStatus(id string, to TransactionStatus) (Transaction, error)
	}

	Service struct {
		repo     Repository
		invoicer Invoicer
		orders   OrderLedger
		students student.ServiceInterface
		legacy   LegacyRegistrations
		mailSvc  core.EmailService
		log      core.Logger
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	invoicer Invoicer,
	orders OrderLedger,
	students student.ServiceInterface,
	legacy LegacyRegistrations,
	mailSvc core.EmailService,
	log core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		invoicer: invoicer,
		orders:   orders,
		students: students,
		legacy:   legacy,
		mailSvc:  mailSvc,
		log:      log,
		conf:     conf,
	}
}

// newExternalID builds the provider correlation key: a deterministic category
// prefix, the student id, and a uniqueness token so concurrent issuances for
// the same student never collide.
func newExternalID(prefix, studentID string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, studentID, uuid.NewString())
}

// issue creates the provider invoice first and only then persists a PENDING
// transaction. A provider failure therefore leaves no orphan record behind.
func (svc *Service) issue(stu student.Student, typ PaymentType, orderID, refPrefix, description string, amount decimal.Decimal) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, core.NewValidationError(ErrInvalidAmount,
			core.FieldError{Field: "amount", Error: ErrInvalidAmount.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), svc.conf.Xendit.Timeout)
	defer cancel()

	inv, err := svc.invoicer.CreateInvoice(ctx, InvoiceRequest{
		ExternalID:  newExternalID(refPrefix, stu.ID),
		Amount:      amount,
		Description: description,
		PayerEmail:  stu.ParentEmail,
	})
	if err != nil {
		return Transaction{}, pkgerrors.Wrap(err, "creating provider invoice")
	}
	svc.log.Info(fmt.Sprintf("created invoice %s: %s (%s)", inv.ID, description, amount))

	txn := Transaction{
		ID:         uuid.NewString(),
		StudentID:  stu.ID,
		OrderID:    orderID,
		Type:       typ,
		Amount:     amount,
		InvoiceID:  inv.ID,
		PaymentURL: inv.PaymentURL,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateTransaction(txn)
}

// SppInfo derives the student's SPP billing position as of today.
func (svc *Service) SppInfo(studentID string) (Accrual, error) {
	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return Accrual{}, err
	}
	bt, err := svc.repo.GetBillTypeByCategory(CategorySPP)
	if err != nil && err != ErrFeeNotConfigured {
		return Accrual{}, err
	}
	txns, err := svc.repo.QueryTransactionsByStudent(studentID)
	if err != nil {
		return Accrual{}, err
	}
	return ComputeAccrual(stu.RegisterDate, bt.Amount, txns, PaymentSPP, time.Now()), nil
}

// PaySPP issues an invoice prepaying the monthly SPP fee for n months.
func (svc *Service) PaySPP(studentID string, months int) (Transaction, error) {
	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return Transaction{}, err
	}
	bt, err := svc.repo.GetBillTypeByCategory(CategorySPP)
	if err != nil {
		return Transaction{}, err
	}

	amount := bt.Amount.Mul(decimal.NewFromInt(int64(months)))
	description := fmt.Sprintf("SPP payment, %d month(s) - %s", months, stu.FullName)
	return svc.issue(stu, PaymentSPP, "", string(CategorySPP), description, amount)
}

// MonthlyStatus is the INFAQ and KAS position side by side.
type MonthlyStatus struct {
	MonthsActive int     `json:"total_months_active"`
	Infaq        Accrual `json:"infaq"`
	Kas          Accrual `json:"kas"`
}

// MonthlyStatus derives the student's INFAQ and KAS positions as of today.
func (svc *Service) MonthlyStatus(studentID string) (MonthlyStatus, error) {
	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return MonthlyStatus{}, err
	}
	txns, err := svc.repo.QueryTransactionsByStudent(studentID)
	if err != nil {
		return MonthlyStatus{}, err
	}

	now := time.Now()
	status := MonthlyStatus{MonthsActive: MonthsActive(stu.RegisterDate, now)}
	for _, c := range []struct {
		category BillCategory
		typ      PaymentType
		dst      *Accrual
	}{
		{CategoryINFAQ, PaymentINFAQ, &status.Infaq},
		{CategoryKAS, PaymentKAS, &status.Kas},
	} {
		bt, err := svc.repo.GetBillTypeByCategory(c.category)
		if err != nil && err != ErrFeeNotConfigured {
			return MonthlyStatus{}, err
		}
		*c.dst = ComputeAccrual(stu.RegisterDate, bt.Amount, txns, c.typ, now)
	}
	return status, nil
}

// PayMonthly issues an invoice prepaying INFAQ or KAS for n months.
func (svc *Service) PayMonthly(studentID string, category BillCategory, months int) (Transaction, error) {
	typ, ok := monthlyPaymentType(category)
	if !ok {
		return Transaction{}, core.NewValidationError(nil,
			core.FieldError{Field: "category", Error: "must be INFAQ or KAS"})
	}

	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return Transaction{}, err
	}
	bt, err := svc.repo.GetBillTypeByCategory(category)
	if err != nil {
		return Transaction{}, err
	}

	amount := bt.Amount.Mul(decimal.NewFromInt(int64(months)))
	description := fmt.Sprintf("%s payment, %d month(s) - %s", bt.Name, months, stu.FullName)
	return svc.issue(stu, typ, "", string(category), description, amount)
}

// PayBills issues one invoice covering a mixed selection of INFAQ/KAS months.
// The transaction is typed by the first category present (INFAQ wins).
func (svc *Service) PayBills(studentID string, req PayBills) (Transaction, error) {
	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return Transaction{}, err
	}

	amount := decimal.Zero
	var infaqCount, kasCount int
	for _, item := range req.Items {
		bt, err := svc.repo.GetBillTypeByCategory(item.Category)
		if err == ErrFeeNotConfigured {
			continue // unconfigured categories contribute nothing
		}
		if err != nil {
			return Transaction{}, err
		}
		amount = amount.Add(bt.Amount)
		if item.Category == CategoryINFAQ {
			infaqCount++
		} else {
			kasCount++
		}
	}

	typ := PaymentKAS
	if infaqCount > 0 {
		typ = PaymentINFAQ
	}
	description := fmt.Sprintf("Monthly bills: Infaq %d month(s), Kas %d month(s) - %s",
		infaqCount, kasCount, stu.FullName)
	return svc.issue(stu, typ, "", "MONTHLY", description, amount)
}

// PayOrder issues an invoice funding (part of) a uniform order. The amount
// may not exceed the order's remaining balance.
func (svc *Service) PayOrder(studentID string, req NewOrderPayment) (Transaction, error) {
	stu, err := svc.students.GetByID(studentID)
	if err != nil {
		return Transaction{}, err
	}

	remaining, err := svc.orders.RemainingPayable(req.OrderID)
	if err != nil {
		return Transaction{}, err
	}
	if req.Amount.GreaterThan(remaining) {
		return Transaction{}, core.NewValidationError(ErrExceedsRemaining, core.FieldError{
			Field: "amount",
			Error: fmt.Sprintf("%s (max: %s)", ErrExceedsRemaining.Error(), remaining),
		})
	}

	description := fmt.Sprintf("Uniform order payment - %s", stu.FullName)
	refPrefix := fmt.Sprintf("UNIFORM-%s", req.OrderID)
	return svc.issue(stu, PaymentUniform, req.OrderID, refPrefix, description, req.Amount)
}

// History returns the student's transactions, newest first, optionally
// filtered by payment type.
func (svc *Service) History(studentID string, types ...PaymentType) ([]Transaction, error) {
	txns, err := svc.repo.QueryTransactionsByStudent(studentID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return txns, nil
	}
	filtered := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		for _, typ := range types {
			if t.Type == typ {
				filtered = append(filtered, t)
				break
			}
		}
	}
	return filtered, nil
}

// StudentArrears is one row of the admin arrears report.
type StudentArrears struct {
	StudentID    string          `json:"student_id"`
	StudentName  string          `json:"student_name"`
	MonthsUnpaid int             `json:"months_unpaid"`
	TotalArrears decimal.Decimal `json:"total_arrears"`
	SppAmount    decimal.Decimal `json:"spp_amount"`
}

// ArrearsReport lists every student owing SPP, largest arrears first.
// Students without a registration date accrue nothing and are skipped.
func (svc *Service) ArrearsReport() ([]StudentArrears, error) {
	bt, err := svc.repo.GetBillTypeByCategory(CategorySPP)
	if err == ErrFeeNotConfigured {
		svc.log.Warn("no SPP fee configured; arrears report is empty")
		return []StudentArrears{}, nil
	}
	if err != nil {
		return nil, err
	}

	students, err := svc.students.QueryAll()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := make([]StudentArrears, 0, len(students))
	for _, stu := range students {
		if stu.RegisterDate.IsZero() {
			continue
		}
		txns, err := svc.repo.QueryTransactionsByStudent(stu.ID)
		if err != nil {
			return nil, err
		}
		acc := ComputeAccrual(stu.RegisterDate, bt.Amount, txns, PaymentSPP, now)
		if acc.MonthsUnpaid == 0 {
			continue
		}
		report = append(report, StudentArrears{
			StudentID:    stu.ID,
			StudentName:  stu.FullName,
			MonthsUnpaid: acc.MonthsUnpaid,
			TotalArrears: acc.TotalArrears,
			SppAmount:    bt.Amount,
		})
	}
	sort.Slice(report, func(i, j int) bool {
		return report[i].TotalArrears.GreaterThan(report[j].TotalArrears)
	})
	return report, nil
}

func monthlyPaymentType(category BillCategory) (PaymentType, bool) {
	switch category {
	case CategoryINFAQ:
		return PaymentINFAQ, true
	case CategoryKAS:
		return PaymentKAS, true
	}
	return "", false
}

func (svc *Service) notifyPaid(txn Transaction) {
	if svc.mailSvc == nil {
		return
	}
	stu, err := svc.students.GetByID(txn.StudentID)
	if err != nil || stu.ParentEmail == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: stu.FullName, Address: stu.ParentEmail}},
		Subject: "Payment received",
		Body: fmt.Sprintf("Your %s payment of Rp %s has been received. Reference: %s.",
			txn.Type, txn.Amount.StringFixed(0), txn.InvoiceID),
	})
}
