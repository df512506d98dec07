package billing

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Reconcile is the single entry point for payment-provider notifications.
// It is the only code path allowed to move a transaction out of PENDING and
// to credit an order's paid total. Delivery is at-least-once and unordered,
// so every branch here must be safe to replay.
func (svc *Service) Reconcile(invoiceID, providerStatus string) error {
	svc.log.Info(fmt.Sprintf("webhook: invoice %s reported %q", invoiceID, providerStatus))

	txn, err := svc.repo.GetTransactionByInvoiceID(invoiceID)
	if err == ErrTxnNotFound {
		// Registration (PPDB) invoices predate the transaction ledger and are
		// referenced directly on the student record.
		handled, err := svc.legacy.ReconcileInvoice(invoiceID, providerStatus)
		if err != nil {
			return pkgerrors.Wrap(err, "reconciling legacy invoice")
		}
		if !handled {
			svc.log.Warn(fmt.Sprintf("no transaction or student found for invoice %s", invoiceID))
		}
		return nil
	}
	if err != nil {
		return err
	}

	target, ok := mapProviderStatus(providerStatus)
	if !ok {
		svc.log.Warn(fmt.Sprintf("unknown provider status %q for invoice %s; ignoring", providerStatus, invoiceID))
		return nil
	}

	// The stored status decides idempotency before any order mutation.
	if txn.Status == target {
		svc.log.Info(fmt.Sprintf("invoice %s already %s; duplicate delivery ignored", invoiceID, target))
		return nil
	}
	if txn.Status.IsTerminal() {
		svc.log.Error(fmt.Sprintf(
			"conflicting terminal status for invoice %s: stored %s, reported %s; not applied",
			invoiceID, txn.Status, target))
		return nil
	}

	updated, err := svc.repo.TransitionTransactionStatus(txn.ID, target)
	if err == ErrAlreadyFinal {
		// Lost the race to a concurrent delivery; the winner applied any funding.
		svc.log.Info(fmt.Sprintf("invoice %s settled concurrently; delivery ignored", invoiceID))
		return nil
	}
	if err != nil {
		return err
	}
	svc.log.Info(fmt.Sprintf("transaction %s is now %s", updated.ID, updated.Status))

	if updated.Status == StatusPaid {
		if updated.FundsOrder() {
			if err := svc.orders.ApplyFunding(updated.OrderID, updated.Amount); err != nil {
				return pkgerrors.Wrap(err, "crediting funded order")
			}
		}
		svc.notifyPaid(updated)
	}
	// EXPIRED needs no further effect: the attempt never counted as paid.
	return nil
}

// mapProviderStatus normalizes the provider's status strings. SETTLED is how
// the provider reports late settlement of an already-paid invoice.
func mapProviderStatus(s string) (TransactionStatus, bool) {
	switch strings.ToUpper(s) {
	case "PAID", "SETTLED":
		return StatusPaid, true
	case "EXPIRED":
		return StatusExpired, true
	}
	return "", false
}
