package paymentsvc

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sekolahku/sps/core/billing"
)

// DummyService fabricates invoices locally. It backs DEV mode and tests,
// where no provider credentials exist; issued invoices are remembered so
// tests can replay them through the webhook path.
type DummyService struct {
	mu     sync.Mutex
	issued []billing.InvoiceRequest

	// Err, when set, is returned by CreateInvoice instead of an invoice.
	Err error
}

var _ billing.Invoicer = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{}
}

func (svc *DummyService) CreateInvoice(_ context.Context, req billing.InvoiceRequest) (billing.ProviderInvoice, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Err != nil {
		return billing.ProviderInvoice{}, svc.Err
	}
	svc.issued = append(svc.issued, req)

	id := "dummy-inv-" + uuid.NewString()
	return billing.ProviderInvoice{
		ID:         id,
		PaymentURL: "https://checkout.invalid/" + id,
	}, nil
}

// Issued returns a copy of every request accepted so far.
func (svc *DummyService) Issued() []billing.InvoiceRequest {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	out := make([]billing.InvoiceRequest, len(svc.issued))
	copy(out, svc.issued)
	return out
}
