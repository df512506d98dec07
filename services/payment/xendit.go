// Package paymentsvc holds the payment-provider clients behind the
// billing.Invoicer interface.
package paymentsvc

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xendit/xendit-go/client"
	"github.com/xendit/xendit-go/invoice"

	"github.com/sekolahku/sps/core"
	"github.com/sekolahku/sps/core/billing"
)

type xenditService struct {
	api  *client.API
	conf *core.Config
	log  core.Logger
}

var _ billing.Invoicer = (*xenditService)(nil)

func NewXenditService(conf *core.Config, log core.Logger) *xenditService {
	return &xenditService{
		api:  client.New(conf.Xendit.APIKey),
		conf: conf,
		log:  log,
	}
}

func (svc xenditService) CreateInvoice(ctx context.Context, req billing.InvoiceRequest) (billing.ProviderInvoice, error) {
	params := &invoice.CreateParams{
		ExternalID:         req.ExternalID,
		Amount:             req.Amount.InexactFloat64(),
		Description:        req.Description,
		PayerEmail:         req.PayerEmail,
		InvoiceDuration:    svc.conf.Xendit.InvoiceDuration,
		SuccessRedirectURL: svc.conf.Xendit.SuccessRedirectURL,
		FailureRedirectURL: svc.conf.Xendit.FailureRedirectURL,
	}

	inv, err := svc.api.Invoice.CreateWithContext(ctx, params)
	if err != nil {
		return billing.ProviderInvoice{}, errors.Wrap(err, "creating provider invoice")
	}

	svc.log.Info(fmt.Sprintf("created provider invoice %s for %s", inv.ID, req.ExternalID))
	return billing.ProviderInvoice{ID: inv.ID, PaymentURL: inv.InvoiceURL}, nil
}
