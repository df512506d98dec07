package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sekolahku/sps/core"
	"github.com/sekolahku/sps/core/billing"
)

const callbackTokenHeader = "x-callback-token"

type webhookApi struct {
	svc  *billing.Service
	conf *core.Config
	log  core.Logger
}

// registerWebhookAPI mounts the provider callback endpoint. It is not behind
// JWT auth; the provider authenticates with the callback token header.
func registerWebhookAPI(g *echo.Group, deps ServerDeps) {
	api := webhookApi{svc: deps.BillingSvc, conf: deps.Conf, log: deps.Logger}
	g.POST("/webhooks/xendit", api.invoiceCallback)
}

// xenditCallback is the subset of the provider's invoice callback we act on.
type xenditCallback struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

func (api *webhookApi) invoiceCallback(ctx echo.Context) error {
	if api.conf.Xendit.WebhookVerificationEnabled() {
		if ctx.Request().Header.Get(callbackTokenHeader) != api.conf.Xendit.CallbackToken {
			return errHttpForbidden
		}
	}

	var data xenditCallback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to xenditCallback")
	}
	if data.ID == "" || data.Status == "" {
		return core.NewValidationError(errors.New("id and status are required"))
	}

	// The provider retries on non-2xx; a callback we cannot apply is logged
	// and acknowledged so it is not redelivered forever.
	if err := api.svc.Reconcile(data.ID, data.Status); err != nil {
		api.log.Error(fmt.Sprintf("reconciling invoice %s: %v", data.ID, err), err)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"received": true})
}
