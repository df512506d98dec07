package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sekolahku/sps/core/billing"
)

type billingApi struct {
	svc      *billing.Service
	validate *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := billingApi{svc: deps.BillingSvc, validate: deps.Validate}

	bg := g.Group("/billing", jwt)

	// parent endpoints
	bg.GET("/spp", api.sppInfo)
	bg.POST("/spp/payments", api.paySpp)
	bg.GET("/monthly", api.monthlyStatus)
	bg.POST("/monthly/payments", api.payMonthly)
	bg.GET("/bills", api.billDetail)
	bg.POST("/bills/payments", api.payBills)
	bg.GET("/history", api.history)

	// admin endpoints
	bg.GET("/arrears", api.arrearsReport, adminMiddleware())
}

// Handlers

func (api *billingApi) sppInfo(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	info, err := api.svc.SppInfo(studentID)
	if err != nil {
		return errors.Wrap(err, "getting SPP info")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *billingApi) paySpp(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	var data billing.NewSppPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSppPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	txn, err := api.svc.PaySPP(studentID, data.Months)
	if err != nil {
		return errors.Wrap(err, "issuing SPP payment")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *billingApi) monthlyStatus(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	status, err := api.svc.MonthlyStatus(studentID)
	if err != nil {
		return errors.Wrap(err, "getting monthly status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *billingApi) payMonthly(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	var data billing.NewMonthlyPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMonthlyPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	txn, err := api.svc.PayMonthly(studentID, data.Category, data.Months)
	if err != nil {
		return errors.Wrap(err, "issuing monthly payment")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *billingApi) billDetail(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	detail, err := api.svc.MonthlyBillDetail(studentID)
	if err != nil {
		return errors.Wrap(err, "getting bill detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *billingApi) payBills(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	var data billing.PayBills
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PayBills")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	txn, err := api.svc.PayBills(studentID, data)
	if err != nil {
		return errors.Wrap(err, "issuing bills payment")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *billingApi) history(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	var types []billing.PaymentType
	for _, t := range ctx.QueryParams()["type"] {
		types = append(types, billing.PaymentType(t))
	}

	txns, err := api.svc.History(studentID, types...)
	if err != nil {
		return errors.Wrap(err, "querying payment history")
	}
	return ctx.JSON(http.StatusOK, txns)
}

func (api *billingApi) arrearsReport(ctx echo.Context) error {
	report, err := api.svc.ArrearsReport()
	if err != nil {
		return errors.Wrap(err, "building arrears report")
	}
	return ctx.JSON(http.StatusOK, report)
}
