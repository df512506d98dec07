package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sekolahku/sps/core/billing"
	"github.com/sekolahku/sps/core/student"
	"github.com/sekolahku/sps/core/uniform"
)

type uniformApi struct {
	svc        *uniform.Service
	billingSvc *billing.Service
	studentSvc student.ServiceInterface
	validate   *validator.Validate
}

func registerUniformAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := uniformApi{
		svc:        deps.UniformSvc,
		billingSvc: deps.BillingSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
	}

	ug := g.Group("/uniforms", jwt)
	ug.GET("", api.queryUniforms)

	og := g.Group("/orders", jwt)
	og.POST("", api.createOrder)
	og.GET("", api.myOrders)
	og.GET("/:id", api.retrieveOrder)
	og.POST("/:id/payments", api.payOrder)

	// admin endpoints
	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/orders", api.queryOrders)
	ag.PUT("/orders/:id/status", api.updateOrderStatus)
	ag.GET("/students", api.queryStudents)
}

// OrderStatusUpdate is the admin payload advancing an order's fulfillment.
type OrderStatusUpdate struct {
	Status uniform.OrderStatus `json:"status" validate:"required"`
}

// Handlers

func (api *uniformApi) queryUniforms(ctx echo.Context) error {
	uniforms, err := api.svc.AvailableUniforms()
	if err != nil {
		return errors.Wrap(err, "querying uniforms")
	}
	return ctx.JSON(http.StatusOK, uniforms)
}

func (api *uniformApi) createOrder(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	var data uniform.NewOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	order, err := api.svc.CreateOrder(studentID, data)
	if err != nil {
		return errors.Wrap(err, "creating order")
	}
	return ctx.JSON(http.StatusCreated, order)
}

func (api *uniformApi) myOrders(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	orders, err := api.svc.OrdersForStudent(studentID)
	if err != nil {
		return errors.Wrap(err, "querying orders")
	}
	return ctx.JSON(http.StatusOK, orders)
}

func (api *uniformApi) retrieveOrder(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	order, err := api.svc.GetOrder(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting order")
	}
	if !claims.IsAdmin && order.StudentID != claims.Subject {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, order)
}

func (api *uniformApi) payOrder(ctx echo.Context) error {
	studentID, err := getContextStudentID(ctx)
	if err != nil {
		return err
	}

	var data billing.NewOrderPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrderPayment")
	}
	data.OrderID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// only the owner can fund their order
	order, err := api.svc.GetOrder(data.OrderID)
	if err != nil {
		return errors.Wrap(err, "getting order")
	}
	if order.StudentID != studentID {
		return errHttpForbidden
	}

	txn, err := api.billingSvc.PayOrder(studentID, data)
	if err != nil {
		return errors.Wrap(err, "issuing order payment")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *uniformApi) queryOrders(ctx echo.Context) error {
	var status *uniform.OrderStatus
	if raw := ctx.QueryParam("status"); raw != "" {
		s := uniform.OrderStatus(raw)
		status = &s
	}

	orders, err := api.svc.Orders(status)
	if err != nil {
		return errors.Wrap(err, "querying orders")
	}
	return ctx.JSON(http.StatusOK, orders)
}

func (api *uniformApi) updateOrderStatus(ctx echo.Context) error {
	var data OrderStatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OrderStatusUpdate")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	order, err := api.svc.UpdateStatus(ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating order status")
	}
	return ctx.JSON(http.StatusOK, order)
}

func (api *uniformApi) queryStudents(ctx echo.Context) error {
	students, err := api.studentSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}
