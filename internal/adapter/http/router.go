package http

import (
	"net/http"

	"finapp-backend/internal/adapter/middleware"
	"finapp-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
)

// Routes holds every handler the API serves. Nil handlers leave their
// routes unregistered.
type Routes struct {
	Health      *Handler
	Loans       *LoanHandler
	Approvals   *ApprovalHandler
	Payments    *PaymentHandler
	Collections *CollectionHandler
	Profile     *ProfileHandler
	Session     *SessionHandler
	Stream      *StreamHandler

	Auth middleware.TokenParser
	// Idempotent guards state-changing POSTs; nil disables the guard.
	Idempotent echo.MiddlewareFunc
	Metrics    http.Handler
}

func (r Routes) Register(e *echo.Echo) {
	if r.Health != nil {
		e.GET("/health", r.Health.Health)
	}
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	v1 := e.Group("/v1", middleware.Auth(r.Auth))
	idem := r.Idempotent
	if idem == nil {
		idem = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	admin := middleware.RequireRole(user.RoleAdmin)
	client := middleware.RequireRole(user.RoleClient)

	if h := r.Loans; h != nil {
		v1.POST("/loans/quote", h.Quote)
		v1.POST("/loans", h.CreateLoan, client, idem)
		v1.GET("/loans", h.ListLoans)
		v1.GET("/loans/:loan_id", h.GetLoan)
	}
	if h := r.Approvals; h != nil {
		v1.POST("/loans/:loan_id/approve", h.ApproveLoan, admin)
		v1.POST("/loans/:loan_id/reject", h.RejectLoan, admin)
	}
	if h := r.Payments; h != nil {
		v1.POST("/loans/:loan_id/payments", h.RecordPayment, client, idem)
		v1.GET("/loans/:loan_id/payments", h.ListPayments)
		v1.GET("/loans/:loan_id/payments/status", h.PaymentStatus)
		v1.GET("/me/payments", h.MyPayments, client)
	}
	if h := r.Collections; h != nil {
		v1.GET("/collections/daily", h.Daily, admin)
	}
	if h := r.Profile; h != nil {
		v1.GET("/me", h.GetMe)
		v1.PUT("/me", h.PutMe)
	}
	if h := r.Session; h != nil {
		v1.POST("/session/logout", h.Logout)
	}
	if h := r.Stream; h != nil {
		v1.GET("/stream", h.Stream)
	}
}
