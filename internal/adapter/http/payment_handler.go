package http

import (
	"net/http"

	domain "finapp-backend/internal/domain/payment"
	"finapp-backend/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct{ uc *payment.Usecase }

func NewPaymentHandler(uc *payment.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

type recordPaymentReq struct {
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0,dec2"`
	Status        string          `json:"status"         validate:"omitempty,oneof=SUCCESS PENDING FAILED"`
	TransactionID string          `json:"transaction_id" validate:"omitempty,max=64"`
	Method        string          `json:"method"         validate:"omitempty,max=16"`
}

func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return notFoundLoan(c)
	}
	var req recordPaymentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.Record(c.Request().Context(), sessionOf(c), payment.RecordInput{
		LoanID:        loanID,
		Amount:        req.Amount,
		Status:        domain.Status(req.Status),
		TransactionID: req.TransactionID,
		Method:        req.Method,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *PaymentHandler) ListPayments(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return notFoundLoan(c)
	}
	out, err := h.uc.ListByLoan(c.Request().Context(), sessionOf(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"payments": out, "count": len(out)})
}

// PaymentStatus answers whether the current period is already paid.
func (h *PaymentHandler) PaymentStatus(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return notFoundLoan(c)
	}
	dto, err := h.uc.Status(c.Request().Context(), sessionOf(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) MyPayments(c echo.Context) error {
	out, err := h.uc.ListMine(c.Request().Context(), sessionOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"payments": out, "count": len(out)})
}
