package http

import (
	"net/http"

	domain "finapp-backend/internal/domain/loan"
	"finapp-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type quoteReq struct {
	Category  string           `json:"category"  validate:"required,category"`
	Principal decimal.Decimal  `json:"principal" validate:"required,gt=0,dec2"`
	Rate      *decimal.Decimal `json:"rate"      validate:"omitempty,gte=0,lte=100,dec2"`
	Duration  int              `json:"duration"  validate:"required,gt=0"`
}

func (r quoteReq) input() loan.QuoteInput {
	return loan.QuoteInput{
		Category:  domain.Category(r.Category),
		Principal: r.Principal,
		Rate:      r.Rate,
		Duration:  r.Duration,
	}
}

type createLoanReq struct {
	quoteReq
	UserName    string `json:"user_name"    validate:"omitempty,max=128"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
}

func (h *LoanHandler) Quote(c echo.Context) error {
	var req quoteReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Quote(req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), sessionOf(c), loan.CreateLoanInput{
		QuoteInput:  req.input(),
		UserName:    req.UserName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return notFoundLoan(c)
	}
	dto, err := h.uc.Get(c.Request().Context(), sessionOf(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListLoans returns the caller's loans, or every loan for admins.
// ?status= narrows by status.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	f := loan.ListFilter{Status: domain.Status(c.QueryParam("status"))}
	switch f.Status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusCompleted:
	default:
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "unknown status " + string(f.Status)})
	}
	out, err := h.uc.List(c.Request().Context(), sessionOf(c), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": out, "count": len(out)})
}
