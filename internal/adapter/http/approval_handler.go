package http

import (
	"context"
	"net/http"

	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type decideFn func(ctx context.Context, sess session.Session, loanID string) (*approval.DecisionDTO, error)

func (h *ApprovalHandler) decide(c echo.Context, fn decideFn) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return notFoundLoan(c)
	}
	dto, err := fn(c.Request().Context(), sessionOf(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error { return h.decide(c, h.uc.Approve) }

func (h *ApprovalHandler) RejectLoan(c echo.Context) error { return h.decide(c, h.uc.Reject) }
