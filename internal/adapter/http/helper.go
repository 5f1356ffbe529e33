package http

import (
	"errors"
	"net/http"

	"finapp-backend/internal/adapter/middleware"
	"finapp-backend/internal/domain/decision"
	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/uow"
	"finapp-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Map domain errors → HTTP codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, loan.ErrInvalidState),
		errors.Is(err, loan.ErrAlreadyPaid),
		errors.Is(err, decision.ErrAlreadyDecided),
		errors.Is(err, uow.ErrTransactionConflict):
		return http.StatusConflict
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrNotOwner), errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends domain errors verbatim; anything unexpected is logged and hidden.
func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request().Method,
			"route":  c.Path(),
		}).WithError(err).Error("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindValid binds the body into req and runs the validator. On failure the
// response is already written and ok is false.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// loanIDParam reads :loan_id; malformed ids cannot exist, so they are 404s.
func loanIDParam(c echo.Context) (string, bool) {
	id := c.Param("loan_id")
	return id, reHex32.MatchString(id)
}

func notFoundLoan(c echo.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: loan.ErrNotFound.Error()})
}

func sessionOf(c echo.Context) session.Session {
	s, _ := middleware.SessionFrom(c)
	return s
}
