package http

import (
	"net/http"

	"finapp-backend/internal/usecase/collection"

	"github.com/labstack/echo/v4"
)

type CollectionHandler struct{ uc *collection.Usecase }

func NewCollectionHandler(uc *collection.Usecase) *CollectionHandler {
	return &CollectionHandler{uc: uc}
}

// Daily serves GET /v1/collections/daily?date=YYYY-MM-DD (default today).
func (h *CollectionHandler) Daily(c echo.Context) error {
	day, err := h.uc.ParseDate(c.QueryParam("date"))
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Daily(c.Request().Context(), sessionOf(c), day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
