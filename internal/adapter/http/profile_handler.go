package http

import (
	"net/http"

	"finapp-backend/internal/usecase/user"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct{ uc *user.Usecase }

func NewProfileHandler(uc *user.Usecase) *ProfileHandler { return &ProfileHandler{uc: uc} }

type profileReq struct {
	Name        string `json:"name"         validate:"required,max=128"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
	PushToken   string `json:"push_token"   validate:"omitempty,max=4096"`
}

func (h *ProfileHandler) PutMe(c echo.Context) error {
	var req profileReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Upsert(c.Request().Context(), sessionOf(c), user.ProfileInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ProfileHandler) GetMe(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), sessionOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
