package server

import (
	"errors"
	"net/http"

	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/service"
	"github.com/existflow/irontime/internal/store"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

// fail maps service and store errors to HTTP responses
func fail(c echo.Context, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, store.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		return jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidParent),
		errors.Is(err, store.ErrForeignCategory),
		errors.Is(err, service.ErrUnknownDomain):
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	logger.Component("http").Error("Request failed",
		logger.F("uri", c.Request().RequestURI),
		logger.F("error", err))
	return jsonError(c, http.StatusInternalServerError, "internal error")
}

func userID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}
