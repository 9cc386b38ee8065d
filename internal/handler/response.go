package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskhub/internal/apierr"
)

// Response is the envelope every endpoint returns.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func respond(c echo.Context, statusCode int, data interface{}, message string) error {
	return c.JSON(statusCode, Response{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < http.StatusBadRequest,
	})
}

// ErrorHandler is the central echo error handler. Every error a handler or
// middleware returns ends up here and is rendered as the standard envelope;
// anything that is not a typed API error or an echo HTTP error becomes a
// plain 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	statusCode := http.StatusInternalServerError
	message := "internal server error"

	var apiErr *apierr.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.StatusCode
		message = apiErr.Message
	case errors.As(err, &httpErr):
		statusCode = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	default:
		c.Logger().Error(err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = respond(c, statusCode, nil, message)
}
