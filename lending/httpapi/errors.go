package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	statusError          = "error"
	messageInternalError = "internal server error"
	logMsgRequestFailed  = "http request failed"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusCodeOf maps an error to its HTTP status code.
func StatusCodeOf(err error) int {
	var fiberErr *fiber.Error

	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, core.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return fiber.StatusConflict
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

func (s server) handleError(c *fiber.Ctx, err error) error {
	code := StatusCodeOf(err)
	message := err.Error()

	if code == fiber.StatusInternalServerError {
		if s.Logger != nil {
			s.Logger.Error(logMsgRequestFailed, shell.LogAttrError, message, logAttrRequestID, c.Locals(localsRequestID))
		}

		message = messageInternalError
	}

	return c.Status(code).JSON(ErrorResponse{Code: code, Status: statusError, Message: message})
}
