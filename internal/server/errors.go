package server

import (
	"errors"

	"propertytrack/internal/apperr"
	"propertytrack/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
	Stack   string              `json:"stack,omitempty"`
}

// ErrorHandler turns any error returned by a handler into the JSON error
// envelope. Stack traces are only included in development.
func ErrorHandler(log *logrus.Entry, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		body := errorBody{Message: "internal server error"}

		var fe *fiber.Error
		if ae, ok := apperr.As(err); ok {
			status = ae.Status()
			body.Message = ae.Message
			body.Errors = ae.Fields
		} else if errors.As(err, &fe) {
			status = fe.Code
			body.Message = fe.Message
		}

		if development && status >= fiber.StatusInternalServerError {
			body.Stack = apperr.Stack(err)
		}

		rid, _ := c.Locals(auth.RequestIDKey).(string)
		entry := log.WithFields(logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
		})
		if status >= fiber.StatusInternalServerError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.WithField("reason", body.Message).Warn("request rejected")
		}

		return c.Status(status).JSON(body)
	}
}
