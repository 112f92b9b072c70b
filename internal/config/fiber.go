package config

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"VoicePay/pkg/response"
)

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:          "VoicePay Backend",
			BodyLimit:        25 * 1024 * 1024,
			DisableKeepalive: false,
			StrictRouting:    true,
			CaseSensitive:    true,
			JSONEncoder:      jsoniter.Marshal,
			JSONDecoder:      jsoniter.Unmarshal,
			ErrorHandler:     newErrorHandler(logger),
		})

	return app
}

// newErrorHandler renders errors that escape handlers, mostly routing
// errors raised by fiber itself, in the API error envelope.
func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		reason := "INTERNAL_ERROR"

		var fe *fiber.Error
		var re *response.Error
		switch {
		case errors.As(err, &re):
			status, reason = re.Code, re.Reason
		case errors.As(err, &fe):
			status = fe.Code
			reason = "HTTP_" + statusReason(fe.Code)
		}

		if status >= fiber.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err.Error(),
			}).Error("Unhandled error")
		}

		return c.Status(status).JSON(response.NewBody(reason, err.Error()))
	}
}

func statusReason(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "ERROR"
	}
}
