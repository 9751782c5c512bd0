package serverutils

import (
	"errors"

	"ai-affairs-gateway/internal/service"
	"ai-affairs-gateway/pkg/ragflow"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps errors escaping the controllers onto the JSON
// error envelope. Session establishment failures surface as 502 so the
// client can tell an upstream outage from a gateway bug.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var sessionErr *ragflow.SessionCreationError
		if errors.As(err, &sessionErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, sessionErr.Error()))
		}

		// Checked before the bare upstream error so a wrapped cause does not
		// reclassify a failed turn.
		var turnErr *service.TurnProcessingError
		if errors.As(err, &turnErr) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, turnErr.Error()))
		}

		var upstreamErr *ragflow.UpstreamError
		if errors.As(err, &upstreamErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, upstreamErr.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
