package serverutils

import (
	"errors"

	"ai-storybook-be/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses so controllers
// can just return them. Precondition failures surface as 412; collaborator
// failures never reach here (they are recorded on stage records instead).
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var precondition *apperrors.PreconditionError
		var notFound *apperrors.NotFoundError
		var unauthorized *apperrors.UnauthorizedError
		var validation *ValidationError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &precondition):
			return ctx.Status(fiber.StatusPreconditionFailed).JSON(FailResponse(precondition.Message))
		case errors.As(err, &notFound):
			return ctx.Status(fiber.StatusNotFound).JSON(FailResponse(notFound.Error()))
		case errors.As(err, &unauthorized):
			return ctx.Status(fiber.StatusForbidden).JSON(FailResponse(unauthorized.Message))
		case errors.As(err, &validation):
			return ctx.Status(fiber.StatusBadRequest).JSON(FailResponse(validation.Message))
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(FailResponse(fiberErr.Message))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(FailResponse("internal server error"))
		}
	}
}
