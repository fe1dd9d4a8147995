package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"ai-docchat-client/internal/dto"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs the struct's `validate` tags and turns the first
// failure into a 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s is %s", strings.ToLower(f.Field()), f.Tag()))
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// ErrorHandlerMiddleware renders any error returned further down the chain
// as {"error": "..."} with the matching status.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	return ctx.Status(code).JSON(dto.ErrorResponse{Error: err.Error()})
}
