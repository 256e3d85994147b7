package presenters

import (
	"Recipegram-Backend/domain"
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data any, status int, message string) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	res := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return c.Status(status).JSON(res)
}

var (
	notFoundErrors = []error{
		domain.ErrRecipeNotFound,
		domain.ErrTagNotFound,
		domain.ErrIngredientNotFound,
		domain.ErrUserNotFound,
		domain.ErrNotFavorited,
		domain.ErrNotInCart,
		domain.ErrSubscriptionNotFound,
	}
	conflictErrors = []error{
		domain.ErrRecipeAlreadyExists,
		domain.ErrAlreadyFavorited,
		domain.ErrAlreadyInCart,
		domain.ErrAlreadySubscribed,
		domain.ErrEmailAlreadyExists,
		domain.ErrUsernameAlreadyTaken,
	}
	forbiddenErrors = []error{
		domain.ErrNotRecipeAuthor,
		domain.ErrSelfSubscription,
		domain.ErrUserNotAllowed,
	}
	unauthorizedErrors = []error{
		domain.ErrCredentialsInvalid,
		domain.ErrTokenInvalid,
		domain.ErrTokenExpired,
		domain.ErrTokenNotFound,
	}
)

// ErrorStatus maps a domain error to its HTTP status. Anything outside the
// taxonomy is reported as a bad request.
func ErrorStatus(err error) int {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fiber.StatusNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return fiber.StatusConflict
		}
	}
	for _, target := range forbiddenErrors {
		if errors.Is(err, target) {
			return fiber.StatusForbidden
		}
	}
	for _, target := range unauthorizedErrors {
		if errors.Is(err, target) {
			return fiber.StatusUnauthorized
		}
	}
	return fiber.StatusBadRequest
}
