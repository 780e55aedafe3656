package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/pagination"
)

// Response represents a standard API response
type Response struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Data       interface{}      `json:"data,omitempty"`
	Count      *int             `json:"count,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List sends a list response with the number of items on this page
// and, when meta is non-nil, pagination hints.
func List(c *fiber.Ctx, data interface{}, count int, meta *pagination.Meta) error {
	return c.JSON(Response{
		Success:    true,
		Data:       data,
		Count:      &count,
		Pagination: meta,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Message: message,
	})
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// StatusFor maps an error to its HTTP status code
func StatusFor(err error) int {
	switch domain.Kind(err) {
	case domain.ErrValidation, domain.ErrPreconditionFailed, domain.ErrNoOp:
		return fiber.StatusBadRequest
	case domain.ErrUnauthenticated:
		return fiber.StatusUnauthorized
	case domain.ErrNotAuthorized:
		return fiber.StatusForbidden
	case domain.ErrNotFound:
		return fiber.StatusNotFound
	case domain.ErrUniqueViolation:
		return fiber.StatusConflict
	case domain.ErrTransientStore:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// FromError sends the error response matching err's kind.
// Errors without a kind never leak their message.
func FromError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)

	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return Error(c, status, de.Message)
	case status == fiber.StatusInternalServerError:
		return InternalServerError(c, "internal server error")
	default:
		return Error(c, status, err.Error())
	}
}
