package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/pagination"
)

// listParams reads page, limit and sort from the query string
func listParams(c *fiber.Ctx) (*pagination.Params, repositories.ListOptions) {
	params := pagination.GetParams(c)
	return params, repositories.ListOptions{
		Offset:   params.Offset,
		Limit:    params.Limit,
		SortBy:   params.Sort,
		SortDesc: params.Desc,
	}
}

// queryInt parses an optional integer filter. Absent means zero.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validationf("%s must be a number", key)
	}
	return n, nil
}

// mapSlice converts entities to their response DTOs
func mapSlice[T any, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
