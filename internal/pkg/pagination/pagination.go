package pagination

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Params represents pagination parameters
type Params struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Offset int    `json:"-"`
	Sort   string `json:"-"`
	Desc   bool   `json:"-"`
}

// Meta represents pagination metadata.
// Next and Prev are page numbers, present only when such a page exists.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
	Next       *int  `json:"next,omitempty"`
	Prev       *int  `json:"prev,omitempty"`
}

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// GetParams extracts pagination parameters from request.
// sort=field sorts ascending, sort=-field descending.
func GetParams(c *fiber.Ctx) *Params {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(DefaultLimit)))
	return New(page, limit, c.Query("sort"))
}

// New normalizes raw pagination values
func New(page, limit int, sort string) *Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	p := &Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	sort = strings.TrimSpace(sort)
	if strings.HasPrefix(sort, "-") {
		p.Desc = true
		sort = sort[1:]
	}
	p.Sort = sort

	return p
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int64) *Meta {
	totalPages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		totalPages++
	}

	meta := &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
	if meta.HasNext {
		next := params.Page + 1
		meta.Next = &next
	}
	if meta.HasPrev {
		prev := params.Page - 1
		meta.Prev = &prev
	}
	return meta
}
