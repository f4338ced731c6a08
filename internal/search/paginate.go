package search

import (
	"fmt"

	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/optional"
)

// Limits are the configured pagination defaults for one entity.
type Limits struct {
	DefaultOffset int
	DefaultLimit  int
	MaxLimit      int
}

// Page is a resolved offset/limit pair; both are non-negative.
type Page struct {
	Offset int
	Limit  int
}

// Normalize resolves unset pagination fields from the defaults. A defaulted limit
// above the maximum is clamped; explicit values are taken as-is and must have been
// checked with CheckPage first.
func Normalize(offset, limit optional.Value[int], l Limits) Page {
	p := Page{
		Offset: offset.OrElse(l.DefaultOffset),
		Limit:  limit.OrElse(l.DefaultLimit),
	}
	if !limit.IsSet() && l.MaxLimit > 0 && p.Limit > l.MaxLimit {
		p.Limit = l.MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	return p
}

// CheckPage rejects caller-supplied pagination that Normalize would not accept:
// negative values and a limit above the configured maximum.
func CheckPage(offset, limit optional.Value[int], l Limits) error {
	if o, ok := offset.Get(); ok && o < 0 {
		return dErrors.New(dErrors.CodeInvalidCriteria, "offset must not be negative")
	}
	n, ok := limit.Get()
	if !ok {
		return nil
	}
	if n < 0 {
		return dErrors.New(dErrors.CodeInvalidCriteria, "limit must not be negative")
	}
	if l.MaxLimit > 0 && n > l.MaxLimit {
		return dErrors.New(dErrors.CodeInvalidCriteria, fmt.Sprintf("limit must not exceed %d", l.MaxLimit))
	}
	return nil
}

// Pagination is the caller-facing pagination and sort block of a search request.
type Pagination struct {
	Limit  optional.Value[int] `json:"limit"`
	Offset optional.Value[int] `json:"offset"`
	SortBy string              `json:"sortBy,omitempty"`
	Order  string              `json:"order,omitempty"`
}

// Check validates caller-supplied values against the limits.
func (p Pagination) Check(l Limits) error {
	return CheckPage(p.Offset, p.Limit, l)
}

// Normalized returns a copy with offset and limit resolved from the limits.
func (p Pagination) Normalized(l Limits) Pagination {
	page := Normalize(p.Offset, p.Limit, l)
	p.Offset = optional.Of(page.Offset)
	p.Limit = optional.Of(page.Limit)
	return p
}

// Page returns the resolved page; call it on a normalized Pagination.
func (p Pagination) Page() Page {
	return Page{Offset: p.Offset.OrElse(0), Limit: p.Limit.OrElse(0)}
}

func (p Pagination) Sort() Sort {
	return Sort{Field: p.SortBy, Order: p.Order}
}
