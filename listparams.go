package entitykit

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortField is a single (field, direction) pair of a sort specification.
type SortField struct {
	Field     string
	Direction Direction
}

// ListParams is the specification for a single list call: pagination,
// ordering, and equality filters. Sort and filter fields are validated by the
// engine against the entity's allow-lists; skip and limit are taken as-is
// (callers clamp them), with the engine applying its default and maximum
// page size when Limit is zero or too large.
type ListParams struct {
	Skip    int
	Limit   int
	Sort    []SortField
	Filters map[string]any
}

// NewListParams creates an empty ListParams.
func NewListParams() ListParams {
	return ListParams{Filters: map[string]any{}}
}

// WithSkip sets the number of rows to skip.
func (p ListParams) WithSkip(skip int) ListParams {
	p.Skip = skip
	return p
}

// WithLimit sets the page size.
func (p ListParams) WithLimit(limit int) ListParams {
	p.Limit = limit
	return p
}

// WithPagination sets both skip and limit.
func (p ListParams) WithPagination(skip, limit int) ListParams {
	p.Skip = skip
	p.Limit = limit
	return p
}

// WithSort appends a (field, direction) pair to the sort specification.
func (p ListParams) WithSort(field string, direction Direction) ListParams {
	p.Sort = append(p.Sort, SortField{Field: field, Direction: direction})
	return p
}

// WithFilter adds an equality filter. Filters combine with AND semantics.
func (p ListParams) WithFilter(field string, value any) ListParams {
	filters := make(map[string]any, len(p.Filters)+1)
	for k, v := range p.Filters {
		filters[k] = v
	}
	filters[field] = value
	p.Filters = filters
	return p
}

// ParseSort parses a comma-separated sort expression into SortFields.
// Each element is a field name, optionally suffixed with ":asc" or ":desc";
// the direction defaults to ascending.
//
// Example:
//
//	ParseSort("id:desc,created_at")
//	// -> [{id desc} {created_at asc}]
func ParseSort(sorting string) ([]SortField, error) {
	if sorting == "" {
		return nil, nil
	}

	var sorts []SortField
	for _, elem := range strings.Split(sorting, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}

		field, dir, hasDir := strings.Cut(elem, ":")
		if field == "" {
			return nil, NewError(ErrInvalidQuery,
				fmt.Sprintf("empty sort field in %q", sorting))
		}

		direction := Ascending
		if hasDir {
			switch Direction(dir) {
			case Ascending, Descending:
				direction = Direction(dir)
			default:
				return nil, NewError(ErrInvalidQuery,
					fmt.Sprintf("invalid sort direction %q for field %q", dir, field)).
					WithField(field)
			}
		}

		sorts = append(sorts, SortField{Field: field, Direction: direction})
	}
	return sorts, nil
}
