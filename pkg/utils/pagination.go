package utils

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PaginationParams holds pagination request parameters
type PaginationParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginationMeta holds pagination response metadata. Total and TotalPages are nil when
// the total could not be determined.
type PaginationMeta struct {
	Total       *int64 `json:"total"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	TotalPages  *int   `json:"totalPages"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
}

// GetPaginationParams extracts page and limit with defaults
// Default: page=1, limit=DefaultPageLimit, capped at MaxPageLimit
func GetPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

// CalculateOffset returns the SQL offset
func (p PaginationParams) CalculateOffset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// CalculateMeta generates pagination metadata from a known total
func CalculateMeta(totalCount int64, page, limit int) PaginationMeta {
	total := totalCount
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalCount + int64(limit) - 1) / int64(limit))
	}

	return PaginationMeta{
		Total:       &total,
		Page:        page,
		Limit:       limit,
		TotalPages:  &totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// CalculateMetaUnknownTotal generates metadata when only the page size is known. A full
// page is taken as a hint that another page may exist.
func CalculateMetaUnknownTotal(page, limit, pageItems int) PaginationMeta {
	return PaginationMeta{
		Page:        page,
		Limit:       limit,
		HasNextPage: limit > 0 && pageItems >= limit,
		HasPrevPage: page > 1,
	}
}
