package credits

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page holds pagination metadata for a transaction history query.
type Page struct {
	Number       int   `json:"page"`
	Size         int   `json:"limit"`
	TotalRecords int64 `json:"total_records"`
	TotalPages   int   `json:"total_pages"`
	HasNextPage  bool  `json:"has_next_page"`
	HasPrevPage  bool  `json:"has_prev_page"`
}

// ClampPage normalizes a requested page number; anything below 1 becomes 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampLimit normalizes a requested page size into [1, MaxPageSize], with
// zero or negative values falling back to the default.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// NewPage computes paging metadata for the given (already clamped) page and
// limit against a total record count.
func NewPage(page, limit int, total int64) Page {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{
		Number:       page,
		Size:         limit,
		TotalRecords: total,
		TotalPages:   totalPages,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}
