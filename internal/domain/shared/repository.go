package shared

// Filter is the paging, ordering and search part of every list query.
// Typed filters embed it and add their own criteria.
type Filter struct {
	Page     int
	PageSize int
	// OrderBy is a column name checked against a whitelist by the repository
	OrderBy  string
	OrderDir string
	Search   string
	// Filters holds simple equality criteria keyed by column
	Filters map[string]any
}

// DefaultFilter is page one of twenty, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Override returns f with every non-zero argument applied
func (f Filter) Override(page, pageSize int, orderBy, orderDir string) Filter {
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}

// Where sets an equality criterion
func (f *Filter) Where(column string, value any) {
	if f.Filters == nil {
		f.Filters = make(map[string]any)
	}
	f.Filters[column] = value
}

// Offset is the number of rows before the requested page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
