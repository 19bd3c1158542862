package persistence

import (
	"strings"

	"github.com/erp/salescore/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns whitelists the orderings a listing accepts. Keys are the
// camelCase names clients send; the snake_case column name is accepted
// as well. Anything else falls back, so user input never reaches ORDER BY.
type sortColumns struct {
	fallback string
	byName   map[string]string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	s := sortColumns{fallback: fallback, byName: make(map[string]string, 2*len(columns))}
	for _, col := range columns {
		s.byName[col] = col
		s.byName[camelCase(col)] = col
	}
	return s
}

// column resolves a requested sort key
func (s sortColumns) column(requested string) string {
	if col, ok := s.byName[strings.TrimSpace(requested)]; ok {
		return col
	}
	return s.fallback
}

var (
	salesDocumentSort = newSortColumns("created_at",
		"created_at", "updated_at", "document_no", "document_date", "customer_code", "net_total", "status")
	arInvoiceSort = newSortColumns("created_at",
		"created_at", "invoice_no", "document_date", "due_date", "outstanding_amount")
	customerSort  = newSortColumns("code", "created_at", "updated_at", "code", "name")
	userGroupSort = newSortColumns("code", "created_at", "code", "name")
)

// sortDirection only ever yields ASC or DESC; DESC is the default
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// paginate orders and pages a listing. id breaks ties so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, cols sortColumns) *gorm.DB {
	query = query.Order(cols.column(filter.OrderBy) + " " + sortDirection(filter.OrderDir)).Order("id")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern wraps a search term for a contains match with LIKE
// metacharacters escaped.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

func camelCase(column string) string {
	parts := strings.Split(column, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
