package repository

import (
	"fmt"
	"strings"

	"github.com/shadowplex/shadowplex/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// CatalogFilter describes a listing request for either catalog kind.
// Year only applies to movies; series listings ignore it.
type CatalogFilter struct {
	Page   int
	Limit  int
	Search string
	Genre  string
	Year   int
	Sort   string
}

// Normalize clamps the page window to sane values.
func (f *CatalogFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
}

func (f *CatalogFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// sortColumns is the whitelist of ORDER BY targets. The stored column is
// interpolated into the query, so anything outside this map falls back to
// upload_date rather than reaching the SQL text.
var sortColumns = map[string]string{
	"upload_date": "upload_date",
	"rating":      "rating",
	"year":        "year",
	"title":       "title",
	"popularity":  "popularity",
}

// OrderClause returns the ORDER BY fragment. Listings are always
// descending; there is no ascending option.
func (f *CatalogFilter) OrderClause() string {
	col, ok := sortColumns[f.Sort]
	if !ok {
		col = "upload_date"
	}
	return fmt.Sprintf(" ORDER BY %s DESC NULLS LAST", col)
}

// buildFilterClauses builds the WHERE fragment and args shared by the
// rows query and the count query, so both are computed from the same
// predicate. paramStart is the next free parameter index. withYear is
// true for movies only.
func buildFilterClauses(f *CatalogFilter, withYear bool, paramStart int) (string, []interface{}) {
	var wheres []string
	var args []interface{}
	p := paramStart

	if f.Search != "" {
		wheres = append(wheres, fmt.Sprintf(`(title ILIKE $%d OR description ILIKE $%d)`, p, p+1))
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
		p += 2
	}
	// Substring match over the stored ", "-joined genres text. This is a
	// deliberate compatibility shim: "Com" matches "Comedy, Action".
	if f.Genre != "" {
		wheres = append(wheres, fmt.Sprintf(`genres ILIKE $%d`, p))
		args = append(args, "%"+f.Genre+"%")
		p++
	}
	if withYear && f.Year != 0 {
		wheres = append(wheres, fmt.Sprintf(`year = $%d`, p))
		args = append(args, f.Year)
		p++
	}

	whereSQL := ""
	if len(wheres) > 0 {
		whereSQL = " AND " + strings.Join(wheres, " AND ")
	}
	return whereSQL, args
}

// NewPagination computes the page window for a listing response.
func NewPagination(f *CatalogFilter, total int) models.Pagination {
	pages := (total + f.Limit - 1) / f.Limit
	return models.Pagination{
		Page:  f.Page,
		Limit: f.Limit,
		Total: total,
		Pages: pages,
	}
}
