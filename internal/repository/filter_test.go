package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilterClauses(t *testing.T) {
	tests := []struct {
		name      string
		filter    CatalogFilter
		withYear  bool
		wantSQL   string
		wantArgs  []interface{}
	}{
		{
			name:     "empty",
			filter:   CatalogFilter{},
			withYear: true,
			wantSQL:  "",
			wantArgs: nil,
		},
		{
			name:     "search only",
			filter:   CatalogFilter{Search: "gilmore"},
			withYear: true,
			wantSQL:  " AND (title ILIKE $1 OR description ILIKE $2)",
			wantArgs: []interface{}{"%gilmore%", "%gilmore%"},
		},
		{
			name:     "genre substring",
			filter:   CatalogFilter{Genre: "Com"},
			withYear: true,
			wantSQL:  " AND genres ILIKE $1",
			wantArgs: []interface{}{"%Com%"},
		},
		{
			name:     "all filters",
			filter:   CatalogFilter{Search: "happy", Genre: "Comedy", Year: 2025},
			withYear: true,
			wantSQL:  " AND (title ILIKE $1 OR description ILIKE $2) AND genres ILIKE $3 AND year = $4",
			wantArgs: []interface{}{"%happy%", "%happy%", "%Comedy%", 2025},
		},
		{
			name:     "year ignored for series",
			filter:   CatalogFilter{Year: 2025},
			withYear: false,
			wantSQL:  "",
			wantArgs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildFilterClauses(&tt.filter, tt.withYear, 1)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOrderClauseWhitelist(t *testing.T) {
	assert.Equal(t, " ORDER BY upload_date DESC NULLS LAST", (&CatalogFilter{}).OrderClause())
	assert.Equal(t, " ORDER BY rating DESC NULLS LAST", (&CatalogFilter{Sort: "rating"}).OrderClause())

	// Anything outside the whitelist never reaches the SQL text.
	malicious := &CatalogFilter{Sort: "upload_date; DROP TABLE movies--"}
	assert.Equal(t, " ORDER BY upload_date DESC NULLS LAST", malicious.OrderClause())
}

func TestNormalizeDefaults(t *testing.T) {
	f := CatalogFilter{Page: 0, Limit: -5}
	f.Normalize()
	assert.Equal(t, DefaultPage, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, 0, f.Offset())

	f = CatalogFilter{Page: 3, Limit: 20}
	assert.Equal(t, 40, f.Offset())
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total, limit, wantPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
	}
	for _, tt := range tests {
		f := &CatalogFilter{Page: 1, Limit: tt.limit}
		p := NewPagination(f, tt.total)
		assert.Equal(t, tt.wantPages, p.Pages, "total=%d limit=%d", tt.total, tt.limit)
		assert.Equal(t, tt.total, p.Total)
	}
}
