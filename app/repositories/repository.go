// Package repositories holds the hand-written, parameterized SQL for every
// entity. Each repository is bound to a *gorm.DB that is either the shared
// pool or an open transaction; WithTx rebinds it so several repositories can
// take part in one unit of work.
//
// Only Raw and Exec are used. Placeholders are written as ? and rebound by
// the dialect ($1.. on PostgreSQL).
package repositories

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Now is the timestamp written to created_at/updated_at columns. UTC and
// whole seconds so that SQLite's text timestamps compare correctly.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Page is a validated page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page to >= 1 and limit to 1..100 (default 20).
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// Pagination is returned alongside list results.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func (p Page) Paginate(total int64) Pagination {
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// likePattern lower-cases q and escapes LIKE wildcards. Pair it with
// LOWER(column) LIKE ? ESCAPE '\'.
func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
