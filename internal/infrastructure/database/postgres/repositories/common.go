// Package repositories contains the PostgreSQL implementations of the
// domain repository interfaces. Queries are parameterised throughout and
// writes to existing rows use optimistic locking on the version column.
package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// defaultPageSize is used when a caller hands a repository an unvalidated
// page.
const defaultPageSize = 20

// argBuilder collects positional query arguments and hands out the matching
// placeholder for each.
type argBuilder struct {
	args []interface{}
}

func (b *argBuilder) add(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// ilikePattern wraps a user-supplied fragment for a substring ILIKE match.
func ilikePattern(q string) string {
	return "%" + q + "%"
}

// pageWindow clamps pagination to sane bounds and returns the LIMIT and
// OFFSET values.
func pageWindow(page common.Pagination) (limit, offset int) {
	size := page.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	p := page.Page
	if p < 1 {
		p = 1
	}
	return size, (p - 1) * size
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
