package gorelay

import (
	"database/sql/driver"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// PaginationQuery applies a seek predicate, an ordering and a limit to a
// private clone of a query. Every method returns a new PaginationQuery; neither
// the receiver nor the builder passed to NewPaginationQuery is ever modified.
//
// Usage:
//
//	db := NewPaginationQuery(base).
//		Filter(cursor, OperatorGT).
//		OrderBy(keys, DirectionASC).
//		Take(10).
//		Build()
type PaginationQuery struct {
	db *gorm.DB
}

// cloneDB returns a builder whose next chained call copies the statement, so
// the source stays untouched.
func cloneDB(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{})
}

func NewPaginationQuery(db *gorm.DB) *PaginationQuery {
	return &PaginationQuery{db: cloneDB(db)}
}

// Filter adds the predicate "the tuple of cursor columns is lexicographically
// op-than the cursor tuple":
//
//	(k1 op v1) OR (k1 = v1 AND k2 op v2) OR (k1 = v1 AND k2 = v2 AND k3 op v3) ...
//
// Empty seek or OperatorEQ apply no predicate. Any other operator but
// OperatorGT and OperatorLT leaves an ErrInvalidFilter on the builder, so the
// query fails when executed.
func (q *PaginationQuery) Filter(seek PaginationFilters, op Operator) *PaginationQuery {
	if len(seek) == 0 || op == OperatorEQ {
		return q.with(cloneDB(q.db))
	}

	if !op.IsSeek() {
		db := cloneDB(q.db)
		_ = db.AddError(invalidFilterf("operator '%s' cannot be used for seeking", op))

		return q.with(db)
	}

	exp := seekDNF(seek, op).toGORMExpression()

	return q.with(cloneDB(q.db).Clauses(exp))
}

// OrderBy orders by keys, all in the same direction. Keys must be the same list,
// in the same order, as the columns used by Filter.
func (q *PaginationQuery) OrderBy(keys []string, order Direction) *PaginationQuery {
	return q.with(NewOrderings(keys, order).Apply(cloneDB(q.db)))
}

// Take limits the number of returned rows.
func (q *PaginationQuery) Take(limit int) *PaginationQuery {
	return q.with(cloneDB(q.db).Limit(limit))
}

// Build returns an independent builder. The PaginationQuery stays reusable.
func (q *PaginationQuery) Build() *gorm.DB {
	return cloneDB(q.db)
}

func (q *PaginationQuery) with(db *gorm.DB) *PaginationQuery {
	return &PaginationQuery{db: db}
}

// SeekToSQL renders the seek predicate as raw SQL with "?" placeholders.
// Returns "TRUE" for an empty cursor. Operators other than OperatorGT,
// OperatorLT and OperatorEQ yield ErrInvalidFilter.
//
// Usage:
//
//	where, args, err := SeekToSQL(cursor, OperatorGT)
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", where)
func SeekToSQL(seek PaginationFilters, op Operator) (string, []driver.Value, error) {
	if len(seek) == 0 || op == OperatorEQ {
		return "TRUE", nil, nil
	}

	if !op.IsSeek() {
		return "", nil, invalidFilterf("operator '%s' cannot be used for seeking", op)
	}

	sql, args := seekDNF(seek, op).toSQLClause()

	return sql, args, nil
}

func seekDNF(seek PaginationFilters, op Operator) tDNF {
	ops := lo.Times(len(seek), func(_ int) Operator { return op })

	return newSeekDNF(seek, ops)
}
