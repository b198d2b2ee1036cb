package gorelay

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

type (
	tConjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF represents the disjunctive normal form (DNF) of a logical expression.
	// Each disjunct is joined by OR, and each disjunct consists of a list of
	// conjuncts which are joined by AND. A conjunct is the value of
	// Operator(Column, Value).
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//
	// The seek predicate is a DNF shaped like a staircase:
	//
	//	(k1 op v1) OR (k1 = v1 AND k2 op v2) OR (k1 = v1 AND k2 = v2 AND k3 op v3)
	tDNF []tDisjunct
)

// newSeekDNF builds the staircase for a cursor. Operators are taken per column
// from ops, which must be as long as filters.
func newSeekDNF(filters PaginationFilters, ops []Operator) tDNF {
	dnf := make(tDNF, 0, len(filters))
	for i := range filters {
		disjunct := make(tDisjunct, 0, i+1)
		for _, prev := range filters[:i] {
			disjunct = append(disjunct, tConjunct{Column: prev.Column, Value: prev.Value, Operator: OperatorEQ})
		}
		disjunct = append(disjunct, tConjunct{Column: filters[i].Column, Value: filters[i].Value, Operator: ops[i]})

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// toGORMExpression converts a conjunct of the form Operator(Column, Value)
// into an SQL condition "Column Operator ?" represented as a clause.Expression.
//
// Slices render as IN / NOT IN, nil renders as IS NULL / IS NOT NULL.
func (c tConjunct) toGORMExpression() clause.Expression {
	sqlClause, arg := c.toSQLClause()
	if arg == nil {
		return clause.Expr{SQL: sqlClause}
	}

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// toSQLClause converts a conjunct to an SQL condition of the form
// "Column Operator ?" with a corresponding value. A nil value means the
// condition carries no placeholder.
//
// Example:
//
//	tConjunct = { Column: "id", Operator: ">", Value: 123}
//
// Result:
//
//	("id > ?", 123)
func (c tConjunct) toSQLClause() (string, driver.Value) {
	switch v := c.Value.(type) {
	case nil:
		switch c.Operator {
		case OperatorEQ:
			return fmt.Sprintf("%s IS NULL", c.Column), nil
		case OperatorNEQ:
			return fmt.Sprintf("%s IS NOT NULL", c.Column), nil
		default:
			return fmt.Sprintf("%s %s NULL", c.Column, c.Operator), nil
		}
	case []any:
		if c.Operator == OperatorNEQ {
			return fmt.Sprintf("%s NOT IN ?", c.Column), v
		}

		return fmt.Sprintf("%s IN ?", c.Column), v
	}

	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), c.Value
}

// toGORMExpression converts a disjunct (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3" where each Ki is expanded via tConjunct.toGORMExpression.
func (d tDisjunct) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, conjunct := range d {
		andExpressions = append(andExpressions, conjunct.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toSQLClause converts a disjunct (K1, K2, K3) into an SQL condition
// "(K1 AND K2 AND K3)" with corresponding values.
//
// Example:
//
//	tDisjunct = {
//		{Column: "id", Operator: ">", Value: 5},
//		{Column: "name", Operator: "<", Value: "abc"}
//	}
//
// Result:
//
//	("(id > ? AND name < ?)", [5, "abc"])
func (d tDisjunct) toSQLClause() (string, []driver.Value) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]driver.Value, 0, len(d))

	for _, conjunct := range d {
		andClause, andValue := conjunct.toSQLClause()
		andClauses = append(andClauses, andClause)
		if andValue != nil {
			andValues = append(andValues, andValue)
		}
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// toGORMExpression joins disjuncts with OR. A single disjunct is returned
// unwrapped: gorm would otherwise attach a one-element OR group to the
// preceding WHERE conditions with OR.
func (d tDNF) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, disjunct := range d {
		andExpressions := disjunct.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// toSQLClause converts a DNF into an SQL condition.
//
// Example:
//
//	tDNF = {
//		{{Column: "id", Operator: "<", Value: 10}},
//		{{Column: "id", Operator: "=", Value: 10}, {Column: "name", Operator: "<", Value: "abc"}},
//	}
//
// Result:
//
//	("((id < ?) OR (id = ? AND name < ?))", [10, 10, "abc"])
func (d tDNF) toSQLClause() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, disjunct := range d {
		orClause, orValues := disjunct.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}
