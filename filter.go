package gorelay

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// FilterField is a leaf comparison "Name Op Val". Name is a qualified column
	// identifier and is embedded into SQL text, so it must come from a closed
	// enumeration (see FilterNode.ResolveColumns). Val is always bound.
	FilterField struct {
		Name string   `json:"name"`
		Op   Operator `json:"op"`
		Val  any      `json:"val"`
	}

	// FilterNode is one node of a boolean expression tree. At most one of
	// Field, AND and OR is set.
	FilterNode struct {
		Field *FilterField `json:"field,omitempty"`
		AND   []FilterNode `json:"AND,omitempty"`
		OR    []FilterNode `json:"OR,omitempty"`
	}
)

// Field builds a leaf node.
func Field(name string, op Operator, val any) FilterNode {
	return FilterNode{Field: &FilterField{Name: name, Op: op, Val: val}}
}

// And builds an AND group.
func And(nodes ...FilterNode) FilterNode {
	return FilterNode{AND: append([]FilterNode{}, nodes...)}
}

// Or builds an OR group.
func Or(nodes ...FilterNode) FilterNode {
	return FilterNode{OR: append([]FilterNode{}, nodes...)}
}

// NewFilterNode builds a node from its parts and fails if more than one of
// them is set.
func NewFilterNode(field *FilterField, and, or []FilterNode) (*FilterNode, error) {
	node := &FilterNode{Field: field, AND: and, OR: or}
	if err := node.validateShape(); err != nil {
		return nil, err
	}

	return node, nil
}

// IsEmpty reports whether the node carries neither a leaf nor a group.
func (n *FilterNode) IsEmpty() bool {
	return n == nil || (n.Field == nil && n.AND == nil && n.OR == nil)
}

// UnmarshalJSON decodes a node and rejects nodes mixing a leaf with a group.
func (n *FilterNode) UnmarshalJSON(data []byte) error {
	type rawFilterNode FilterNode

	var raw rawFilterNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	node := FilterNode(raw)
	if err := node.validateShape(); err != nil {
		return err
	}

	*n = node

	return nil
}

func (n *FilterNode) validateShape() error {
	set := lo.Count([]bool{n.Field != nil, n.AND != nil, n.OR != nil}, true)
	if set > 1 {
		return invalidFilterf("node declares more than one of field, AND, OR")
	}

	return nil
}

// Validate checks the whole tree: node shapes, operators, column identifiers
// and values.
func (n *FilterNode) Validate() error {
	if n.IsEmpty() {
		return nil
	}

	_, err := compileNode(*n)

	return err
}

// ResolveColumns returns a copy of the tree with every leaf name mapped from a
// client alias to a qualified column through columnMapping. Unknown aliases are
// rejected.
func (n *FilterNode) ResolveColumns(columnMapping ColumnMapping) (*FilterNode, error) {
	if n == nil {
		return nil, nil
	}

	if err := n.validateShape(); err != nil {
		return nil, err
	}

	ret := &FilterNode{}
	switch {
	case n.Field != nil:
		column, err := resolveColumn(n.Field.Name, columnMapping)
		if err != nil {
			return nil, invalidFilterf("%v", err)
		}

		ret.Field = &FilterField{Name: column, Op: n.Field.Op, Val: n.Field.Val}
	case n.AND != nil:
		children, err := resolveChildren(n.AND, columnMapping)
		if err != nil {
			return nil, err
		}

		ret.AND = children
	case n.OR != nil:
		children, err := resolveChildren(n.OR, columnMapping)
		if err != nil {
			return nil, err
		}

		ret.OR = children
	}

	return ret, nil
}

func resolveChildren(nodes []FilterNode, columnMapping ColumnMapping) ([]FilterNode, error) {
	ret := make([]FilterNode, 0, len(nodes))
	for i := range nodes {
		child, err := nodes[i].ResolveColumns(columnMapping)
		if err != nil {
			return nil, err
		}

		ret = append(ret, *child)
	}

	return ret, nil
}

// ApplyFilter compiles the tree and ANDs it onto a clone of db. A nil or empty
// node returns db unchanged.
//
// Example: {OR: [a, b, {AND: [c, d]}]} renders as "(a OR b OR (c AND d))".
func ApplyFilter(db *gorm.DB, node *FilterNode) (*gorm.DB, error) {
	if node.IsEmpty() {
		return db, nil
	}

	expr, err := compileNode(*node)
	if err != nil {
		return nil, err
	}

	return cloneDB(db).Clauses(expr), nil
}

func compileNode(node FilterNode) (clause.Expression, error) {
	if err := node.validateShape(); err != nil {
		return nil, err
	}

	switch {
	case node.Field != nil:
		return compileField(*node.Field)
	case node.AND != nil:
		return compileAnd(node.AND)
	case node.OR != nil:
		return compileOr(node.OR)
	default:
		return nil, invalidFilterf("empty filter node")
	}
}

// compileAnd brackets its children with AND. OR children go through compileOr
// and come back bracketed, so precedence is kept.
func compileAnd(nodes []FilterNode) (clause.Expression, error) {
	if len(nodes) == 0 {
		return nil, invalidFilterf("empty AND group")
	}

	exprs := make([]clause.Expression, 0, len(nodes))
	for _, child := range nodes {
		expr, err := compileNode(child)
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, expr)
	}

	// A lone child needs no group.
	if len(exprs) == 1 {
		return exprs[0], nil
	}

	return clause.AndConditions{Exprs: exprs}, nil
}

// compileOr brackets its children with OR, recursing into AND groups through
// compileAnd.
func compileOr(nodes []FilterNode) (clause.Expression, error) {
	if len(nodes) == 0 {
		return nil, invalidFilterf("empty OR group")
	}

	exprs := make([]clause.Expression, 0, len(nodes))
	for _, child := range nodes {
		expr, err := compileNode(child)
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, expr)
	}

	// gorm joins a one-element OR group to the previous WHERE condition with
	// OR, which would escape the caller's scope.
	if len(exprs) == 1 {
		return exprs[0], nil
	}

	return clause.OrConditions{Exprs: exprs}, nil
}

func compileField(field FilterField) (clause.Expression, error) {
	if !validColumnName(field.Name) {
		return nil, invalidFilterf("column name contains forbidden symbols '%s'", field.Name)
	}

	if !field.Op.Valid() {
		return nil, invalidFilterf("invalid operator '%s' for column '%s'", field.Op, field.Name)
	}

	value, err := normalizeFilterValue(field.Val)
	if err != nil {
		return nil, invalidFilterf("column '%s': %v", field.Name, err)
	}

	switch value.(type) {
	case nil, []any:
		if field.Op != OperatorEQ && field.Op != OperatorNEQ {
			return nil, invalidFilterf("operator '%s' cannot be used with a list or null value for column '%s'", field.Op, field.Name)
		}
	}

	conjunct := tConjunct{Column: field.Name, Operator: field.Op, Value: value}

	return conjunct.toGORMExpression(), nil
}

// normalizeFilterValue turns any slice or array into []any and rejects
// composite values that cannot be bound.
func normalizeFilterValue(v any) (any, error) {
	switch v.(type) {
	case nil:
		return nil, nil
	case []byte, time.Time, driver.Valuer:
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, errors.New("empty value list")
		}

		ret := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i).Interface()
			if item == nil {
				return nil, errors.New("null inside value list")
			}

			switch reflect.ValueOf(item).Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				if _, ok := item.([]byte); !ok {
					return nil, errors.New("nested value lists are not supported")
				}
			}

			ret = append(ret, item)
		}

		return ret, nil
	case reflect.Map, reflect.Struct:
		return nil, fmt.Errorf("unsupported value type %T", v)
	default:
		return v, nil
	}
}
