package gorelay

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// Flip returns the opposite direction.
func (o Direction) Flip() Direction {
	return lo.Ternary(o == DirectionDESC, DirectionASC, DirectionDESC)
}

func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// It is the closed enumeration every client-supplied column must pass through.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// validColumnName guards against SQL injection by restricting allowed
// characters in column names.
func validColumnName(column string) bool {
	return column != "" && lo.Every(_availableColumnNameSymbols, []rune(column))
}

// NewOrderings applies one direction to every key, preserving key order.
func NewOrderings(keys []string, direction Direction) Orderings {
	return lo.Map(keys, func(key string, _ int) OrderBy {
		return OrderBy{Column: key, Direction: direction}
	})
}

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	if !validColumnName(o.Column) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// Flip returns a copy with every direction reversed.
func (o Orderings) Flip() Orderings {
	return lo.Map(o, func(ordering OrderBy, _ int) OrderBy {
		return OrderBy{Column: ordering.Column, Direction: ordering.Direction.Flip()}
	})
}

// Columns returns the ordered column list.
func (o Orderings) Columns() []string {
	return lo.Map(o, func(ordering OrderBy, _ int) string {
		return ordering.Column
	})
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>".
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	var err error
	for _, ordering := range o {
		err = ordering.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// Uniform returns the single direction shared by every ordering. Keyset
// pagination seeks all keys one way, so mixed directions are rejected.
func (o Orderings) Uniform() (Direction, error) {
	if err := o.validate(); err != nil {
		return "", err
	}

	direction := o[0].Direction
	for _, ordering := range o[1:] {
		if ordering.Direction != direction {
			return "", fmt.Errorf("mixed ordering directions '%s' and '%s'", direction, ordering.Direction)
		}
	}

	return direction, nil
}

// ResolveColumns maps client aliases to qualified column names. Returns an
// error naming the closest known alias if any of them is unknown.
func ResolveColumns(aliases []ColumnAlias, columnMapping ColumnMapping) ([]string, error) {
	ret := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		column, err := resolveColumn(alias, columnMapping)
		if err != nil {
			return nil, err
		}

		ret = append(ret, column)
	}

	return ret, nil
}

func resolveColumn(alias ColumnAlias, columnMapping ColumnMapping) (string, error) {
	columnName := columnMapping[strings.TrimSpace(alias)]
	if columnName == "" {
		return "", fmt.Errorf("invalid column alias '%s'. closest: '%s'", alias, closestAlias(alias, lo.Keys(columnMapping)))
	}

	return columnName, nil
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". Column aliases are resolved via ColumnMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make([]OrderBy, 0, len(stringsOrderings))

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
		}

		columnName, err := resolveColumn(cutStringOrdering[0], columnMapping)
		if err != nil {
			return nil, err
		}

		ret = append(ret, OrderBy{
			Column:    columnName,
			Direction: Direction(strings.ToUpper(cutStringOrdering[1])),
		})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
