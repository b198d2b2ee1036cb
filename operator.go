package gorelay

import (
	"fmt"
	"slices"
)

// Operator defines a comparison operator between a column and a value. The set
// is closed: anything outside of it is rejected before SQL generation.
type Operator string

const (
	OperatorEQ  Operator = "="
	OperatorNEQ Operator = "<>"
	OperatorLT  Operator = "<"
	OperatorLTE Operator = "<="
	OperatorGT  Operator = ">"
	OperatorGTE Operator = ">="
)

var _operators = []Operator{OperatorEQ, OperatorNEQ, OperatorLT, OperatorLTE, OperatorGT, OperatorGTE}

// Valid reports whether the operator belongs to the allowed set.
func (o Operator) Valid() bool {
	return slices.Contains(_operators, o)
}

// IsSeek reports whether the operator can drive a seek predicate.
func (o Operator) IsSeek() bool {
	return o == OperatorLT || o == OperatorGT
}

// Flip returns the strict operator of the opposite direction.
func (o Operator) Flip() Operator {
	switch o {
	case OperatorGT:
		return OperatorLT
	case OperatorLT:
		return OperatorGT
	default:
		panic(fmt.Errorf("cannot flip operator '%s'", o))
	}
}
