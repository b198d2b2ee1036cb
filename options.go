package gorelay

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PagingDirection tells which end of the set a cursorless request starts from.
type PagingDirection string

const (
	PagingNext     PagingDirection = "NEXT"
	PagingPrevious PagingDirection = "PREVIOUS"
)

// PaginatorOptions configures one pagination request.
//
// UniqueKey is appended to Keys when missing, so the key list always defines a
// total order. Zero Order, Direction and Limit take ASC, NEXT and DefaultLimit.
type PaginatorOptions struct {
	UniqueKey    string          `validate:"required,column"`
	Keys         []string        `validate:"required,min=1,dive,column"`
	Order        Direction       `validate:"oneof=ASC DESC"`
	Limit        int             `validate:"min=1"`
	AfterCursor  string          `validate:"-"`
	BeforeCursor string          `validate:"-"`
	Direction    PagingDirection `validate:"oneof=NEXT PREVIOUS"`
}

var _validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		return validColumnName(fl.Field().String())
	})

	return v
}

// normalized fills defaults and appends the unique key. The receiver is not
// modified.
func (o PaginatorOptions) normalized() PaginatorOptions {
	if o.Order == "" {
		o.Order = DirectionASC
	}
	if o.Direction == "" {
		o.Direction = PagingNext
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}

	keys := make([]string, 0, len(o.Keys)+1)
	for _, key := range o.Keys {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 && o.UniqueKey != "" && !slices.Contains(keys, o.UniqueKey) {
		keys = append(keys, o.UniqueKey)
	}
	o.Keys = keys

	return o
}

// Validate reports configuration errors. All of them wrap ErrInvalidOptions.
func (o PaginatorOptions) Validate() error {
	return o.normalized().validate()
}

func (o PaginatorOptions) validate() error {
	if err := _validate.Struct(o); err != nil {
		return invalidOptionsf("%s", describeValidationError(err))
	}

	if o.Limit > MaxLimit {
		return invalidOptionsf("limit %d exceeds %d", o.Limit, MaxLimit)
	}

	if o.AfterCursor != "" && o.BeforeCursor != "" {
		return invalidOptionsf("after and before cursors cannot be combined")
	}

	return nil
}

// Orderings returns the base ordering over the key list.
func (o PaginatorOptions) Orderings() Orderings {
	n := o.normalized()

	return NewOrderings(n.Keys, n.Order)
}

func describeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s' (value '%v')", fieldErr.Field(), fieldErr.Tag(), fieldErr.Value()))
	}

	return strings.Join(msgs, "; ")
}
