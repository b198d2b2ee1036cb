package gorelay

import "github.com/samber/lo"

// PaginationInput is the client-facing request shape. Fields holds column
// aliases that replace the default keys; they are resolved through a
// ColumnMapping so clients never name raw columns. Sort does the same with
// "alias asc|desc" entries and also sets the order, which must be the same for
// every entry.
type PaginationInput struct {
	After  *string  `json:"after,omitempty"`
	Before *string  `json:"before,omitempty"`
	First  *int     `json:"first,omitempty"`
	Last   *int     `json:"last,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Sort   []string `json:"sort,omitempty"`
}

// Options merges the input into defaults. First pages towards the NEXT end,
// Last and Before towards the PREVIOUS end. Limits are clamped with
// NormalizeLimit. Empty cursor strings count as absent.
func (in PaginationInput) Options(defaults PaginatorOptions, columnMapping ColumnMapping) (PaginatorOptions, error) {
	opts := defaults

	if in.First != nil && in.Last != nil {
		return PaginatorOptions{}, invalidOptionsf("first and last cannot be combined")
	}

	switch {
	case in.First != nil:
		if *in.First < 0 {
			return PaginatorOptions{}, invalidOptionsf("first must not be negative, got %d", *in.First)
		}

		opts.Limit = NormalizeLimit(*in.First)
		opts.Direction = PagingNext
	case in.Last != nil:
		if *in.Last < 0 {
			return PaginatorOptions{}, invalidOptionsf("last must not be negative, got %d", *in.Last)
		}

		opts.Limit = NormalizeLimit(*in.Last)
		opts.Direction = PagingPrevious
	}

	opts.AfterCursor = lo.FromPtr(in.After)
	opts.BeforeCursor = lo.FromPtr(in.Before)
	if opts.BeforeCursor != "" {
		opts.Direction = PagingPrevious
	}

	if len(in.Fields) > 0 && len(in.Sort) > 0 {
		return PaginatorOptions{}, invalidOptionsf("fields and sort cannot be combined")
	}

	if len(in.Sort) > 0 {
		orderings, err := ParseSort(in.Sort, columnMapping)
		if err != nil {
			return PaginatorOptions{}, invalidOptionsf("%v", err)
		}

		order, err := orderings.Uniform()
		if err != nil {
			return PaginatorOptions{}, invalidOptionsf("%v", err)
		}

		opts.Keys = orderings.Columns()
		opts.Order = order
	}

	if len(in.Fields) > 0 {
		keys, err := ResolveColumns(in.Fields, columnMapping)
		if err != nil {
			return PaginatorOptions{}, invalidOptionsf("%v", err)
		}

		opts.Keys = keys
	}

	if err := opts.Validate(); err != nil {
		return PaginatorOptions{}, err
	}

	return opts, nil
}
