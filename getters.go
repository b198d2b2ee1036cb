package gorelay

import "fmt"

// Getters maps each key column to a function reading its value from a row.
// It must cover every column the rows are paginated by.
// Example:
//
//	gorelay.Getters[models.Message]{
//		"messages.id":         func(m models.Message) any { return m.ID },
//		"messages.created_at": func(m models.Message) any { return m.CreatedAt },
//	}
type Getters[T any] map[string]func(T) any

func (g Getters[T]) validate(columns []string) error {
	for _, column := range columns {
		if _, ok := g[column]; !ok {
			return fmt.Errorf("cannot find getter for column '%s' met in ordering", column)
		}
	}

	return nil
}

// project returns the row's values for columns, in order.
func (g Getters[T]) project(row T, columns []string) (PaginationFilters, error) {
	ret := make(PaginationFilters, 0, len(columns))
	for _, column := range columns {
		getter, ok := g[column]
		if !ok {
			return nil, fmt.Errorf("cannot find getter for column '%s' met in ordering", column)
		}

		ret = append(ret, PaginationFilter{Column: column, Value: getter(row)})
	}

	return ret, nil
}

// Cursor builds the cursor token of a row for the given key columns.
func (g Getters[T]) Cursor(row T, columns []string) (string, error) {
	filters, err := g.project(row, columns)
	if err != nil {
		return "", err
	}

	return EncodeCursor(filters)
}
