package gorelay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Direction_Valid_And_ForOperator(t *testing.T) {
	tests := []struct {
		name     string
		in       Direction
		valid    bool
		operator Operator
		panicExp bool
	}{
		{"ASC valid maps to GT", DirectionASC, true, OperatorGT, false},
		{"DESC valid maps to LT", DirectionDESC, true, OperatorLT, false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.valid {
			t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
		}
		if !tt.panicExp {
			if got := tt.in.ForOperator(); got != tt.operator {
				t.Errorf("%s: ForOperator=%v want %v", tt.name, got, tt.operator)
			}
		}
	}
}

func Test_Orderings_Uniform(t *testing.T) {
	tests := []struct {
		name string
		ord  Orderings
		want Direction
		ok   bool
	}{
		{"empty returns error", Orderings{}, "", false},
		{"invalid direction", Orderings{{Column: "id", Direction: "bad"}}, "", false},
		{"forbidden column symbols", Orderings{{Column: "id;drop", Direction: DirectionASC}}, "", false},
		{"mixed directions", Orderings{{Column: "a", Direction: DirectionASC}, {Column: "b", Direction: DirectionDESC}}, "", false},
		{"single ordering", Orderings{{Column: "id", Direction: DirectionASC}}, DirectionASC, true},
		{"shared direction", Orderings{{Column: "a", Direction: DirectionDESC}, {Column: "b", Direction: DirectionDESC}}, DirectionDESC, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ord.Uniform()
			if (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_ParseSort(t *testing.T) {
	mapping := ColumnMapping{
		"id":   "t.id",
		"name": "t.name",
	}

	tests := []struct {
		name  string
		in    []string
		ok    bool
		first OrderBy
	}{
		{"invalid format", []string{"id"}, false, OrderBy{}},
		{"unknown alias", []string{"idx asc"}, false, OrderBy{}},
		{"valid asc", []string{"id asc"}, true, OrderBy{Column: "t.id", Direction: DirectionASC}},
		{"valid desc", []string{"name desc"}, true, OrderBy{Column: "t.name", Direction: DirectionDESC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.in, mapping)
			if (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
				return
			}
			if tt.ok {
				if len(got) == 0 || got[0] != tt.first {
					t.Errorf("%s: first=%v want %v", tt.name, got, tt.first)
				}
			}
		})
	}
}

func Test_closestAlias(t *testing.T) {
	aliases := []ColumnAlias{"id", "name", "created_at"}
	tests := []struct {
		name string
		in   ColumnAlias
		out  ColumnAlias
	}{
		{"closest to id", "idx", "id"},
		{"closest to name", "nme", "name"},
		{"closest to created_at", "createdat", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := closestAlias(tt.in, aliases); got != tt.out {
				t.Errorf("%s: got %s want %s", tt.name, got, tt.out)
			}
		})
	}
}

func Test_Direction_Flip(t *testing.T) {
	if DirectionASC.Flip() != DirectionDESC || DirectionDESC.Flip() != DirectionASC {
		t.Errorf("ASC and DESC should flip into each other")
	}
}

func Test_NewOrderings_Flip_ToSQL(t *testing.T) {
	ord := NewOrderings([]string{"t.created_at", "t.id"}, DirectionASC)

	require.Equal(t, Orderings{
		{Column: "t.created_at", Direction: DirectionASC},
		{Column: "t.id", Direction: DirectionASC},
	}, ord)
	require.Equal(t, []string{"t.created_at", "t.id"}, ord.Columns())
	require.Equal(t, "t.created_at ASC, t.id ASC", ord.ToSQL())
	require.Equal(t, "t.created_at DESC, t.id DESC", ord.Flip().ToSQL())
	require.Equal(t, "t.created_at ASC, t.id ASC", ord.ToSQL(), "Flip must not modify the receiver")
}

func Test_validColumnName(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"id", true},
		{"messages.created_at", true},
		{`"messages"."id"`, true},
		{"`t`.`id`", true},
		{"", false},
		{"id; DROP TABLE users", false},
		{"id--", false},
		{"lower(name)", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := validColumnName(tt.in); got != tt.ok {
				t.Errorf("%q: got %v want %v", tt.in, got, tt.ok)
			}
		})
	}
}

func Test_ResolveColumns(t *testing.T) {
	mapping := ColumnMapping{
		"id":        "messages.id",
		"createdAt": "messages.created_at",
	}

	got, err := ResolveColumns([]ColumnAlias{"createdAt", " id "}, mapping)
	require.NoError(t, err)
	require.Equal(t, []string{"messages.created_at", "messages.id"}, got)

	_, err = ResolveColumns([]ColumnAlias{"createdat"}, mapping)
	require.ErrorContains(t, err, "closest: 'createdAt'")
}
