package types

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type filterRow struct {
	ID  string
	Day string
}

func dryRunSQL(t *testing.T, expr clause.Expression) (string, []any) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)
	var rows []filterRow
	stmt := db.Model(&filterRow{}).Where(clause.Where{Exprs: []clause.Expression{expr}}).Find(&rows).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestFiltersAnd_Build(t *testing.T) {
	sql, vars := dryRunSQL(t, FiltersAnd{
		{Field: "id", Operator: CommonFilterOperatorEq, Values: []any{"ad-1"}},
		{Field: "day", Operator: CommonFilterOperatorRange, Values: []any{"2024-03-01", "2024-03-07"}},
	})
	require.Contains(t, sql, "`id` = ?")
	require.Contains(t, sql, "`day` >= ?")
	require.Contains(t, sql, "`day` <= ?")
	require.Equal(t, []any{"ad-1", "2024-03-01", "2024-03-07"}, vars)

	sql, vars = dryRunSQL(t, FiltersAnd{})
	require.Contains(t, sql, "1=1")
	require.Empty(t, vars)
}

func TestCommonFilter_Operators(t *testing.T) {
	cases := []struct {
		name string
		f    CommonFilter
		want string
	}{
		{"default is eq", CommonFilter{Field: "id", Values: []any{"x"}}, "`id` = ?"},
		{"not eq", CommonFilter{Field: "id", Operator: CommonFilterOperatorNotEq, Values: []any{"x"}}, "`id` <> ?"},
		{"in", CommonFilter{Field: "id", Operator: CommonFilterOperatorIn, Values: []any{"a", "b"}}, "`id` IN (?,?)"},
		{"open range", CommonFilter{Field: "day", Operator: CommonFilterOperatorRange, Values: []any{"2024-03-01"}}, "`day` >= ?"},
		{"no values", CommonFilter{Field: "id", Operator: CommonFilterOperatorEq}, "1=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _ := dryRunSQL(t, &tc.f)
			require.Contains(t, sql, tc.want)
		})
	}
}

func TestCommonFilter_WithField(t *testing.T) {
	f := &CommonFilter{Field: "ad_id", Values: []any{"x"}}
	g := f.WithField("target_id")
	require.Equal(t, "target_id", g.Field)
	require.Equal(t, "ad_id", f.Field)
}

func TestValidateFilters(t *testing.T) {
	allowed := []string{"ad_id", "day"}

	require.NoError(t, ValidateFilters(nil, allowed))
	require.NoError(t, ValidateFilters([]*CommonFilter{{Field: "day", Operator: CommonFilterOperatorRange, Values: []any{"a", "b"}}}, allowed))

	for name, filters := range map[string][]*CommonFilter{
		"nil filter":       {nil},
		"unknown field":    {{Field: "1=1; --", Values: []any{"x"}}},
		"unknown operator": {{Field: "day", Operator: "like", Values: []any{"x"}}},
		"no values":        {{Field: "ad_id"}},
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, ValidateFilters(filters, allowed), ErrInvalidQuery)
		})
	}
}
