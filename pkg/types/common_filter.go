package types

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

// ErrInvalidQuery marks a malformed admin filter, sort or data item request.
var ErrInvalidQuery = errors.New("invalid query")

type CommonFilterOperator string

const (
	CommonFilterOperatorEq    CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt    CommonFilterOperator = "lt"
	CommonFilterOperatorLte   CommonFilterOperator = "lte"
	CommonFilterOperatorGt    CommonFilterOperator = "gt"
	CommonFilterOperatorGte   CommonFilterOperator = "gte"
	CommonFilterOperatorRange CommonFilterOperator = "range"
	CommonFilterOperatorIn    CommonFilterOperator = "in"
)

// CommonFilter is the admin filter shape. Field is a column name and must be
// checked with ValidateFilters before it reaches SQL.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Build constructs a GORM expression. A filter with no values is a no-op.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		builder.WriteString("1=1")
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq, "":
		clause.Eq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			clause.Gte{Column: f.Field, Value: value}.Build(builder)
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	default:
		builder.WriteString("1=1")
	}
}

// WithField returns a copy of f targeting another column, for tables that
// store the same dimension under a different name.
func (f *CommonFilter) WithField(field string) *CommonFilter {
	c := *f
	c.Field = field
	return &c
}

var filterOperators = []CommonFilterOperator{
	CommonFilterOperatorEq, CommonFilterOperatorNotEq,
	CommonFilterOperatorLt, CommonFilterOperatorLte,
	CommonFilterOperatorGt, CommonFilterOperatorGte,
	CommonFilterOperatorRange, CommonFilterOperatorIn,
}

// ValidateFilters rejects filters on columns outside allowed, unknown
// operators and filters without values.
func ValidateFilters(filters []*CommonFilter, allowed []string) error {
	for _, f := range filters {
		if f == nil {
			return fmt.Errorf("%w: nil filter", ErrInvalidQuery)
		}
		if !lo.Contains(allowed, f.Field) {
			return fmt.Errorf("%w: unsupported filter field %s", ErrInvalidQuery, f.Field)
		}
		if f.Operator != "" && !lo.Contains(filterOperators, f.Operator) {
			return fmt.Errorf("%w: unsupported filter operator %s", ErrInvalidQuery, f.Operator)
		}
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: filter %s has no values", ErrInvalidQuery, f.Field)
		}
	}
	return nil
}

// FiltersAnd combines filters into a single clause.Expression joined by AND.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}
