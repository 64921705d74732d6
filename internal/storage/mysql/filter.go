package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"hotel_booking/internal/query"
)

// hotelCols whitelists the hotel fields a list query may reference.
var hotelCols = map[string]string{
	"id":        "id",
	"name":      "name",
	"address":   "address",
	"tel":       "tel",
	"createdAt": "created_at",
}

var sqlOps = map[query.Op]string{
	query.OpEq:  "=",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// whereClause renders the filter AST as a parameterised WHERE clause.
// Column names only ever come from hotelCols.
func whereClause(conds []query.Condition) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		col, ok := hotelCols[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown field %q", query.ErrBadFilter, c.Field)
		}
		vals, err := sqlValues(c)
		if err != nil {
			return "", nil, err
		}
		switch c.Op {
		case query.OpIn:
			marks := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")
			parts = append(parts, fmt.Sprintf("%s IN (%s)", col, marks))
			args = append(args, vals...)
		default:
			op, ok := sqlOps[c.Op]
			if !ok {
				return "", nil, fmt.Errorf("%w: operator %q", query.ErrBadFilter, c.Op)
			}
			parts = append(parts, col+" "+op+" ?")
			args = append(args, vals[0])
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// sqlValues converts id operands to the numeric key type.
func sqlValues(c query.Condition) ([]any, error) {
	if len(c.Values) == 0 {
		return nil, fmt.Errorf("%w: %s has no value", query.ErrBadFilter, c.Field)
	}
	if c.Field != "id" {
		return c.Values, nil
	}
	out := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		s, _ := v.(string)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", query.ErrBadFilter, s)
		}
		out = append(out, n)
	}
	return out, nil
}

// orderClause renders the sort keys; id breaks ties so pages never overlap.
func orderClause(keys []query.SortKey) string {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		col, ok := hotelCols[k.Field]
		if !ok {
			continue
		}
		if k.Desc {
			col += " DESC"
		}
		parts = append(parts, col)
	}
	parts = append(parts, "id")
	return " ORDER BY " + strings.Join(parts, ", ")
}
