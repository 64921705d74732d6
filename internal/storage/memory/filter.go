package memory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

func hotelField(h domain.Hotel, field string) (any, bool) {
	switch field {
	case "id":
		return h.ID, true
	case "name":
		return h.Name, true
	case "address":
		return h.Address, true
	case "tel":
		return h.Tel, true
	case "createdAt":
		return h.CreatedAt, true
	}
	return nil, false
}

// matches evaluates the filter AST against h; conditions are AND-ed.
func matches(h domain.Hotel, conds []query.Condition) (bool, error) {
	for _, c := range conds {
		v, ok := hotelField(h, c.Field)
		if !ok {
			return false, fmt.Errorf("%w: unknown field %q", query.ErrBadFilter, c.Field)
		}
		ok, err := eval(v, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func eval(v any, c query.Condition) (bool, error) {
	if c.Op == query.OpIn {
		for _, want := range c.Values {
			n, err := compare(v, want)
			if err != nil {
				return false, err
			}
			if n == 0 {
				return true, nil
			}
		}
		return false, nil
	}
	n, err := compare(v, c.Value())
	if err != nil {
		return false, err
	}
	switch c.Op {
	case query.OpEq:
		return n == 0, nil
	case query.OpGt:
		return n > 0, nil
	case query.OpGte:
		return n >= 0, nil
	case query.OpLt:
		return n < 0, nil
	case query.OpLte:
		return n <= 0, nil
	}
	return false, fmt.Errorf("%w: operator %q", query.ErrBadFilter, c.Op)
}

func compare(a, b any) (int, error) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return compareStrings(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y), nil
		}
	}
	return 0, fmt.Errorf("%w: cannot compare %T with %T", query.ErrBadFilter, a, b)
}

func compareStrings(a, b string) int { return strings.Compare(a, b) }

// sortHotels orders by the sort keys, breaking ties by id so pages are stable.
func sortHotels(hs []domain.Hotel, keys []query.SortKey) {
	slices.SortStableFunc(hs, func(a, b domain.Hotel) int {
		for _, k := range keys {
			av, _ := hotelField(a, k.Field)
			bv, _ := hotelField(b, k.Field)
			n, err := compare(av, bv)
			if err != nil || n == 0 {
				continue
			}
			if k.Desc {
				return -n
			}
			return n
		}
		return compareStrings(a.ID, b.ID)
	})
}
