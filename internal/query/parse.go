package query

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind is the type a filter value is cast to before it reaches a store.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindTime
	KindID
)

// Schema describes the queryable fields of an entity.
type Schema struct {
	// Kinds maps canonical field names to their value kind.
	Kinds map[string]Kind
	// Aliases maps alternative request names onto canonical ones.
	Aliases map[string]string
	// Virtual fields can be selected but not filtered or sorted on.
	Virtual []string
}

func (s Schema) lookup(name string) (string, Kind, bool) {
	if c, ok := s.Aliases[name]; ok {
		name = c
	}
	k, ok := s.Kinds[name]
	return name, k, ok
}

func (s Schema) selectable(name string) (string, bool) {
	if c, ok := s.Aliases[name]; ok {
		name = c
	}
	if _, ok := s.Kinds[name]; ok {
		return name, true
	}
	return name, slices.Contains(s.Virtual, name)
}

var reserved = map[string]bool{"select": true, "sort": true, "page": true, "limit": true}

// Parse builds a Spec from list-request parameters. Filter keys use the
// form field or field[op]; keys naming fields outside the schema are
// dropped. A value that cannot be cast or an unknown operator fails the
// whole query with ErrBadFilter.
func Parse(params url.Values, schema Schema) (Spec, error) {
	spec := New()

	conds, err := parseFilter(params, schema)
	if err != nil {
		return Spec{}, err
	}
	spec = spec.Where(conds...)

	if raw, ok := params["select"]; ok {
		spec = spec.Select(parseSelect(raw, schema)...)
	}
	if raw := params.Get("sort"); raw != "" {
		if keys := parseSort(raw, schema); len(keys) > 0 {
			spec = spec.SortBy(keys...)
		}
	}
	return spec.Paginate(Page{
		Number: positiveInt(params.Get("page"), DefaultPage),
		Limit:  positiveInt(params.Get("limit"), DefaultLimit),
	}), nil
}

func parseFilter(params url.Values, schema Schema) ([]Condition, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	// url.Values has no order; keep the AST deterministic.
	slices.Sort(keys)

	var out []Condition
	for _, key := range keys {
		name, op, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		field, kind, ok := schema.lookup(name)
		if !ok {
			continue
		}
		raw := params[key]
		if op == OpEq && len(raw) > 1 {
			op = OpIn
		}
		if op == OpIn {
			raw = splitList(raw)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: %s has no value", ErrBadFilter, key)
		}
		if op != OpIn {
			raw = raw[len(raw)-1:]
		}
		vals := make([]any, 0, len(raw))
		for _, r := range raw {
			v, err := cast(kind, r)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadFilter, key, err)
			}
			vals = append(vals, v)
		}
		out = append(out, Condition{Field: field, Op: op, Values: vals})
	}
	return out, nil
}

// splitKey separates "price[gte]" into ("price", OpGte).
func splitKey(key string) (string, Op, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", fmt.Errorf("%w: malformed key %q", ErrBadFilter, key)
	}
	op, ok := ops[key[open+1:len(key)-1]]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown operator in %q", ErrBadFilter, key)
	}
	return key[:open], op, nil
}

func splitList(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, p := range strings.Split(r, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime accepts the date formats clients send for date fields.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func cast(kind Kind, raw string) (any, error) {
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil
	case KindTime:
		return ParseTime(raw)
	case KindID:
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("empty id")
		}
		return strings.TrimSpace(raw), nil
	default:
		return raw, nil
	}
}

func parseSelect(raw []string, schema Schema) []string {
	fields := []string{"id"}
	for _, p := range splitList(raw) {
		if name, ok := schema.selectable(p); ok && !slices.Contains(fields, name) {
			fields = append(fields, name)
		}
	}
	return fields
}

func parseSort(raw string, schema Schema) []SortKey {
	var keys []SortKey
	for _, p := range strings.Split(raw, ",") {
		// a literal "+" arrives as a space after query decoding
		p = strings.TrimSpace(p)
		desc := strings.HasPrefix(p, "-")
		p = strings.TrimLeft(p, "+-")
		if field, _, ok := schema.lookup(p); ok {
			keys = append(keys, SortKey{Field: field, Desc: desc})
		}
	}
	return keys
}

// positiveInt parses the leading digits of s, falling back to def when
// there are none or the result is not positive.
func positiveInt(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return def
	}
	return n
}
