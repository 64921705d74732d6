// Package query turns list-request parameters into a typed, immutable
// query specification that the entity stores translate into their own
// dialect.
package query

import (
	"errors"
	"math"
	"slices"
)

// ErrBadFilter marks a query that cannot be built from the request.
var ErrBadFilter = errors.New("bad filter")

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

var ops = map[string]Op{
	"eq": OpEq, "gt": OpGt, "gte": OpGte, "lt": OpLt, "lte": OpLte, "in": OpIn,
}

// Condition is one node of the filter AST. Values are already cast to the
// field's Kind; every operator but OpIn carries exactly one value.
type Condition struct {
	Field  string
	Op     Op
	Values []any
}

// Value returns the single operand of a non-set condition.
func (c Condition) Value() any {
	if len(c.Values) == 0 {
		return nil
	}
	return c.Values[0]
}

type SortKey struct {
	Field string
	Desc  bool
}

const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// Page is a 1-based pagination window.
type Page struct {
	Number int
	Limit  int
}

// Skip is the number of items before the window. Windows too far out to
// address saturate at math.MaxInt.
func (p Page) Skip() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// End is the exclusive upper bound of the window, saturating like Skip.
func (p Page) End() int {
	skip := p.Skip()
	if p.Limit > math.MaxInt-skip {
		return math.MaxInt
	}
	return skip + max(p.Limit, 0)
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries the neighbour descriptors of a list response.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// Paginate computes the neighbour descriptors for a matching set of total items.
func (p Page) Paginate(total int64) Pagination {
	var out Pagination
	if int64(p.End()) < total {
		out.Next = &PageRef{Page: p.Number + 1, Limit: p.Limit}
	}
	if p.Number > 1 {
		out.Prev = &PageRef{Page: p.Number - 1, Limit: p.Limit}
	}
	return out
}

// Spec is an immutable list query. Every builder method returns a new Spec
// and never mutates the receiver's backing arrays.
type Spec struct {
	filter []Condition
	fields []string
	sort   []SortKey
	page   Page
}

// New returns an empty Spec with the default window and sort.
func New() Spec {
	return Spec{
		sort: []SortKey{{Field: "createdAt", Desc: true}},
		page: Page{Number: DefaultPage, Limit: DefaultLimit},
	}
}

func (s Spec) Where(c ...Condition) Spec {
	s.filter = append(slices.Clip(s.filter), c...)
	return s
}

func (s Spec) Select(fields ...string) Spec {
	s.fields = slices.Clone(fields)
	return s
}

func (s Spec) SortBy(keys ...SortKey) Spec {
	s.sort = slices.Clone(keys)
	return s
}

func (s Spec) Paginate(p Page) Spec {
	s.page = p
	return s
}

func (s Spec) Filter() []Condition { return slices.Clone(s.filter) }
func (s Spec) Fields() []string    { return slices.Clone(s.fields) }
func (s Spec) Sort() []SortKey     { return slices.Clone(s.sort) }
func (s Spec) Page() Page          { return s.page }

// Selects reports whether field is part of the output projection. An empty
// projection selects everything.
func (s Spec) Selects(field string) bool {
	return len(s.fields) == 0 || slices.Contains(s.fields, field)
}
