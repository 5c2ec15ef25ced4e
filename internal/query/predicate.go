package query

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type PredicateKind string

const (
	KindEquality PredicateKind = "eq"
	KindRange    PredicateKind = "range"
	KindContains PredicateKind = "contains"
	KindIn       PredicateKind = "in"
	KindOr       PredicateKind = "or"
)

type RangeOp string

const (
	OpGTE RangeOp = "gte"
	OpGT  RangeOp = "gt"
	OpLTE RangeOp = "lte"
	OpLT  RangeOp = "lt"
)

// Predicate is one typed condition in a compiled query's conjunction. The
// kind selects which fields are meaningful; this keeps the compiler testable
// without committing to any store's query language.
type Predicate struct {
	Kind   PredicateKind
	Field  string
	Op     RangeOp
	Value  string
	Time   time.Time
	Values []string
	Any    []Predicate
}

func Eq(field, value string) Predicate {
	return Predicate{Kind: KindEquality, Field: field, Value: value}
}

func Rng(field string, op RangeOp, t time.Time) Predicate {
	return Predicate{Kind: KindRange, Field: field, Op: op, Time: t}
}

func Contains(field, term string) Predicate {
	return Predicate{Kind: KindContains, Field: field, Value: term}
}

func In(field string, values ...string) Predicate {
	return Predicate{Kind: KindIn, Field: field, Values: values}
}

func Or(preds ...Predicate) Predicate {
	return Predicate{Kind: KindOr, Any: preds}
}

func (p Predicate) encode() string {
	switch p.Kind {
	case KindEquality:
		return fmt.Sprintf("eq:%s=%s", p.Field, p.Value)
	case KindRange:
		return fmt.Sprintf("range:%s:%s=%s", p.Field, p.Op, p.Time.UTC().Format(time.RFC3339Nano))
	case KindContains:
		return fmt.Sprintf("contains:%s=%s", p.Field, p.Value)
	case KindIn:
		vals := append([]string(nil), p.Values...)
		sort.Strings(vals)
		return fmt.Sprintf("in:%s=%s", p.Field, strings.Join(vals, ","))
	case KindOr:
		parts := make([]string, len(p.Any))
		for i, sub := range p.Any {
			parts[i] = sub.encode()
		}
		sort.Strings(parts)
		return fmt.Sprintf("or:(%s)", strings.Join(parts, "|"))
	}
	return "unknown"
}

type Page struct {
	Limit  int
	Offset int
}

type Sort struct {
	Field string
	Desc  bool
}

// CompiledQuery is the ordered conjunction the compiler emits, plus the
// normalized pagination and sort parameters.
type CompiledQuery struct {
	Predicates []Predicate
	Page       Page
	Sort       Sort
}

// Signature returns the canonical, order-independent encoding of the query,
// used as a cache key. Two queries with the same predicates in different
// order share a signature.
func (q CompiledQuery) Signature() string {
	parts := make([]string, len(q.Predicates))
	for i, p := range q.Predicates {
		parts[i] = p.encode()
	}
	sort.Strings(parts)

	dir := "asc"
	if q.Sort.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s;limit=%d;offset=%d;sort=%s:%s",
		strings.Join(parts, ";"), q.Page.Limit, q.Page.Offset, q.Sort.Field, dir)
}
