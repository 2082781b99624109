package planner

import "sort"

// Kind classifies how much pruning leverage a predicate gives the
// catalog against a table's range columns.
type Kind string

const (
	// AllEquality: every range column is bound to an equality literal
	// in every disjunct, so the catalog can resolve an exact partition
	// set via GetPartitionsByEq (or a single descriptor).
	AllEquality Kind = "all_equality"
	// PartialEquality: at least one range column is bound to equality
	// in every disjunct, but not all of them; the catalog can still
	// prune with the bound columns and then filter the remainder.
	PartialEquality Kind = "partial_equality"
	// General: no range column is bound to equality in at least one
	// disjunct; the planner falls back to a full partition list scan.
	General Kind = "general"
)

// Binding is one column=value equality extracted from a predicate.
type Binding struct {
	Column string
	Value  string
}

// Plan is the result of classifying a predicate against a table's
// range columns: the union of per-disjunct equality binding sets (OR
// branches produce one Bindings entry each), the overall Kind, and the
// leftover data predicates that must still be evaluated row-by-row.
type Plan struct {
	Kind          Kind
	Bindings      []map[string]string
	DataPredicates []Expr
}

// Classify splits pred into partition-pruning equality bindings and
// residual data predicates, per the union-by-partition-descriptor rule
// for OR: each OR branch is classified independently and the results
// are unioned, so "region = 'us' OR dt = '2024-01-01'" yields two
// binding sets rather than one over-broad AND.
func Classify(pred Expr, rangeColumns []string) Plan {
	rangeSet := make(map[string]struct{}, len(rangeColumns))
	for _, c := range rangeColumns {
		rangeSet[c] = struct{}{}
	}

	disjuncts := splitOr(pred)
	plan := Plan{}
	boundInEvery := true
	boundInAny := false

	for _, d := range disjuncts {
		bindings, data := splitAnd(d, rangeSet)
		plan.Bindings = append(plan.Bindings, bindings)
		plan.DataPredicates = append(plan.DataPredicates, data...)

		complete := len(bindings) == len(rangeColumns) && len(rangeColumns) > 0
		if !complete {
			boundInEvery = false
		}
		if len(bindings) > 0 {
			boundInAny = true
		}
	}

	switch {
	case boundInEvery:
		plan.Kind = AllEquality
	case boundInAny:
		plan.Kind = PartialEquality
	default:
		plan.Kind = General
	}
	return plan
}

// splitOr flattens top-level Or nodes into their disjuncts.
func splitOr(e Expr) []Expr {
	or, ok := e.(Or)
	if !ok {
		return []Expr{e}
	}
	return append(splitOr(or.Left), splitOr(or.Right)...)
}

// splitAnd flattens top-level And nodes, collecting equality bindings
// on range columns and passing everything else through as a residual
// data predicate.
func splitAnd(e Expr, rangeSet map[string]struct{}) (map[string]string, []Expr) {
	bindings := make(map[string]string)
	var data []Expr

	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case And:
			walk(n.Left)
			walk(n.Right)
		case Eq:
			if _, ok := rangeSet[n.Column]; ok {
				bindings[n.Column] = n.Value
			} else {
				data = append(data, n)
			}
		default:
			data = append(data, n)
		}
	}
	walk(e)
	return bindings, data
}

// ToEqualityPredicates renders one binding set as an ordered Binding
// slice (the same Column/Value pairs as catalog.EqualityPredicate). Columns are
// sorted for deterministic output; callers that need declared-column
// order should re-derive it from the table's RangeColumns instead.
func ToEqualityPredicates(bindings map[string]string) []Binding {
	cols := make([]string, 0, len(bindings))
	for c := range bindings {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	out := make([]Binding, 0, len(cols))
	for _, c := range cols {
		out = append(out, Binding{Column: c, Value: bindings[c]})
	}
	return out
}
