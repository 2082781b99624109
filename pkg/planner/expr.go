// Package planner classifies predicates over a table's range columns
// so callers can prune partitions before touching the catalog's file
// lists, falling back to a full partition scan when a predicate can't
// be reduced to equality bindings.
package planner

// Expr is a node in a predicate's boolean expression tree. Concrete
// leaves reference a column by name; the planner only interprets
// leaves that reference a table's declared range columns; everything
// else is treated as a data predicate to be pushed down to the row
// reader instead of the partition pruner.
type Expr interface {
	isExpr()
}

// Eq is a column = literal comparison.
type Eq struct {
	Column string
	Value  string
}

// And is a logical conjunction.
type And struct {
	Left, Right Expr
}

// Or is a logical disjunction.
type Or struct {
	Left, Right Expr
}

// Other is any predicate the planner doesn't classify for pruning
// (ranges, LIKE, comparisons against non-range columns, ...). It is
// always treated as a data predicate.
type Other struct {
	Description string
}

func (Eq) isExpr()    {}
func (And) isExpr()   {}
func (Or) isExpr()    {}
func (Other) isExpr() {}
