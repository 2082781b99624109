package planner_test

import (
	"testing"

	"github.com/lakesoul-io/lakesoul-go/pkg/planner"
	"github.com/stretchr/testify/require"
)

func TestClassifyAllEquality(t *testing.T) {
	pred := planner.And{
		Left:  planner.Eq{Column: "region", Value: "us"},
		Right: planner.Eq{Column: "dt", Value: "2024-01-01"},
	}
	plan := planner.Classify(pred, []string{"region", "dt"})
	require.Equal(t, planner.AllEquality, plan.Kind)
	require.Len(t, plan.Bindings, 1)
	require.Equal(t, map[string]string{"region": "us", "dt": "2024-01-01"}, plan.Bindings[0])
	require.Empty(t, plan.DataPredicates)
}

func TestClassifyPartialEquality(t *testing.T) {
	pred := planner.And{
		Left:  planner.Eq{Column: "region", Value: "us"},
		Right: planner.Other{Description: "amount > 100"},
	}
	plan := planner.Classify(pred, []string{"region", "dt"})
	require.Equal(t, planner.PartialEquality, plan.Kind)
	require.Equal(t, map[string]string{"region": "us"}, plan.Bindings[0])
	require.Len(t, plan.DataPredicates, 1)
}

func TestClassifyGeneral(t *testing.T) {
	pred := planner.Other{Description: "amount > 100"}
	plan := planner.Classify(pred, []string{"region", "dt"})
	require.Equal(t, planner.General, plan.Kind)
}

func TestClassifyOrUnionsByDisjunct(t *testing.T) {
	pred := planner.Or{
		Left:  planner.Eq{Column: "region", Value: "us"},
		Right: planner.Eq{Column: "region", Value: "eu"},
	}
	plan := planner.Classify(pred, []string{"region"})
	require.Equal(t, planner.AllEquality, plan.Kind)
	require.Len(t, plan.Bindings, 2)
	require.Equal(t, map[string]string{"region": "us"}, plan.Bindings[0])
	require.Equal(t, map[string]string{"region": "eu"}, plan.Bindings[1])
}

func TestClassifyOrWithUnboundDisjunctIsPartial(t *testing.T) {
	pred := planner.Or{
		Left:  planner.Eq{Column: "region", Value: "us"},
		Right: planner.Other{Description: "amount > 100"},
	}
	plan := planner.Classify(pred, []string{"region"})
	require.Equal(t, planner.PartialEquality, plan.Kind)
}

func TestToEqualityPredicatesSortsColumns(t *testing.T) {
	out := planner.ToEqualityPredicates(map[string]string{"dt": "2024-01-01", "region": "us"})
	require.Equal(t, []planner.Binding{{Column: "dt", Value: "2024-01-01"}, {Column: "region", Value: "us"}}, out)
}
