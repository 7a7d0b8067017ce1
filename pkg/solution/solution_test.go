package solution

import (
	"errors"
	"testing"

	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/types"
)

func TestNewSeedsInitialValues(t *testing.T) {
	s := New(&plan.Plan{}, map[string]interface{}{"x": 1})
	v, ok := s.Get("x")
	if !ok || v != 1 {
		t.Fatalf("Get(x) = (%v, %v), want (1, true)", v, ok)
	}
}

func TestMergeOutputsRecordsOverwrite(t *testing.T) {
	s := New(&plan.Plan{}, map[string]interface{}{"y": "old"})
	if err := s.MergeOutputs("A", map[string]interface{}{"y": "new"}, nil); err != nil {
		t.Fatalf("MergeOutputs returned error: %v", err)
	}
	v, _ := s.Get("y")
	if v != "new" {
		t.Fatalf("Get(y) = %v, want %q (last write wins)", v, "new")
	}
	overwrites := s.Overwrites()
	if len(overwrites) != 1 || overwrites[0].Previous != "old" || overwrites[0].New != "new" {
		t.Fatalf("Overwrites() = %v, want one entry old->new", overwrites)
	}
}

func TestMergeOutputsAppliesAliases(t *testing.T) {
	s := New(&plan.Plan{}, nil)
	if err := s.MergeOutputs("A", map[string]interface{}{"y": 1}, [][2]string{{"y", "z"}}); err != nil {
		t.Fatalf("MergeOutputs returned error: %v", err)
	}
	v, ok := s.Get("z")
	if !ok || v != 1 {
		t.Fatalf("Get(z) = (%v, %v), want (1, true) via alias", v, ok)
	}
}

func TestDeleteRemovesValue(t *testing.T) {
	s := New(&plan.Plan{}, map[string]interface{}{"x": 1})
	if err := s.Delete("x"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := s.Get("x"); ok {
		t.Fatal("Get(x) still present after Delete")
	}
}

func TestExecutedAndCanceledTracking(t *testing.T) {
	s := New(&plan.Plan{}, nil)
	if err := s.MarkExecuted("A"); err != nil {
		t.Fatalf("MarkExecuted returned error: %v", err)
	}
	if err := s.MarkCanceled("B"); err != nil {
		t.Fatalf("MarkCanceled returned error: %v", err)
	}
	if got := s.Executed(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("Executed() = %v, want [A]", got)
	}
	if got := s.Canceled(); len(got) != 1 || got[0] != "B" {
		t.Fatalf("Canceled() = %v, want [B]", got)
	}
}

func TestRecordFailure(t *testing.T) {
	s := New(&plan.Plan{}, nil)
	cause := errors.New("boom")
	if err := s.RecordFailure("A", cause); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	failures := s.Failures()
	if len(failures) != 1 || failures[0].Op != "A" || failures[0].Err != cause {
		t.Fatalf("Failures() = %v, want one entry {A, cause}", failures)
	}
}

func TestFinalizeRejectsFurtherMutation(t *testing.T) {
	s := New(&plan.Plan{}, nil)
	s.Finalize()
	if !s.Finalized() {
		t.Fatal("Finalized() = false after Finalize")
	}
	err := s.MergeOutputs("A", map[string]interface{}{"y": 1}, nil)
	var fin *types.SolutionFinalizedError
	if !errors.As(err, &fin) {
		t.Fatalf("MergeOutputs after Finalize = %v, want *types.SolutionFinalizedError", err)
	}
	if err := s.MarkExecuted("A"); !errors.As(err, &fin) {
		t.Fatalf("MarkExecuted after Finalize = %v, want *types.SolutionFinalizedError", err)
	}
	if err := s.Delete("x"); !errors.As(err, &fin) {
		t.Fatalf("Delete after Finalize = %v, want *types.SolutionFinalizedError", err)
	}
}

func TestValuesReturnsIndependentSnapshot(t *testing.T) {
	s := New(&plan.Plan{}, map[string]interface{}{"x": 1})
	snap := s.Values()
	snap["x"] = 999
	v, _ := s.Get("x")
	if v != 1 {
		t.Fatal("mutating a Values() snapshot affected the solution's internal state")
	}
}

func TestSetPlanReplacesGoverningPlan(t *testing.T) {
	s := New(&plan.Plan{Key: "old"}, nil)
	newPlan := &plan.Plan{Key: "new"}
	if err := s.SetPlan(newPlan); err != nil {
		t.Fatalf("SetPlan returned error: %v", err)
	}
	if s.Plan().Key != "new" {
		t.Fatalf("Plan().Key = %q, want %q", s.Plan().Key, "new")
	}
}
