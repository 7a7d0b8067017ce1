package types

import (
	"errors"
	"testing"
)

func TestMissingOutputsErrorIs(t *testing.T) {
	err := &MissingOutputsError{Op: "A", Missing: []string{"y"}}
	if !errors.Is(err, ErrMissingOutputs) {
		t.Fatal("errors.Is(MissingOutputsError, ErrMissingOutputs) = false")
	}
	if errors.Is(err, ErrCyclicDependency) {
		t.Fatal("errors.Is(MissingOutputsError, ErrCyclicDependency) = true")
	}
}

func TestUnsolvableGraphErrorIs(t *testing.T) {
	err := &UnsolvableGraphError{Output: "z", Pruned: []string{"C"}}
	if !errors.Is(err, ErrUnsolvableGraph) {
		t.Fatal("errors.Is(UnsolvableGraphError, ErrUnsolvableGraph) = false")
	}
	if got := err.Error(); got == "" {
		t.Fatal("Error() returned empty string")
	}
}

func TestCyclicDependencyErrorIs(t *testing.T) {
	err := &CyclicDependencyError{Name: "a"}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatal("errors.Is(CyclicDependencyError, ErrCyclicDependency) = false")
	}
}

func TestDuplicateOperationErrorIs(t *testing.T) {
	err := &DuplicateOperationError{Name: "A"}
	if !errors.Is(err, ErrDuplicateOperation) {
		t.Fatal("errors.Is(DuplicateOperationError, ErrDuplicateOperation) = false")
	}
}

func TestPartialOutputFailureIs(t *testing.T) {
	err := &PartialOutputFailure{Op: "A", Missing: []string{"y2"}}
	if !errors.Is(err, ErrPartialOutputFailure) {
		t.Fatal("errors.Is(PartialOutputFailure, ErrPartialOutputFailure) = false")
	}
}

func TestSolutionFinalizedErrorIs(t *testing.T) {
	err := &SolutionFinalizedError{Attempted: "merge outputs"}
	if !errors.Is(err, ErrSolutionFinalized) {
		t.Fatal("errors.Is(SolutionFinalizedError, ErrSolutionFinalized) = false")
	}
}

func TestUserFnErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &UserFnError{Op: "A", Inputs: []string{"x"}, Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(UserFnError, cause) = false")
	}
}

func TestPipelineExecutionErrorUnwrap(t *testing.T) {
	cause := &UserFnError{Op: "A", Cause: errors.New("boom")}
	err := &PipelineExecutionError{Op: "A", Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(PipelineExecutionError, cause) = false")
	}
}
