package operation

import (
	"errors"
	"testing"

	"github.com/pygraphkit/graphtik/pkg/types"
)

func TestComputeBasic(t *testing.T) {
	op := New("A",
		types.Names{types.Plain("x")},
		types.Names{types.Plain("y")},
		func(in Inputs) (Outputs, error) {
			return Outputs{"y": in["x"].(int) + 1}, nil
		},
		Flags{},
	)

	out, err := op.Compute(map[string]interface{}{"x": 1})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if out["y"] != 2 {
		t.Fatalf("out[y] = %v, want 2", out["y"])
	}
}

func TestComputeOptionalNeedAbsent(t *testing.T) {
	var sawKey bool
	op := New("A",
		types.Names{types.Optional("x")},
		types.Names{types.Plain("y")},
		func(in Inputs) (Outputs, error) {
			_, sawKey = in["x"]
			return Outputs{"y": 1}, nil
		},
		Flags{},
	)

	_, err := op.Compute(map[string]interface{}{})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if sawKey {
		t.Fatal("body observed a key for an absent optional need")
	}
}

func TestComputeSideffectNeedNeverPassed(t *testing.T) {
	var gotKeys []string
	op := New("A",
		types.Names{types.Plain("x"), types.Sideffect("token")},
		types.Names{types.Plain("y")},
		func(in Inputs) (Outputs, error) {
			for k := range in {
				gotKeys = append(gotKeys, k)
			}
			return Outputs{"y": 1}, nil
		},
		Flags{},
	)
	_, err := op.Compute(map[string]interface{}{"x": 1, "token": struct{}{}})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if len(gotKeys) != 1 || gotKeys[0] != "x" {
		t.Fatalf("body saw keys %v, want only [x]", gotKeys)
	}
}

func TestComputeKeywordRename(t *testing.T) {
	var sawKeyword bool
	op := New("A",
		types.Names{types.Keyword("x", "input_value")},
		types.Names{types.Plain("y")},
		func(in Inputs) (Outputs, error) {
			_, sawKeyword = in["input_value"]
			return Outputs{"y": 1}, nil
		},
		Flags{},
	)
	_, err := op.Compute(map[string]interface{}{"x": 5})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !sawKeyword {
		t.Fatal("body did not observe renamed keyword key")
	}
}

func TestComputeBodyError(t *testing.T) {
	cause := errors.New("boom")
	op := New("A", nil, nil, func(in Inputs) (Outputs, error) {
		return nil, cause
	}, Flags{})

	_, err := op.Compute(map[string]interface{}{})
	var ufe *types.UserFnError
	if !errors.As(err, &ufe) {
		t.Fatalf("Compute error = %v, want *types.UserFnError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("Compute error does not unwrap to the body's cause")
	}
}

func TestComputeMissingRequiredProvide(t *testing.T) {
	op := New("A",
		nil,
		types.Names{types.Plain("y")},
		func(in Inputs) (Outputs, error) {
			return Outputs{}, nil
		},
		Flags{},
	)
	_, err := op.Compute(map[string]interface{}{})
	var moe *types.MissingOutputsError
	if !errors.As(err, &moe) {
		t.Fatalf("Compute error = %v, want *types.MissingOutputsError", err)
	}
	if len(moe.Missing) != 1 || moe.Missing[0] != "y" {
		t.Fatalf("Missing = %v, want [y]", moe.Missing)
	}
}

func TestComputeRescheduledTolerantOfPartial(t *testing.T) {
	op := New("A",
		nil,
		types.Names{types.Plain("y1"), types.Plain("y2")},
		func(in Inputs) (Outputs, error) {
			return Outputs{"y1": 10}, nil
		},
		Flags{Rescheduled: true},
	)
	out, err := op.Compute(map[string]interface{}{})
	if err != nil {
		t.Fatalf("Compute returned error for rescheduled op: %v", err)
	}
	missing := op.MissingProvides(out)
	if len(missing) != 1 || missing[0] != "y2" {
		t.Fatalf("MissingProvides = %v, want [y2]", missing)
	}
}

func TestAliases(t *testing.T) {
	op := New("A", nil, types.Names{types.Aliased("y", "z")}, func(in Inputs) (Outputs, error) {
		return Outputs{"y": 1}, nil
	}, Flags{})

	aliases := op.Aliases()
	if len(aliases) != 1 || aliases[0] != [2]string{"y", "z"} {
		t.Fatalf("Aliases() = %v, want [[y z]]", aliases)
	}
}

func TestNewCopiesSlices(t *testing.T) {
	needs := types.Names{types.Plain("x")}
	op := New("A", needs, nil, func(in Inputs) (Outputs, error) { return Outputs{}, nil }, Flags{})
	needs[0] = types.Plain("mutated")
	if op.Needs()[0].Base != "x" {
		t.Fatal("mutating the caller's needs slice affected the constructed Operation")
	}
}
