package types

import "testing"

func TestPlainName(t *testing.T) {
	n := Plain("x")
	if n.Base != "x" || n.Kind != KindPlain {
		t.Fatalf("Plain(%q) = %+v", "x", n)
	}
	if n.IsOptional() || n.IsSideffect() || n.IsImplicit() || n.IsAliased() || n.IsKeyword() {
		t.Fatalf("plain name reported a modifier: %+v", n)
	}
	if got := n.BodyKey(); got != "x" {
		t.Fatalf("BodyKey() = %q, want %q", got, "x")
	}
	if got := n.String(); got != "x" {
		t.Fatalf("String() = %q, want %q", got, "x")
	}
}

func TestOptionalName(t *testing.T) {
	n := Optional("y")
	if !n.IsOptional() {
		t.Fatalf("Optional(%q) did not set IsOptional", "y")
	}
	if got, want := n.String(), "optional(y)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSideffectName(t *testing.T) {
	n := Sideffect("token")
	if !n.IsSideffect() {
		t.Fatal("Sideffect() did not set IsSideffect")
	}
	if n.BodyKey() != "token" {
		t.Fatalf("BodyKey() = %q, want %q", n.BodyKey(), "token")
	}
}

func TestImplicitName(t *testing.T) {
	n := Implicit("z")
	if !n.IsImplicit() {
		t.Fatal("Implicit() did not set IsImplicit")
	}
}

func TestAliasedName(t *testing.T) {
	n := Aliased("src", "dst")
	if !n.IsAliased() {
		t.Fatal("Aliased() did not set IsAliased")
	}
	if n.Base != "src" || n.Alias != "dst" {
		t.Fatalf("Aliased(src, dst) = %+v", n)
	}
	if got, want := n.String(), "aliased(src->dst)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestKeywordName(t *testing.T) {
	n := Keyword("name", "kw")
	if !n.IsKeyword() {
		t.Fatal("Keyword() did not set IsKeyword")
	}
	if got, want := n.BodyKey(), "kw"; got != want {
		t.Fatalf("BodyKey() = %q, want %q", got, want)
	}
	if got, want := n.String(), "keyword(name->kw)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestNamesBasesAndContains(t *testing.T) {
	ns := Names{Plain("a"), Optional("b"), Aliased("c", "d")}
	if got, want := ns.Bases(), []string{"a", "b", "c"}; !equalStrings(got, want) {
		t.Fatalf("Bases() = %v, want %v", got, want)
	}
	if !ns.Contains("b") {
		t.Fatal("Contains(b) = false, want true")
	}
	if ns.Contains("d") {
		t.Fatal("Contains(d) = true (alias target is not a base name), want false")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
