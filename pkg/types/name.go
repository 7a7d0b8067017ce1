// Package types holds the shared data model for the pipeline engine:
// data names and their modifiers, and the sentinel/typed errors raised
// across compilation and execution. Other packages (operation, network,
// planner, executor) build on these without importing each other,
// avoiding import cycles.
package types

import "fmt"

// Kind tags the semantic role a Name plays in an operation's needs or
// provides list. The zero value, KindPlain, is an ordinary data name.
type Kind int

const (
	KindPlain Kind = iota
	KindOptional
	KindSideffect
	KindImplicit
	KindAliased
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindOptional:
		return "optional"
	case KindSideffect:
		return "sideffect"
	case KindImplicit:
		return "implicit"
	case KindAliased:
		return "aliased"
	case KindKeyword:
		return "keyword"
	default:
		return "plain"
	}
}

// Name is a data name, optionally decorated by a modifier. Base is the
// name used for equality and graph matching; the modifier fields only
// affect planning and execution behavior, never identity.
//
//   - optional(name): Kind=KindOptional. Dependency may be absent.
//   - sideffect(token): Kind=KindSideffect. Orders but never carries a value.
//   - implicit(name): Kind=KindImplicit. Known to exist, not passed to the body.
//   - aliased(src, dst): Kind=KindAliased. After Src computes, also expose it as Dst.
//   - keyword(name, kw): Kind=KindKeyword. Passed to the body under Keyword instead of Base.
type Name struct {
	Base    string
	Kind    Kind
	Alias   string // for KindAliased: destination name
	Keyword string // for KindKeyword: body-visible argument name
}

// Plain constructs an unmodified data name.
func Plain(name string) Name { return Name{Base: name} }

// Optional marks a need as not required for the operation to run.
func Optional(name string) Name { return Name{Base: name, Kind: KindOptional} }

// Sideffect constructs a pseudo-name that carries ordering only.
func Sideffect(token string) Name { return Name{Base: token, Kind: KindSideffect} }

// Implicit marks a name as known to the solution but never passed to
// the operation body.
func Implicit(name string) Name { return Name{Base: name, Kind: KindImplicit} }

// Aliased marks a provide whose computed value should also be exposed
// under dst once the operation completes.
func Aliased(src, dst string) Name { return Name{Base: src, Kind: KindAliased, Alias: dst} }

// Keyword marks a need that should be passed to the operation body
// under a different argument name.
func Keyword(name, kw string) Name { return Name{Base: name, Kind: KindKeyword, Keyword: kw} }

// IsOptional reports whether a missing value for this need should not
// block the operation from running.
func (n Name) IsOptional() bool { return n.Kind == KindOptional }

// IsSideffect reports whether this name is an ordering-only token that
// never carries a value and is never passed to a body.
func (n Name) IsSideffect() bool { return n.Kind == KindSideffect }

// IsImplicit reports whether this name participates in planning but is
// withheld from the body's input mapping.
func (n Name) IsImplicit() bool { return n.Kind == KindImplicit }

// IsAliased reports whether this provide also publishes an alias.
func (n Name) IsAliased() bool { return n.Kind == KindAliased }

// IsKeyword reports whether this need is renamed before reaching the
// body.
func (n Name) IsKeyword() bool { return n.Kind == KindKeyword }

// BodyKey returns the key under which this need's value should appear
// in the mapping passed to the operation body: Keyword when renamed,
// Base otherwise.
func (n Name) BodyKey() string {
	if n.Kind == KindKeyword && n.Keyword != "" {
		return n.Keyword
	}
	return n.Base
}

// String renders a Name for diagnostics, in the decorator form used by
// the GLOSSARY (e.g. "optional(x)", "aliased(y->z)").
func (n Name) String() string {
	switch n.Kind {
	case KindOptional:
		return fmt.Sprintf("optional(%s)", n.Base)
	case KindSideffect:
		return fmt.Sprintf("sideffect(%s)", n.Base)
	case KindImplicit:
		return fmt.Sprintf("implicit(%s)", n.Base)
	case KindAliased:
		return fmt.Sprintf("aliased(%s->%s)", n.Base, n.Alias)
	case KindKeyword:
		return fmt.Sprintf("keyword(%s->%s)", n.Base, n.Keyword)
	default:
		return n.Base
	}
}

// Names is an ordered sequence of Name, preserving composition order
// for tie-breaking during scheduling (§4.4.2).
type Names []Name

// Bases returns the underlying base name strings in order.
func (ns Names) Bases() []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Base
	}
	return out
}

// Contains reports whether any element's base name equals name.
func (ns Names) Contains(name string) bool {
	for _, n := range ns {
		if n.Base == name {
			return true
		}
	}
	return false
}
