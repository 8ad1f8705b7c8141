// Package pattern implements the small predicate algebra used to select
// vendored source files by name.
//
// Combining patterns is a conjunction, not a union: Combine(Start("Hacl"),
// End(".c")) matches "Hacl_Foo.c" and nothing that fails either side.
package pattern

import (
	"strconv"
	"strings"
)

// Kind identifies the form of a Pattern.
type Kind int

const (
	KindStart Kind = iota
	KindEnd
	KindContains
	KindExact
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindContains:
		return "contains"
	case KindExact:
		return "exact"
	case KindMulti:
		return "multi"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Pattern is a predicate over file names.
type Pattern struct {
	Kind Kind
	Text string    // unused for KindMulti
	Subs []Pattern // flat list, only for KindMulti
}

// Start matches names beginning with s.
func Start(s string) Pattern { return Pattern{Kind: KindStart, Text: s} }

// End matches names ending with s.
func End(s string) Pattern { return Pattern{Kind: KindEnd, Text: s} }

// Contains matches names containing s.
func Contains(s string) Pattern { return Pattern{Kind: KindContains, Text: s} }

// Exact matches the name s only.
func Exact(s string) Pattern { return Pattern{Kind: KindExact, Text: s} }

// Multi returns a pattern matching a name only if every pat matches it.
// Nested Multi patterns are flattened. An empty Multi matches everything.
func Multi(pats ...Pattern) Pattern {
	var subs []Pattern
	for _, p := range pats {
		subs = append(subs, p.canonical()...)
	}
	return Pattern{Kind: KindMulti, Subs: subs}
}

// Combine returns the conjunction of a and b.
func Combine(a, b Pattern) Pattern {
	return Multi(a, b)
}

// And is shorthand for Combine(p, other).
func (p Pattern) And(other Pattern) Pattern {
	return Combine(p, other)
}

// Match reports whether name satisfies p.
func (p Pattern) Match(name string) bool {
	switch p.Kind {
	case KindStart:
		return strings.HasPrefix(name, p.Text)
	case KindEnd:
		return strings.HasSuffix(name, p.Text)
	case KindContains:
		return strings.Contains(name, p.Text)
	case KindExact:
		return name == p.Text
	case KindMulti:
		for _, sub := range p.Subs {
			if !sub.Match(name) {
				return false
			}
		}
		return true
	}
	return false
}

// canonical returns p as a flat list of non-Multi patterns.
func (p Pattern) canonical() []Pattern {
	if p.Kind != KindMulti {
		return []Pattern{p}
	}
	var out []Pattern
	for _, sub := range p.Subs {
		out = append(out, sub.canonical()...)
	}
	return out
}

// String renders p for logs, e.g. start("Hacl_") && end(".c").
func (p Pattern) String() string {
	if p.Kind != KindMulti {
		return p.Kind.String() + "(" + strconv.Quote(p.Text) + ")"
	}
	if len(p.Subs) == 0 {
		return "any"
	}
	parts := make([]string, len(p.Subs))
	for i, sub := range p.Subs {
		parts[i] = sub.String()
	}
	return strings.Join(parts, " && ")
}
