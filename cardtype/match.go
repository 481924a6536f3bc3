package cardtype

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownToken is returned by a strict Resolver when a descriptor token
// matches no value of the universes it was checked against.
var ErrUnknownToken = errors.New("unknown descriptor token")

// Matcher is anything that can tell whether a token names one of its values.
// Every *Universe satisfies it.
type Matcher interface {
	Name() string
	Contains(token string) bool
}

// Tokens splits a descriptor on whitespace.
func Tokens(text string) []string {
	return strings.Fields(text)
}

// MatchAll returns every value of u named by a token of text. The result is in
// universe order and holds each value at most once, so it does not depend on
// the order tokens were written in. Unknown tokens are ignored.
func MatchAll[T Tag](text string, u *Universe[T]) []T {
	hit := make([]bool, len(u.values))
	found := false
	for _, tok := range Tokens(text) {
		if i, ok := u.index[Normalize(tok)]; ok {
			hit[i] = true
			found = true
		}
	}
	if !found {
		return nil
	}
	var out []T
	for i, v := range u.values {
		if hit[i] {
			out = append(out, v.Tag)
		}
	}
	return out
}

// MatchFirst returns the value named by the first token of text, in input
// order, that belongs to u. It returns def when no token matches.
func MatchFirst[T Tag](text string, u *Universe[T], def T) T {
	for _, tok := range Tokens(text) {
		if v, ok := u.Lookup(tok); ok {
			return v.Tag
		}
	}
	return def
}

// Sum ORs the tags together.
func Sum[T Tag](tags []T) T {
	var s T
	for _, t := range tags {
		s |= t
	}
	return s
}

// Unmatched returns the tokens of text that none of the matchers recognise,
// in input order.
func Unmatched(text string, matchers ...Matcher) []string {
	var out []string
	for _, tok := range Tokens(text) {
		known := false
		for _, m := range matchers {
			if m.Contains(tok) {
				known = true
				break
			}
		}
		if !known {
			out = append(out, tok)
		}
	}
	return out
}

// Mode selects how a Resolver treats descriptor tokens that match nothing.
type Mode int

const (
	// Lenient drops unknown tokens silently.
	Lenient Mode = iota
	// Strict reports unknown tokens as ErrUnknownToken.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// Resolver checks descriptor fields for unknown tokens according to its Mode.
// The zero value is lenient.
type Resolver struct {
	Mode Mode
}

// Check validates text against the matchers. In lenient mode it never fails.
func (r Resolver) Check(field, text string, matchers ...Matcher) error {
	if r.Mode != Strict {
		return nil
	}
	unknown := Unmatched(text, matchers...)
	if len(unknown) == 0 {
		return nil
	}
	names := make([]string, len(matchers))
	for i, m := range matchers {
		names[i] = m.Name()
	}
	return fmt.Errorf("%s %q: %w %s (expected %s)", field, text, ErrUnknownToken,
		strings.Join(quoteAll(unknown), ", "), strings.Join(names, " or "))
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
