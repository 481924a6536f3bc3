// Package cardtype matches free-text card descriptors ("Effect Xyz Monster",
// "DARK", "Winged-Beast") against closed universes of tagged values.
package cardtype

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Tag is the constraint shared by every value universe. Tags carry the
// numeric code the card database expects for the value.
type Tag interface {
	~uint64
}

// Value is one member of a universe.
type Value[T Tag] struct {
	Tag  T
	Name string // canonical name, e.g. "WingedBeast"
	Text string // display text, e.g. "Winged-Beast"; defaults to Name
}

// Universe is an ordered, closed set of values. It is immutable after
// construction and safe for concurrent use.
type Universe[T Tag] struct {
	name   string
	values []Value[T]
	index  map[string]int // normalized name -> position in values
}

// NewUniverse builds a universe. Values keep the order given here, which is
// the order MatchAll reports matches in.
func NewUniverse[T Tag](name string, values ...Value[T]) *Universe[T] {
	u := &Universe[T]{
		name:   name,
		values: make([]Value[T], len(values)),
		index:  make(map[string]int, len(values)),
	}
	for i, v := range values {
		if v.Text == "" {
			v.Text = v.Name
		}
		u.values[i] = v
		u.index[Normalize(v.Name)] = i
	}
	return u
}

// Name returns the universe's name, used in error messages.
func (u *Universe[T]) Name() string { return u.name }

// Values returns a copy of the universe's members in declaration order.
func (u *Universe[T]) Values() []Value[T] {
	out := make([]Value[T], len(u.values))
	copy(out, u.values)
	return out
}

// Lookup returns the value whose canonical name matches token.
func (u *Universe[T]) Lookup(token string) (Value[T], bool) {
	i, ok := u.index[Normalize(token)]
	if !ok {
		return Value[T]{}, false
	}
	return u.values[i], true
}

// Contains reports whether token names a member of the universe.
func (u *Universe[T]) Contains(token string) bool {
	_, ok := u.index[Normalize(token)]
	return ok
}

// Text returns the display text for tag, or "" when tag is not a member.
func (u *Universe[T]) Text(tag T) string {
	for _, v := range u.values {
		if v.Tag == tag {
			return v.Text
		}
	}
	return ""
}

var caseBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// Normalize maps a descriptor to the form used for comparisons:
// camel-case boundaries, hyphens, underscores and spaces all become a single
// hyphen, and letters are case-folded. "WingedBeast", "winged-beast" and
// "Winged Beast" all normalize to "winged-beast".
func Normalize(s string) string {
	s = caseBoundary.ReplaceAllString(s, "$1 $2")
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t' || r == '\n' || r == '\r'
	})
	// Casers keep state, so each call gets its own.
	return cases.Fold().String(strings.Join(parts, "-"))
}
