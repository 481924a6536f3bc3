// Package macro expands {NAME} and {NAME|arg|...} placeholders in card text.
//
// Macros come in layers. Each layer's templates are resolved against the
// macros registered before them when the table is built, once, so a template
// may use macros from outer layers and earlier in its own layer but a
// reference to a macro declared later in the same layer stays literal.
package macro

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CardName is bound to the card's name in every table.
const CardName = "CARD_NAME"

// ErrReservedName is returned when a layer tries to define CardName.
var ErrReservedName = errors.New("reserved macro name")

// Entry is one macro binding.
type Entry struct {
	Name     string
	Template string
}

// Layer is one scope of macros in declaration order.
type Layer struct {
	Source  string // file the layer was read from, if any
	Entries []Entry
}

// Table is a resolved set of macros. It is never modified after BuildTable
// returns and can be shared between goroutines.
type Table struct {
	macros []macro
	index  map[string]int
}

type macro struct {
	name     string
	template string
	re       *regexp.Regexp
}

var (
	validName  = regexp.MustCompile(`^[\p{L}\p{N}_\-.]+$`)
	positional = regexp.MustCompile(`\{(\d+)\}`)
)

func pattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\{` + regexp.QuoteMeta(name) + `((?:\|[\p{L}\p{N}_\-",. ]*)*)\}`)
}

// BuildTable binds CardName to cardName and registers the layers in order.
// An inner layer entry with the same name as an outer one replaces it.
// Entries with an empty template are skipped.
func BuildTable(layers []Layer, cardName string) (*Table, error) {
	t := &Table{index: map[string]int{}}
	t.set(CardName, cardName)

	for _, l := range layers {
		for _, e := range l.Entries {
			if e.Name == CardName {
				return nil, fmt.Errorf("%s: %w %s", l.Source, ErrReservedName, CardName)
			}
			if !validName.MatchString(e.Name) {
				return nil, fmt.Errorf("%s: invalid macro name %q", l.Source, e.Name)
			}
			if e.Template == "" {
				continue
			}
			resolved := t.Substitute(e.Template)
			if strings.TrimSpace(resolved) == "" {
				resolved = e.Template
			}
			t.set(e.Name, resolved)
		}
	}
	return t, nil
}

func (t *Table) set(name, template string) {
	if i, ok := t.index[name]; ok {
		t.macros[i].template = template
		return
	}
	t.index[name] = len(t.macros)
	t.macros = append(t.macros, macro{name: name, template: template, re: pattern(name)})
}

// Lookup returns the resolved template bound to name.
func (t *Table) Lookup(name string) (string, bool) {
	i, ok := t.index[name]
	if !ok {
		return "", false
	}
	return t.macros[i].template, true
}

// Names returns the bound names in registration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.macros))
	for i, m := range t.macros {
		out[i] = m.name
	}
	return out
}

func (t *Table) Len() int { return len(t.macros) }

// Substitute expands every occurrence of every bound macro in text, one pass
// per macro in registration order. Placeholders naming unknown macros are
// left as they are.
func (t *Table) Substitute(text string) string {
	if text == "" {
		return text
	}
	for _, m := range t.macros {
		if !strings.Contains(text, "{"+m.name) {
			continue
		}
		text = m.re.ReplaceAllStringFunc(text, func(match string) string {
			sub := m.re.FindStringSubmatch(match)
			return Format(m.template, splitArgs(sub[1])...)
		})
	}
	return text
}

// Substitute is Table.Substitute for a possibly nil table.
func Substitute(text string, t *Table) string {
	if t == nil {
		return text
	}
	return t.Substitute(text)
}

func splitArgs(raw string) []string {
	if raw == "" {
		return []string{""}
	}
	return strings.Split(raw[1:], "|")
}

// Format replaces {0}, {1}, ... in template with the matching argument.
// Indices without an argument expand to nothing.
func Format(template string, args ...string) string {
	return positional.ReplaceAllStringFunc(template, func(m string) string {
		i, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || i >= len(args) {
			return ""
		}
		return args[i]
	})
}
