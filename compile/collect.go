package compile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gurbos/tcc/card"
	"github.com/gurbos/tcc/macro"
)

// ErrDuplicateID is returned when two collected cards share an id.
var ErrDuplicateID = errors.New("duplicate card id")

// ValidationErrors lists every card of a run that failed resolution or
// validation.
type ValidationErrors []error

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d invalid cards:\n  %s", len(e), strings.Join(msgs, "\n  "))
}

func (e ValidationErrors) Unwrap() []error { return e }

// entry is a collected card and whether this run compiles it.
type entry struct {
	card    *card.Card
	compile bool
}

type packResult struct {
	entries []entry
	layers  []macro.Layer
	invalid []error
}

// packs returns every pack directory of the set, compiled packs first,
// each paired with whether it is compiled.
func (s *Scheduler) packs() ([]string, []bool) {
	var dirs []string
	var compiled []bool
	seen := map[string]bool{}
	add := func(name string) {
		dir := s.set.PackDir(name)
		if seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
		compiled = append(compiled, !s.set.Skipped(name))
	}
	for _, p := range s.set.Packs {
		add(p)
	}
	for _, p := range s.set.SkipCompilePacks {
		add(p)
	}
	return dirs, compiled
}

// collect loads, resolves and validates every card of every pack. Pack loading
// errors abort at once; invalid cards are gathered so all of them are
// reported together.
func (s *Scheduler) collect(ctx context.Context) ([]entry, map[string][]macro.Layer, error) {
	dirs, compiled := s.packs()
	results := make([]packResult, len(dirs))

	setLayers, err := macro.LoadLayers(s.set.BasePath)
	if err != nil {
		return nil, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defs, err := card.LoadPack(dir)
			if err != nil {
				return fmt.Errorf("Error loading pack %s: %w", dir, err)
			}
			packLayers, err := macro.LoadLayers(dir)
			if err != nil {
				return err
			}

			r := &results[i]
			r.layers = append(slices.Clone(setLayers), packLayers...)
			for _, d := range defs {
				c, err := card.Resolve(d, s.resolver)
				if err != nil {
					r.invalid = append(r.invalid, fmt.Errorf("%s: %w: %w", dir, card.ErrInvalid, err))
					continue
				}
				if err := card.Validate(c); err != nil {
					r.invalid = append(r.invalid, err)
					continue
				}
				r.entries = append(r.entries, entry{card: c, compile: compiled[i]})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var entries []entry
	var invalid ValidationErrors
	layers := make(map[string][]macro.Layer, len(dirs))
	for i, r := range results {
		entries = append(entries, r.entries...)
		invalid = append(invalid, r.invalid...)
		layers[dirs[i]] = r.layers
	}
	if len(invalid) > 0 {
		return nil, nil, invalid
	}

	owner := make(map[int64]*card.Card, len(entries))
	for _, e := range entries {
		if prev, ok := owner[e.card.ID]; ok {
			return nil, nil, fmt.Errorf("%w %d: %s (%s) and %s (%s)",
				ErrDuplicateID, e.card.ID, prev.Key, prev.Pack, e.card.Key, e.card.Pack)
		}
		owner[e.card.ID] = e.card
	}
	return entries, layers, nil
}
