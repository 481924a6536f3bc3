// Package compile runs a card set through Collect, Reconcile and Compile and
// writes the card database, card images and scripts.
package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gurbos/tcc/card"
	"github.com/gurbos/tcc/cardtype"
	"github.com/gurbos/tcc/config"
	"github.com/gurbos/tcc/datastore"
	"github.com/gurbos/tcc/encode"
	"github.com/gurbos/tcc/macro"
	"github.com/gurbos/tcc/render"
)

// Renderer draws card images. Implementations must be safe for concurrent
// use.
type Renderer interface {
	RenderCard(c *card.Card, artwork, dst string) error
	RenderField(artwork, dst string) error
}

// Options are the collaborators of a Scheduler.
type Options struct {
	Store datastore.Store

	// Renderer may be nil, in which case no images are drawn.
	Renderer Renderer

	Logger *zap.Logger
}

// Scheduler compiles one card set.
type Scheduler struct {
	set      *config.Set
	store    datastore.Store
	renderer Renderer
	resolver cardtype.Resolver
	logger   *zap.Logger
}

// New returns a Scheduler for set.
func New(set *config.Set, opt Options) *Scheduler {
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := cardtype.Resolver{Mode: cardtype.Lenient}
	if set.StrictTypes {
		r.Mode = cardtype.Strict
	}
	return &Scheduler{
		set:      set,
		store:    opt.Store,
		renderer: opt.Renderer,
		resolver: r,
		logger:   logger,
	}
}

// Report summarizes one run.
type Report struct {
	RunID string

	Packs     int
	Collected int
	Compiled  int
	Skipped   int

	RemovedRows  int64
	RemovedFiles int

	Images  int
	Fields  int
	Stubs   int
	Scripts int
	Utility int

	// PeakInFlight is the most cards compiled at the same time.
	PeakInFlight int
	Duration     time.Duration
}

// run holds the counters shared by the workers of one Compile phase.
type run struct {
	inFlight atomic.Int64
	peak     atomic.Int64
	images   atomic.Int64
	fields   atomic.Int64
	stubs    atomic.Int64
	scripts  atomic.Int64
	compiled atomic.Int64
}

func (r *run) enter() {
	n := r.inFlight.Add(1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (r *run) leave() { r.inFlight.Add(-1) }

// Run collects and validates every pack, removes outputs of cards that are
// gone, then compiles the cards of every pack not in the skip list. Nothing
// is written when collection fails. A failure while compiling aborts the run
// and may leave some cards written.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{RunID: uuid.NewString()}
	logger := s.logger.With(zap.String("run_id", rep.RunID), zap.String("set", s.set.SetName))

	codes, err := encode.LoadSetCodes(s.set.Setcodes...)
	if err != nil {
		return nil, err
	}

	entries, layers, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	rep.Packs = len(layers)
	rep.Collected = len(entries)
	keep := make([]int64, len(entries))
	for i, e := range entries {
		keep[i] = e.card.ID
		if !e.compile {
			rep.Skipped++
		}
	}
	slices.Sort(keep)
	logger.Info("collected", zap.Int("packs", rep.Packs), zap.Int("cards", rep.Collected), zap.Int("skipped", rep.Skipped))

	if err := s.reconcile(ctx, keep, rep); err != nil {
		return nil, err
	}

	if saver, ok := s.store.(datastore.SetCodeSaver); ok {
		if err := saver.SaveSetCodes(ctx, codes); err != nil {
			return nil, err
		}
	}

	for _, dir := range []string{s.set.PicPath, s.set.PicFieldPath, s.set.ScriptPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("Error creating output directory: %w", err)
		}
	}

	st := &run{}
	err = s.compile(ctx, entries, layers, codes, st, logger)
	rep.Compiled = int(st.compiled.Load())
	rep.Images = int(st.images.Load())
	rep.Fields = int(st.fields.Load())
	rep.Stubs = int(st.stubs.Load())
	rep.Scripts = int(st.scripts.Load())
	rep.PeakInFlight = int(st.peak.Load())
	if err != nil {
		return rep, err
	}

	rep.Utility, err = render.CopyDir(s.set.UtilityPath(), s.set.ScriptPath)
	if err != nil {
		return rep, err
	}
	rep.Duration = time.Since(start)

	logger.Info("compiled",
		zap.Int("cards", rep.Compiled),
		zap.Int("images", rep.Images),
		zap.Int("scripts", rep.Scripts),
		zap.Int("peak_in_flight", rep.PeakInFlight),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// compile runs at most set.MaxThread card workers at once. Encoded records go
// to a single writer goroutine so the store sees one writer.
func (s *Scheduler) compile(ctx context.Context, entries []entry, layers map[string][]macro.Layer,
	codes encode.SetCodes, st *run, logger *zap.Logger) error {
	records := make(chan encode.Record)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for rec := range records {
			if err := s.store.Upsert(gctx, rec); err != nil {
				return fmt.Errorf("Error storing card %d: %w", rec.ID(), err)
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(records)

		workers, wctx := errgroup.WithContext(gctx)
		workers.SetLimit(max(s.set.MaxThread, 1))
		for _, e := range entries {
			if !e.compile {
				continue
			}
			if wctx.Err() != nil {
				break
			}
			e := e
			workers.Go(func() error {
				st.enter()
				defer st.leave()
				return s.compileCard(wctx, e.card, layers[e.card.Pack], codes, records, st, logger)
			})
		}
		return workers.Wait()
	})

	return g.Wait()
}

// compileCard substitutes macros into a copy of c, encodes it, hands the
// record to the writer and draws its image and script.
func (s *Scheduler) compileCard(ctx context.Context, c *card.Card, layers []macro.Layer, codes encode.SetCodes,
	records chan<- encode.Record, st *run, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	table, err := macro.BuildTable(layers, c.Name)
	if err != nil {
		return fmt.Errorf("Error building macros for card %d: %w", c.ID, err)
	}
	cc := *c
	cc.Strings = slices.Clone(c.Strings)
	for _, p := range cc.Texts() {
		*p = table.Substitute(*p)
	}

	rec := encode.Encode(&cc, codes)
	select {
	case records <- rec:
	case <-ctx.Done():
		return ctx.Err()
	}

	id := strconv.FormatInt(cc.ID, 10)
	if s.renderer != nil && s.set.DrawPics && cc.GeneratePic {
		artwork := cc.ArtworkPath(fileExists)
		if err := s.renderer.RenderCard(&cc, artwork, filepath.Join(s.set.PicPath, id+".png")); err != nil {
			return err
		}
		st.images.Add(1)
		if cc.IsFieldSpell() && s.set.DrawField {
			if err := s.renderer.RenderField(artwork, filepath.Join(s.set.PicFieldPath, id+".png")); err != nil {
				return err
			}
			st.fields.Add(1)
		}
	}

	if cc.GenerateScript {
		wrote, err := render.EnsureScript(&cc)
		if err != nil {
			return err
		}
		if wrote {
			st.stubs.Add(1)
		}
	}
	if fileExists(cc.ScriptPath()) {
		if err := render.CopyFile(cc.ScriptPath(), filepath.Join(s.set.ScriptPath, "c"+id+".lua")); err != nil {
			return err
		}
		st.scripts.Add(1)
	}

	st.compiled.Add(1)
	logger.Debug("compiled card", zap.Int64("id", cc.ID), zap.String("name", cc.Name))
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
