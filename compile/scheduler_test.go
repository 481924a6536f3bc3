package compile

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/gurbos/tcc/card"
	"github.com/gurbos/tcc/config"
	"github.com/gurbos/tcc/datastore"
	"github.com/gurbos/tcc/encode"
	"github.com/gurbos/tcc/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRenderer writes an empty file per image and tracks how many calls
// overlap.
type fakeRenderer struct {
	delay    time.Duration
	failID   int64
	inFlight atomic.Int64
	peak     atomic.Int64

	mu    sync.Mutex
	cards []int64
}

func (f *fakeRenderer) RenderCard(c *card.Card, artwork, dst string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for p := f.peak.Load(); n > p && !f.peak.CompareAndSwap(p, n); p = f.peak.Load() {
	}
	time.Sleep(f.delay)

	if c.ID == f.failID {
		return fmt.Errorf("artwork for %d: %w", c.ID, os.ErrNotExist)
	}
	f.mu.Lock()
	f.cards = append(f.cards, c.ID)
	f.mu.Unlock()
	return os.WriteFile(dst, nil, 0o644)
}

func (f *fakeRenderer) RenderField(artwork, dst string) error {
	return os.WriteFile(dst, nil, 0o644)
}

type fixture struct {
	base  string
	set   *config.Set
	store *datastore.CardDB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	out := filepath.Join(base, "expansions")
	f := &fixture{
		base: base,
		set: &config.Set{
			SetName:       "test",
			BasePath:      base,
			ExpansionPath: out,
			CardDB:        filepath.Join(out, "test.cdb"),
			PicPath:       filepath.Join(out, "pics"),
			PicFieldPath:  filepath.Join(out, "pics", "field"),
			ScriptPath:    filepath.Join(out, "script"),
			DrawField:     true,
			DrawPics:      true,
			MaxThread:     2,
		},
	}
	db, err := datastore.OpenCardDB(context.Background(), filepath.Join(base, "test.cdb"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f.store = db
	return f
}

func (f *fixture) write(t *testing.T, rel, body string) {
	t.Helper()
	path := filepath.Join(f.base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func (f *fixture) pack(t *testing.T, name, index string, compile bool) {
	t.Helper()
	f.write(t, filepath.Join(name, card.IndexFileName), index)
	if compile {
		f.set.Packs = append(f.set.Packs, name)
	} else {
		f.set.SkipCompilePacks = append(f.set.SkipCompilePacks, name)
	}
}

func (f *fixture) scheduler(t *testing.T, r Renderer) *Scheduler {
	return New(f.set, Options{Store: f.store, Renderer: r, Logger: zaptest.NewLogger(t)})
}

const corePack = `
[alpha]
id = 100
name = "Alpha"
set = "Heroes"
type = "Normal Monster"
attribute = "Light"
race = "Dragon"
level = 4
atk = 1800
def = 1000
flavor = "{GREETING} from {CARD_NAME}."

[beta]
id = 200
name = "Beta Field"
type = "Field Spell"
effect = "{BOOST|500}"

[gamma]
id = 300
name = "Gamma"
type = "Link Effect Monster"
race = "Cyberse"
attribute = "Dark"
link = 2
link_arrow = "Top BottomLeft"
atk = 1500
effect = "{BOOST|300} for {OWN}."
`

func monsters(ids ...int64) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "[c%d]\nid = %d\nname = \"Card %d\"\ntype = \"Effect Monster\"\nlevel = 4\natk = 100\ndef = 100\neffect = \"{CARD_NAME} attacks.\"\n\n", id, id, id)
	}
	return b.String()
}

func coreFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.pack(t, "core", corePack, true)
	f.write(t, "macro.toml", "GREETING = \"Hello\"\nBOOST = \"Gain {0} LP\"\n")
	f.write(t, "core/macro.toml", "OWN = \"{CARD_NAME}'s controller\"\n")
	f.write(t, "setcodes.toml", "Heroes = 0x8\n")
	f.write(t, "utility/utility.lua", "-- shared\n")
	f.set.Setcodes = []string{filepath.Join(f.base, "setcodes.toml")}
	return f
}

func TestRunCompilesSet(t *testing.T) {
	ctx := context.Background()
	f := coreFixture(t)
	r := &fakeRenderer{}

	rep, err := f.scheduler(t, r).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Collected)
	assert.Equal(t, 3, rep.Compiled)
	assert.Equal(t, 3, rep.Images)
	assert.Equal(t, 1, rep.Fields)
	assert.Equal(t, 3, rep.Stubs)
	assert.Equal(t, 3, rep.Scripts)
	assert.Equal(t, 1, rep.Utility)
	assert.NotEmpty(t, rep.RunID)

	ids, err := f.store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, ids)

	alpha, err := f.store.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Hello from Alpha.", alpha.Text.Desc)
	assert.EqualValues(t, 0x8, alpha.Data.Setcode)

	beta, err := f.store.Get(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, "Gain 500 LP", beta.Text.Desc)

	gamma, err := f.store.Get(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, "Gain 300 LP for Gamma's controller.", gamma.Text.Desc)
	assert.EqualValues(t, 2, gamma.Data.Level)

	for _, p := range []string{
		filepath.Join(f.set.PicPath, "100.png"),
		filepath.Join(f.set.PicFieldPath, "200.png"),
		filepath.Join(f.set.ScriptPath, "c300.lua"),
		filepath.Join(f.set.ScriptPath, "utility.lua"),
		filepath.Join(f.base, "core", "script", "c100.lua"),
	} {
		assert.FileExists(t, p)
	}
	assert.NoFileExists(t, filepath.Join(f.set.PicFieldPath, "100.png"))
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := coreFixture(t)

	_, err := f.scheduler(t, &fakeRenderer{}).Run(ctx)
	require.NoError(t, err)
	first := map[int64]encode.Record{}
	for _, id := range []int64{100, 200, 300} {
		first[id], err = f.store.Get(ctx, id)
		require.NoError(t, err)
	}

	rep, err := f.scheduler(t, &fakeRenderer{}).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.RemovedRows)
	assert.Zero(t, rep.Stubs)

	ids, err := f.store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, ids)
	for id, want := range first {
		got, err := f.store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReconcileRemovesStaleOutputs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.Upsert(ctx,
		encode.Record{Data: encode.Data{ID: 1}, Text: encode.Text{ID: 1}},
		encode.Record{Data: encode.Data{ID: 2}, Text: encode.Text{ID: 2}},
		encode.Record{Data: encode.Data{ID: 3}, Text: encode.Text{ID: 3}},
	))
	for _, rel := range []string{
		"expansions/pics/1.png", "expansions/pics/2.jpg", "expansions/pics/notes.txt",
		"expansions/pics/field/1.jpg", "expansions/script/c1.lua", "expansions/script/c3.lua",
		"expansions/script/utility.lua",
	} {
		f.write(t, rel, "")
	}

	rep := &Report{}
	require.NoError(t, f.scheduler(t, nil).reconcile(ctx, []int64{2, 3, 4}, rep))
	assert.EqualValues(t, 1, rep.RemovedRows)
	assert.Equal(t, 3, rep.RemovedFiles)

	ids, err := f.store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	assert.NoFileExists(t, filepath.Join(f.set.PicPath, "1.png"))
	assert.NoFileExists(t, filepath.Join(f.set.PicFieldPath, "1.jpg"))
	assert.NoFileExists(t, filepath.Join(f.set.ScriptPath, "c1.lua"))
	assert.FileExists(t, filepath.Join(f.set.PicPath, "2.jpg"))
	assert.FileExists(t, filepath.Join(f.set.PicPath, "notes.txt"))
	assert.FileExists(t, filepath.Join(f.set.ScriptPath, "c3.lua"))
	assert.FileExists(t, filepath.Join(f.set.ScriptPath, "utility.lua"))
}

func TestRunRemovesCardsGoneFromSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pack(t, "core", monsters(2, 3, 4), true)
	require.NoError(t, f.store.Upsert(ctx,
		encode.Record{Data: encode.Data{ID: 1}, Text: encode.Text{ID: 1}},
		encode.Record{Data: encode.Data{ID: 2}, Text: encode.Text{ID: 2}},
	))

	rep, err := f.scheduler(t, nil).Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.RemovedRows)

	ids, err := f.store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, ids)
}

func TestRunBoundedConcurrency(t *testing.T) {
	ids := make([]int64, 40)
	for i := range ids {
		ids[i] = int64(1000 + i)
	}
	for _, n := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("max_thread=%d", n), func(t *testing.T) {
			f := newFixture(t)
			f.set.MaxThread = n
			f.pack(t, "core", monsters(ids...), true)
			r := &fakeRenderer{delay: 2 * time.Millisecond}

			rep, err := f.scheduler(t, r).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, len(ids), rep.Compiled)
			assert.LessOrEqual(t, rep.PeakInFlight, n)
			assert.GreaterOrEqual(t, rep.PeakInFlight, 1)
			assert.LessOrEqual(t, int(r.peak.Load()), n)
			assert.Len(t, r.cards, len(ids))
		})
	}
}

func TestRunDuplicateID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pack(t, "one", monsters(5, 6), true)
	f.pack(t, "two", monsters(6), true)
	require.NoError(t, f.store.Upsert(ctx, encode.Record{Data: encode.Data{ID: 9}, Text: encode.Text{ID: 9}}))

	_, err := f.scheduler(t, &fakeRenderer{}).Run(ctx)
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Contains(t, err.Error(), "6")

	ids, err := f.store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids)
	assert.NoDirExists(t, f.set.PicPath)
}

func TestRunInvalidCardsAbort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pack(t, "core", monsters(1)+`
[nameless]
id = 2
type = "Normal Monster"

[untyped]
id = 3
name = "No primary"
type = "Tuner Monster"

[badstat]
id = 4
name = "Bad"
type = "Normal Monster"
atk = "lots"
`, true)
	require.NoError(t, f.store.Upsert(ctx, encode.Record{Data: encode.Data{ID: 9}, Text: encode.Text{ID: 9}}))

	_, err := f.scheduler(t, &fakeRenderer{}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, card.ErrInvalid)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)

	ids, err := f.store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids)
}

func TestRunStrictTypes(t *testing.T) {
	f := newFixture(t)
	f.set.StrictTypes = true
	f.pack(t, "core", `
[typo]
id = 1
name = "Typo"
type = "Normal Monster"
race = "Dragn"
`, true)

	_, err := f.scheduler(t, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, card.ErrInvalid)
	assert.Contains(t, err.Error(), "Dragn")

	f.set.StrictTypes = false
	_, err = f.scheduler(t, nil).Run(context.Background())
	assert.NoError(t, err)
}

func TestRunSkipList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pack(t, "core", monsters(1), true)
	f.pack(t, "old", monsters(500), false)
	kept := encode.Record{Data: encode.Data{ID: 500, Atk: 7}, Text: encode.Text{ID: 500, Name: "from last run"}}
	require.NoError(t, f.store.Upsert(ctx, kept))

	r := &fakeRenderer{}
	rep, err := f.scheduler(t, r).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Collected)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Compiled)
	assert.Equal(t, []int64{1}, r.cards)

	got, err := f.store.Get(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, kept, got)
}

func TestRunRenderFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.pack(t, "core", monsters(1, 2, 3, 4, 5, 6), true)

	_, err := f.scheduler(t, &fakeRenderer{failID: 3}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunMissingPack(t *testing.T) {
	f := newFixture(t)
	f.set.Packs = []string{"nowhere"}

	_, err := f.scheduler(t, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t)
	f.pack(t, "core", monsters(1, 2, 3), true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.scheduler(t, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithRenderer(t *testing.T) {
	f := newFixture(t)
	f.pack(t, "core", monsters(77), true)
	art := imaging.New(400, 300, color.NRGBA{0x80, 0x20, 0x20, 0xff})
	require.NoError(t, os.MkdirAll(filepath.Join(f.base, "core", "artwork"), 0o755))
	require.NoError(t, imaging.Save(art, filepath.Join(f.base, "core", "artwork", "77.png")))

	r, err := render.New("", zaptest.NewLogger(t))
	require.NoError(t, err)
	rep, err := f.scheduler(t, r).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Images)

	img, err := imaging.Open(filepath.Join(f.set.PicPath, "77.png"))
	require.NoError(t, err)
	assert.Equal(t, render.CardWidth, img.Bounds().Dx())
}
