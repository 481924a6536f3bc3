package render

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gurbos/tcc/card"
	"github.com/gurbos/tcc/cardtype"
)

func intp(v int) *int { return &v }

func resolve(t *testing.T, d card.Definition) *card.Card {
	t.Helper()
	if d.ID == 0 {
		d.ID = 42
	}
	c, err := card.Resolve(d, cardtype.Resolver{})
	require.NoError(t, err)
	return c
}

func writeArtwork(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "art.png")
	require.NoError(t, imaging.Save(imaging.New(w, h, color.NRGBA{0x30, 0x60, 0x90, 0xff}), path))
	return path
}

func TestRenderCard(t *testing.T) {
	r, err := New("", zaptest.NewLogger(t))
	require.NoError(t, err)

	dir := t.TempDir()
	art := writeArtwork(t, dir, 300, 200)

	cards := []*card.Card{
		resolve(t, card.Definition{
			Name: "A Monster With A Name Long Enough To Need Squeezing Into The Name Bar",
			Type: "Effect Pendulum Monster", Attribute: "Dark", Race: "Fiend",
			Level: intp(7), Scale: intp(4), Atk: int64(2500), Def: "?",
			PendulumEffect: "Once per turn.", Effect: "When this card is summoned, draw 1 card.",
		}),
		resolve(t, card.Definition{Name: "Spell", Type: "Quick-Play Spell", Effect: "Draw 2 cards."}),
		resolve(t, card.Definition{Name: "Link", Type: "Link Effect Monster", Link: intp(3), LinkArrow: "Top"}),
	}
	for i, c := range cards {
		dst := filepath.Join(dir, "out", "card.png")
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, r.RenderCard(c, art, dst), "card %d", i)

		img, err := imaging.Open(dst)
		require.NoError(t, err)
		assert.Equal(t, CardWidth, img.Bounds().Dx())
		assert.Equal(t, CardHeight, img.Bounds().Dy())
	}
}

func TestRenderCardMissingArtwork(t *testing.T) {
	r, err := New("", nil)
	require.NoError(t, err)

	c := resolve(t, card.Definition{Name: "x", Type: "Normal Monster"})
	err = r.RenderCard(c, filepath.Join(t.TempDir(), "missing.png"), filepath.Join(t.TempDir(), "o.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderField(t *testing.T) {
	r, err := New("", nil)
	require.NoError(t, err)

	dir := t.TempDir()
	dst := filepath.Join(dir, "field.png")
	require.NoError(t, r.RenderField(writeArtwork(t, dir, 800, 300), dst))

	img, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, FieldSize, img.Bounds().Dx())
	assert.Equal(t, FieldSize, img.Bounds().Dy())
}

func TestNewBadFont(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))

	_, err := New(bad, nil)
	assert.Error(t, err)
	_, err = New(filepath.Join(dir, "missing.ttf"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTypeLine(t *testing.T) {
	tests := []struct {
		def  card.Definition
		want string
	}{
		{card.Definition{Type: "Synchro Tuner Effect Monster", Race: "Dragon"}, "[Dragon/Synchro/Tuner/Effect]"},
		{card.Definition{Type: "Normal Pendulum Monster", Race: "SeaSerpent"}, "[Sea Serpent/Pendulum/Normal]"},
		{card.Definition{Type: "Xyz Pendulum Effect Monster", Race: "winged-beast"}, "[Winged-Beast/Xyz/Pendulum/Effect]"},
		{card.Definition{Type: "Token Normal Monster", Race: "Plant"}, "[Plant/Token]"},
		{card.Definition{Type: "Effect Nomi Monster", Race: "Warrior"}, "[Warrior/Effect]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeLine(resolve(t, tt.def)), tt.def.Type)
	}
}

func TestSpellTypeLine(t *testing.T) {
	assert.Equal(t, "[Spell Card]", SpellTypeLine(resolve(t, card.Definition{Type: "Spell"})))
	assert.Equal(t, "[Quick-Play Spell]", SpellTypeLine(resolve(t, card.Definition{Type: "Quick-Play Spell"})))
	assert.Equal(t, "[Counter Trap]", SpellTypeLine(resolve(t, card.Definition{Type: "Counter Trap"})))
}

func TestLevelLine(t *testing.T) {
	assert.Equal(t, "LIGHT  Level 4", levelLine(resolve(t, card.Definition{Type: "Normal Monster", Attribute: "Light", Level: intp(4)})))
	assert.Equal(t, "Rank 3", levelLine(resolve(t, card.Definition{Type: "Xyz Monster", Rank: intp(3)})))
	assert.Equal(t, "", levelLine(resolve(t, card.Definition{
		Type: "Xyz Monster", Rank: intp(3), ShowRank: new(bool),
	})))
	assert.Equal(t, "LINK-2  Scale 1/?", levelLine(resolve(t, card.Definition{
		Type: "Link Pendulum Monster", Link: intp(2), LeftScale: intp(1),
	})))
}

func TestEnsureScript(t *testing.T) {
	pack := t.TempDir()
	c := &card.Card{Pack: pack, ID: 1234, Name: "Stubbed"}

	wrote, err := EnsureScript(c)
	require.NoError(t, err)
	assert.True(t, wrote)

	data, err := os.ReadFile(filepath.Join(pack, "script", "c1234.lua"))
	require.NoError(t, err)
	assert.Equal(t, "-- Stubbed\nlocal s, id = GetID()\n\nfunction s.initial_effect(c)\n\nend\n", string(data))

	require.NoError(t, os.WriteFile(c.ScriptPath(), []byte("-- hand written\n"), 0o644))
	wrote, err = EnsureScript(c)
	require.NoError(t, err)
	assert.False(t, wrote)
	data, _ = os.ReadFile(c.ScriptPath())
	assert.Equal(t, "-- hand written\n", string(data))
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "utility.lua"), []byte("u"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "nested"), 0o755))

	n, err := CopyDir(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	data, err := os.ReadFile(filepath.Join(dst, "utility.lua"))
	require.NoError(t, err)
	assert.Equal(t, "u", string(data))

	n, err = CopyDir(filepath.Join(src, "missing"), dst)
	require.NoError(t, err)
	assert.Zero(t, n)
}
