// Package render draws proxy card images and field backgrounds, and writes
// card script stubs.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gurbos/tcc/card"
	"github.com/gurbos/tcc/cardtype"
	"github.com/gurbos/tcc/layout"
)

const (
	CardWidth  = 694
	CardHeight = 1013
	FieldSize  = 512

	minTextSize = 8
)

var (
	artBox         = image.Rect(84, 187, 84+526, 187+526)
	pendulumArtBox = image.Rect(44, 182, 44+605, 182+570)

	nameBox      = layout.Box{X: 50, Y: 43, Width: 525}
	typeLineBox  = layout.Box{X: 53, Y: 760, Width: 590}
	monsterText  = layout.Box{X: 55, Y: 790, Width: 580, Height: 130}
	spellText    = layout.Box{X: 55, Y: 765, Width: 580, Height: 185}
	pendulumText = layout.Box{X: 108, Y: 640, Width: 478, Height: 110}
	levelBox     = layout.Box{X: 50, Y: 130, Width: 594}
)

// Renderer draws cards with one font. It is safe for concurrent use: every
// call builds its own font faces.
type Renderer struct {
	font   *opentype.Font
	logger *zap.Logger
}

// New loads the TTF/OTF font at fontPath, or the bundled Go Regular font when
// fontPath is empty.
func New(fontPath string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data := goregular.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("Error reading font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Error parsing font %q: %w", fontPath, err)
	}
	return &Renderer{font: f, logger: logger}, nil
}

// typesetter caches faces by size for one drawing. Faces are not safe for
// concurrent use.
type typesetter struct {
	font  *opentype.Font
	faces map[float64]font.Face
	err   error
}

func (r *Renderer) typesetter() *typesetter {
	return &typesetter{font: r.font, faces: map[float64]font.Face{}}
}

func (ts *typesetter) face(size float64) font.Face {
	if f, ok := ts.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(ts.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		if ts.err == nil {
			ts.err = fmt.Errorf("Error creating font face: %w", err)
		}
		return nil
	}
	ts.faces[size] = f
	return f
}

// Measure is a layout.MeasureFunc.
func (ts *typesetter) Measure(s string, size float64) float64 {
	f := ts.face(size)
	if f == nil {
		return 0
	}
	return toFloat(font.MeasureString(f, s))
}

// LineHeight is a layout.LineHeightFunc.
func (ts *typesetter) LineHeight(size float64) float64 {
	f := ts.face(size)
	if f == nil {
		return size
	}
	return toFloat(f.Metrics().Height)
}

func (ts *typesetter) close() {
	for _, f := range ts.faces {
		f.Close()
	}
}

func (ts *typesetter) draw(dst *image.NRGBA, text string, x, y, size float64, c color.Color) {
	f := ts.face(size)
	if f == nil {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y*64) + f.Metrics().Ascent},
	}
	d.DrawString(text)
}

// label draws a one-line label, squeezing it horizontally when it is wider
// than box.Width.
func (ts *typesetter) label(dst *image.NRGBA, text string, box layout.Box, size float64, c color.Color) *image.NRGBA {
	l := layout.FitLabel(text, size, box.Width, ts.Measure)
	if l.ScaleX == 1 {
		ts.draw(dst, text, box.X, box.Y, size, c)
		return dst
	}
	h := int(math.Ceil(ts.LineHeight(size)))
	tmp := image.NewNRGBA(image.Rect(0, 0, int(math.Ceil(l.Width)), h))
	ts.draw(tmp, text, 0, 0, size, c)
	squeezed := imaging.Resize(tmp, int(l.DrawnWidth()), h, imaging.Lanczos)
	return imaging.Overlay(dst, squeezed, image.Pt(int(box.X), int(box.Y)), 1)
}

// block shrink-fits text into box and draws it left-aligned from the top.
func (ts *typesetter) block(dst *image.NRGBA, text string, box layout.Box, size float64, c color.Color) (bool, error) {
	f, err := layout.Fit(text, box, layout.Options{
		Size:       size,
		MinSize:    minTextSize,
		Measure:    ts.Measure,
		LineHeight: ts.LineHeight,
	})
	floor := errors.Is(err, layout.ErrFloorReached)
	if err != nil && !floor {
		return false, err
	}
	for _, p := range layout.Place(f, box, layout.AlignLeft, layout.AnchorTop, ts.Measure) {
		ts.draw(dst, p.Text, p.X, p.Y, p.Size, c)
	}
	return floor, nil
}

// RenderCard draws c over its artwork and saves the image to dst. The format
// follows dst's extension.
func (r *Renderer) RenderCard(c *card.Card, artwork, dst string) error {
	ts := r.typesetter()
	defer ts.close()

	canvas := imaging.New(CardWidth, CardHeight, frameColor(c))

	box := artBox
	if c.HasMonsterType(cardtype.Pendulum) {
		box = pendulumArtBox
	}
	art, err := imaging.Open(artwork)
	if err != nil {
		return fmt.Errorf("Error opening artwork for card %d: %w", c.ID, err)
	}
	art = imaging.Fill(art, box.Dx(), box.Dy(), imaging.Center, imaging.Lanczos)
	canvas = imaging.Paste(canvas, art, box.Min)

	ink := color.Color(color.Black)
	if c.IsSpellTrap() || c.HasMonsterType(cardtype.Xyz, cardtype.Link) {
		ink = color.White
	}
	canvas = ts.label(canvas, c.Name, nameBox, 64, ink)

	var overflow []string
	if c.IsSpellTrap() {
		canvas = ts.label(canvas, SpellTypeLine(c), levelBox, 30, ink)
		if floor, err := ts.block(canvas, c.Effect, spellText, 22, color.Black); err != nil {
			return err
		} else if floor {
			overflow = append(overflow, "effect")
		}
	} else {
		if s := levelLine(c); s != "" {
			canvas = ts.label(canvas, s, levelBox, 30, ink)
		}
		if c.HasMonsterType(cardtype.Pendulum) && c.PendulumEffect != "" {
			if floor, err := ts.block(canvas, c.PendulumEffect, pendulumText, 20, color.Black); err != nil {
				return err
			} else if floor {
				overflow = append(overflow, "pendulum effect")
			}
		}
		canvas = ts.label(canvas, TypeLine(c), typeLineBox, 24, color.Black)
		text := c.Effect
		if text == "" {
			text = c.Flavor
		}
		if floor, err := ts.block(canvas, text, monsterText, 22, color.Black); err != nil {
			return err
		} else if floor {
			overflow = append(overflow, "effect")
		}
		ts.draw(canvas, "ATK/"+statText(c.Atk), 380, 927, 30, color.Black)
		if !c.HasMonsterType(cardtype.Link) {
			ts.draw(canvas, "DEF/"+statText(c.Def), 525, 927, 30, color.Black)
		}
	}
	if ts.err != nil {
		return ts.err
	}
	if len(overflow) > 0 {
		r.logger.Warn("text overflows at minimum size",
			zap.Int64("id", c.ID), zap.Strings("fields", overflow))
	}

	if err := imaging.Save(canvas, dst); err != nil {
		return fmt.Errorf("Error saving card image: %w", err)
	}
	return nil
}

// RenderField writes the square field background cropped from artwork.
func (r *Renderer) RenderField(artwork, dst string) error {
	art, err := imaging.Open(artwork)
	if err != nil {
		return fmt.Errorf("Error opening field artwork: %w", err)
	}
	field := imaging.Fill(art, FieldSize, FieldSize, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(field, dst); err != nil {
		return fmt.Errorf("Error saving field image: %w", err)
	}
	return nil
}

// TypeLine is the bracketed race/type line of a monster, for example
// "[Dragon/Synchro/Tuner/Effect]". Normal and Effect are written last and
// Pendulum right after the other primary types; Nomi is never written.
func TypeLine(c *card.Card) string {
	var parts []string
	for _, r := range c.Races {
		parts = append(parts, cardtype.Races.Text(r))
	}
	for _, t := range c.Primary {
		if t != cardtype.Normal && t != cardtype.Effect {
			parts = append(parts, cardtype.MonsterTypes.Text(t))
		}
	}
	if c.HasMonsterType(cardtype.Pendulum) {
		parts = append(parts, cardtype.MonsterTypes.Text(cardtype.Pendulum))
	}
	for _, t := range c.Secondary {
		if t != cardtype.Pendulum && t != cardtype.Nomi {
			parts = append(parts, cardtype.MonsterTypes.Text(t))
		}
	}
	if !c.HasMonsterType(cardtype.Token) {
		if c.HasMonsterType(cardtype.Effect) {
			parts = append(parts, cardtype.MonsterTypes.Text(cardtype.Effect))
		} else if c.HasMonsterType(cardtype.Normal) {
			parts = append(parts, cardtype.MonsterTypes.Text(cardtype.Normal))
		}
	}
	return "[" + strings.Join(parts, "/") + "]"
}

// SpellTypeLine is the "[Quick-Play Spell]" style caption of a spell or trap.
func SpellTypeLine(c *card.Card) string {
	cat := cardtype.Categories.Text(c.Category)
	if c.SpellType == cardtype.NormalSpell {
		return "[" + cat + " Card]"
	}
	return "[" + cardtype.SpellTypes.Text(c.SpellType) + " " + cat + "]"
}

func levelLine(c *card.Card) string {
	gov, _ := c.Governing()
	var s string
	switch {
	case gov == cardtype.Link:
		s = "LINK-" + strconv.Itoa(c.LinkRating)
	case gov == cardtype.Xyz:
		if c.ShowRank && c.Rank > 0 {
			s = "Rank " + strconv.Itoa(c.Rank)
		}
	case c.ShowLevel && c.Level > 0:
		s = "Level " + strconv.Itoa(c.Level)
	}
	if c.HasMonsterType(cardtype.Pendulum) {
		scale := fmt.Sprintf("Scale %s/%s", scaleText(c.LeftScale), scaleText(c.RightScale))
		if s == "" {
			return scale
		}
		s += "  " + scale
	}
	if len(c.Attributes) > 0 {
		attr := cardtype.Attributes.Text(c.Attributes[0])
		if s == "" {
			return attr
		}
		s = attr + "  " + s
	}
	return s
}

func statText(v *int) string {
	if v == nil {
		return "   ?"
	}
	return fmt.Sprintf("%4d", *v)
}

func scaleText(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}

var frameColors = map[cardtype.MonsterType]color.NRGBA{
	cardtype.Normal:  {0xde, 0xb6, 0x6a, 0xff},
	cardtype.Effect:  {0xc8, 0x74, 0x3c, 0xff},
	cardtype.Ritual:  {0x6f, 0x8f, 0xd0, 0xff},
	cardtype.Fusion:  {0x8e, 0x5c, 0xa8, 0xff},
	cardtype.Synchro: {0xe8, 0xe8, 0xe8, 0xff},
	cardtype.Xyz:     {0x2a, 0x2a, 0x2a, 0xff},
	cardtype.Link:    {0x1f, 0x4e, 0x8c, 0xff},
	cardtype.Token:   {0xa0, 0xa0, 0xa0, 0xff},
}

func frameColor(c *card.Card) color.NRGBA {
	switch c.Category {
	case cardtype.Spell:
		return color.NRGBA{0x1d, 0x8a, 0x7a, 0xff}
	case cardtype.Trap:
		return color.NRGBA{0xa8, 0x3a, 0x7a, 0xff}
	}
	if gov, ok := c.Governing(); ok {
		return frameColors[gov]
	}
	return frameColors[cardtype.Normal]
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
