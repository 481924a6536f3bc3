package layout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monospace metrics: every rune is half the font size wide and lines are
// 1.2 sizes tall.
func measure(s string, size float64) float64 { return float64(utf8.RuneCountInString(s)) * size / 2 }
func lineHeight(size float64) float64       { return size * 1.2 }

func opts(size, min float64) Options {
	return Options{Size: size, MinSize: min, Measure: measure, LineHeight: lineHeight}
}

func TestFitWithoutShrinking(t *testing.T) {
	f, err := Fit("aaaa bbbb cccc", Box{Width: 100, Height: 100}, opts(10, 4))
	require.NoError(t, err)

	// 5 px per rune at size 10: "aaaa bbbb" is 45px, adding " cccc" makes 70px.
	assert.Equal(t, []string{"aaaa bbbb cccc"}, f.Lines)
	assert.Equal(t, 10.0, f.Size)
	assert.Zero(t, f.Restarts)
}

func TestFitWraps(t *testing.T) {
	f, err := Fit("aaaa bbbb cccc dddd", Box{Width: 50, Height: 100}, opts(10, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd"}, f.Lines)
}

func TestFitShrinks(t *testing.T) {
	text := strings.Repeat("word ", 40)
	box := Box{Width: 120, Height: 60}

	f, err := Fit(text, box, opts(14, 4))
	require.NoError(t, err)
	assert.Less(t, f.Size, 14.0)
	assert.LessOrEqual(t, f.Height(), box.Height)
	assert.Equal(t, int(14-f.Size), f.Restarts)
	for _, l := range f.Lines {
		assert.LessOrEqual(t, measure(l, f.Size), box.Width)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(f.Lines, " ")))

	// One size up must not have fit.
	bigger, err := Fit(text, box, opts(f.Size+1, f.Size+1))
	assert.ErrorIs(t, err, ErrFloorReached)
	assert.Greater(t, bigger.Height(), box.Height)
}

func TestFitConverges(t *testing.T) {
	texts := []string{
		"short",
		strings.Repeat("lorem ipsum dolor ", 30),
		strings.Repeat("x", 80),
		"line one\nline two\n\nline four",
	}
	boxes := []Box{{Width: 40, Height: 20}, {Width: 200, Height: 80}, {Width: 300, Height: 300}}

	for _, text := range texts {
		for _, box := range boxes {
			for _, start := range []float64{8, 12, 20} {
				f, err := Fit(text, box, opts(start, 2))
				assert.LessOrEqual(t, f.Restarts, int(start-2))
				if err != nil {
					assert.ErrorIs(t, err, ErrFloorReached)
					assert.Equal(t, 2.0, f.Size)
					continue
				}
				assert.LessOrEqual(t, f.Height(), box.Height, "%q in %+v from %v", text, box, start)
			}
		}
	}
}

func TestFitFloorReached(t *testing.T) {
	text := strings.Repeat("overflowing text ", 50)
	f, err := Fit(text, Box{Width: 30, Height: 10}, opts(10, 6))

	require.ErrorIs(t, err, ErrFloorReached)
	assert.Equal(t, 6.0, f.Size)
	assert.Equal(t, 4, f.Restarts)
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(f.Lines, " ")), "floor result keeps every word")
}

func TestFitNewlines(t *testing.T) {
	f, err := Fit("a\r\nb\n\nc", Box{Width: 100, Height: 100}, opts(10, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "", "c"}, f.Lines)
}

func TestFitEmpty(t *testing.T) {
	f, err := Fit("   ", Box{Width: 10, Height: 10}, opts(10, 4))
	require.NoError(t, err)
	assert.Empty(t, f.Lines)
	assert.Zero(t, f.Height())
}

func TestFitRejectsBadOptions(t *testing.T) {
	_, err := Fit("x", Box{}, opts(10, 0))
	assert.Error(t, err)
	_, err = Fit("x", Box{}, opts(3, 4))
	assert.Error(t, err)
	_, err = Fit("x", Box{}, Options{Size: 10, MinSize: 1})
	assert.Error(t, err)
}

func TestFitLabel(t *testing.T) {
	l := FitLabel("2500", 20, 100, measure)
	assert.Equal(t, 1.0, l.ScaleX)
	assert.Equal(t, 40.0, l.Width)

	l = FitLabel("Very Long Caption", 20, 85, measure)
	assert.Equal(t, 20.0, l.Size, "labels keep their size")
	assert.InDelta(t, 0.5, l.ScaleX, 1e-9)
	assert.InDelta(t, 85, l.DrawnWidth(), 1e-9)

	assert.Equal(t, 1.0, FitLabel("unbounded", 20, 0, measure).ScaleX)
}

func TestPlace(t *testing.T) {
	f := Fitted{Lines: []string{"ab", "abcd"}, Size: 10, LineHeight: 12}
	box := Box{X: 10, Y: 100, Width: 60, Height: 50}

	top := Place(f, box, AlignLeft, AnchorTop, measure)
	assert.Equal(t, []Placed{
		{Text: "ab", X: 10, Y: 100, Size: 10},
		{Text: "abcd", X: 10, Y: 112, Size: 10},
	}, top)

	mid := Place(f, box, AlignCenter, AnchorMiddle, measure)
	assert.Equal(t, 10+(60-10)/2.0, mid[0].X)
	assert.Equal(t, 10+(60-20)/2.0, mid[1].X)
	assert.Equal(t, 100+(50-24)/2.0, mid[0].Y)

	bottom := Place(f, box, AlignRight, AnchorBottom, measure)
	assert.Equal(t, 70-10.0, bottom[0].X)
	assert.Equal(t, 150-24.0, bottom[0].Y)
	assert.Equal(t, 150-12.0, bottom[1].Y)
}
