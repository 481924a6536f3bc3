// Package layout wraps card text into boxes, shrinking the font until the
// text fits.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFloorReached is returned when text still overflows its box at the
// minimum font size. The accompanying result holds the floor-size wrap.
var ErrFloorReached = errors.New("text does not fit at the minimum font size")

// Step is how much the font size drops on each restart.
const Step = 1.0

// MeasureFunc returns the advance width of s set at size.
type MeasureFunc func(s string, size float64) float64

// LineHeightFunc returns the distance between baselines at size.
type LineHeightFunc func(size float64) float64

// Box is a rectangle in image coordinates.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// Options configures Fit.
type Options struct {
	Size       float64 // starting font size
	MinSize    float64 // floor; must be positive
	Measure    MeasureFunc
	LineHeight LineHeightFunc
}

// Fitted is wrapped text at the size it was wrapped at.
type Fitted struct {
	Lines      []string
	Size       float64
	LineHeight float64
	Restarts   int
}

// Height is the total height of the stacked lines.
func (f Fitted) Height() float64 {
	return float64(len(f.Lines)) * f.LineHeight
}

// Fit wraps text into box, restarting the wrap one Step smaller whenever the
// lines would overflow the box height. Explicit newlines always break. Fit
// stops at opt.MinSize and returns ErrFloorReached with the floor wrap if the
// text still does not fit.
func Fit(text string, box Box, opt Options) (Fitted, error) {
	if opt.Measure == nil || opt.LineHeight == nil {
		return Fitted{}, errors.New("layout: measure and line height functions are required")
	}
	if opt.MinSize <= 0 || opt.Size < opt.MinSize {
		return Fitted{}, fmt.Errorf("layout: invalid font sizes %v..%v", opt.MinSize, opt.Size)
	}

	if strings.TrimSpace(text) == "" {
		return Fitted{Size: opt.Size, LineHeight: opt.LineHeight(opt.Size)}, nil
	}

	paragraphs := splitParagraphs(text)
	restarts := 0
	for size := opt.Size; ; size -= Step {
		if size < opt.MinSize {
			size = opt.MinSize
		}
		floor := size <= opt.MinSize
		lines, ok := wrap(paragraphs, box, size, opt, floor)
		f := Fitted{Lines: lines, Size: size, LineHeight: opt.LineHeight(size), Restarts: restarts}
		if ok {
			return f, nil
		}
		if floor {
			return f, ErrFloorReached
		}
		restarts++
	}
}

// wrap lays words greedily at size and reports whether the lines fit the box
// height. Unless full is set it gives up as soon as the committed lines plus
// the pending one are taller than the box.
func wrap(paragraphs [][]string, box Box, size float64, opt Options, full bool) ([]string, bool) {
	lh := opt.LineHeight(size)
	var lines []string
	fits := true
	overflow := func(pending int) bool {
		if float64(len(lines)+pending)*lh <= box.Height {
			return false
		}
		fits = false
		return !full
	}

	for _, words := range paragraphs {
		cur := ""
		for _, w := range words {
			next := w
			if cur != "" {
				next = cur + " " + w
			}
			if cur == "" || opt.Measure(next, size) <= box.Width {
				cur = next
				continue
			}
			lines = append(lines, cur)
			cur = w
			if overflow(1) {
				return lines, false
			}
		}
		lines = append(lines, cur)
		if overflow(0) {
			return lines, false
		}
	}
	return lines, fits
}

func splitParagraphs(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out [][]string
	for _, p := range strings.Split(strings.TrimSpace(text), "\n") {
		out = append(out, strings.Fields(p))
	}
	return out
}

// Label is a single line that is squeezed horizontally, not re-set at a
// smaller size, when it is wider than its limit.
type Label struct {
	Text   string
	Size   float64
	Width  float64 // natural width at Size
	ScaleX float64 // horizontal scale to apply when drawing; 1 when it fits
}

// DrawnWidth is the width after scaling.
func (l Label) DrawnWidth() float64 { return l.Width * l.ScaleX }

// FitLabel measures text once and, if it is wider than maxWidth, computes the
// horizontal scale that brings it to maxWidth. A non-positive maxWidth means
// no limit.
func FitLabel(text string, size, maxWidth float64, measure MeasureFunc) Label {
	l := Label{Text: text, Size: size, Width: measure(text, size), ScaleX: 1}
	if maxWidth > 0 && l.Width > maxWidth {
		l.ScaleX = maxWidth / l.Width
	}
	return l
}
