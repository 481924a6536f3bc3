package layout

// Align is horizontal alignment inside a box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Anchor is vertical placement of a block of lines inside a box.
type Anchor int

const (
	AnchorTop Anchor = iota
	AnchorMiddle
	AnchorBottom
)

// Placed is one line positioned in image coordinates. Y is the top of the
// line box, not the baseline.
type Placed struct {
	Text string
	X, Y float64
	Size float64
}

// Place stacks f's lines by its line height and positions the block in box.
func Place(f Fitted, box Box, align Align, anchor Anchor, measure MeasureFunc) []Placed {
	y := box.Y
	switch anchor {
	case AnchorMiddle:
		y += (box.Height - f.Height()) / 2
	case AnchorBottom:
		y += box.Height - f.Height()
	}

	out := make([]Placed, 0, len(f.Lines))
	for i, line := range f.Lines {
		x := box.X
		if align != AlignLeft {
			w := measure(line, f.Size)
			if align == AlignCenter {
				x += (box.Width - w) / 2
			} else {
				x += box.Width - w
			}
		}
		out = append(out, Placed{Text: line, X: x, Y: y + float64(i)*f.LineHeight, Size: f.Size})
	}
	return out
}
