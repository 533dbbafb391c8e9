package geometry

import "math"

const (
	commentBoxMaxWidthPx  = 360
	commentBoxMaxHeightPx = 180
	commentBoxWidthRatio  = 0.28
	commentBoxHeightRatio = 0.18
	commentBoxGap         = 0.06
	commentBoxMargin      = 0.02

	defaultCommentBoxW = 0.28
	defaultCommentBoxH = 0.14
)

// Segment is a straight line between two normalized points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// CommentBox places the detail box of a comment anchored at anchor. The box
// opens to the right of anchors in the left half of the page and to the left
// otherwise, so it stays on the page near either edge.
func CommentBox(anchor Point, c Container) Rect {
	c = c.usable()
	w := math.Min(commentBoxMaxWidthPx, c.Width*commentBoxWidthRatio) / c.Width
	h := math.Min(commentBoxMaxHeightPx, c.Height*commentBoxHeightRatio) / c.Height
	return placeCommentBox(anchor, w, h)
}

// DefaultCommentBox is the box used for stored comments that carry no box
// geometry.
func DefaultCommentBox(anchor Point) Rect {
	return Rect{
		X: clamp(anchor.X+commentBoxGap, 0, 1-defaultCommentBoxW),
		Y: clamp(anchor.Y-defaultCommentBoxH/2, 0, 1-defaultCommentBoxH),
		W: defaultCommentBoxW,
		H: defaultCommentBoxH,
	}
}

func placeCommentBox(anchor Point, w, h float64) Rect {
	var x float64
	if anchor.X < 0.5 {
		x = math.Min(1-commentBoxMargin-w, anchor.X+commentBoxGap)
	} else {
		x = math.Max(commentBoxMargin, anchor.X-w-commentBoxGap)
	}
	y := math.Min(MaxPosition-h, math.Max(commentBoxMargin, anchor.Y-h/2))
	return Rect{X: x, Y: y, W: w, H: h}
}

// NearestPoint projects p onto r, returning the closest point of r to p. For
// a point outside r the result lies on r's boundary.
func NearestPoint(p Point, r Rect) Point {
	return Point{
		X: clamp(p.X, r.X, r.X+r.W),
		Y: clamp(p.Y, r.Y, r.Y+r.H),
	}
}

// Connector returns the line drawn from a comment anchor to its detail box.
func Connector(anchor Point, box Rect) Segment {
	return Segment{From: anchor, To: NearestPoint(anchor, box)}
}
