package model

import "math"

// Rect is a top-left anchored rectangle in page pixels.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r Rect) Area() int {
	return r.W * r.H
}

func (r Rect) Center() (float64, float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

func (r Rect) CenterY() float64 {
	_, y := r.Center()
	return y
}

// Distance between the centers of r and o.
func (r Rect) Distance(o Rect) float64 {
	x1, y1 := r.Center()
	x2, y2 := o.Center()
	return math.Hypot(x1-x2, y1-y2)
}

// Overlap is the intersection area of r and o divided by the area of r.
// It is directional: r.Overlap(o) != o.Overlap(r) in general.
func (r Rect) Overlap(o Rect) float64 {
	if r.Area() <= 0 {
		return 0
	}
	ox := min(r.X+r.W, o.X+o.W) - max(r.X, o.X)
	oy := min(r.Y+r.H, o.Y+o.H) - max(r.Y, o.Y)
	if ox <= 0 || oy <= 0 {
		return 0
	}
	return float64(ox*oy) / float64(r.Area())
}

// Union returns the bounding box of r and o.
func (r Rect) Union(o Rect) Rect {
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	return Rect{
		X: x,
		Y: y,
		W: max(r.X+r.W, o.X+o.W) - x,
		H: max(r.Y+r.H, o.Y+o.H) - y,
	}
}
