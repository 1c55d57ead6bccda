// Package staff finds staff systems from matched staff-line segments.
package staff

import (
	"sort"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/region"
)

// FilterLines keeps the segments whose row is shared by more segments than
// the mean of the distinct row counts. Isolated false positives sit on rows
// of their own and fall below that mean, while genuine lines repeat across
// every measure of a system.
func FilterLines(lines []model.Rect) []model.Rect {
	if len(lines) == 0 {
		return nil
	}

	maxY := 0
	for _, r := range lines {
		maxY = max(maxY, r.Y)
	}
	histo := make([]int, maxY+1)
	for _, r := range lines {
		if r.Y >= 0 {
			histo[r.Y]++
		}
	}
	// row 0 always takes part so that the empty count is one of the values
	histo[0]++

	distinct := make(map[int]bool)
	for _, c := range histo {
		distinct[c] = true
	}
	var total int
	for c := range distinct {
		total += c
	}
	avg := float64(total) / float64(len(distinct))

	var res []model.Rect
	for _, r := range lines {
		if r.Y >= 0 && float64(histo[r.Y]) > avg {
			res = append(res, r)
		}
	}
	return res
}

// Separators returns the deduplicated staff-line segments that survive the
// histogram filter. They mark the horizontal breakpoints inside a system.
func Separators(lines []model.Rect) []model.Rect {
	return region.Merge(FilterLines(lines), constants.StaffMergeThreshold)
}

// Systems expands separators to full page width and collapses them into
// staff systems, ordered top to bottom with no vertical overlap.
func Systems(separators []model.Rect, pageWidth int) []model.StaffSystem {
	var wide []model.Rect
	for _, r := range separators {
		wide = append(wide, model.Rect{X: 0, Y: r.Y, W: pageWidth, H: r.H})
	}
	boxes := region.Merge(wide, constants.StaffMergeThreshold)
	sort.Slice(boxes, func(i, j int) bool {
		return boxes[i].Y < boxes[j].Y
	})

	var res []model.StaffSystem
	for _, b := range boxes {
		if n := len(res); n > 0 {
			prev := res[n-1].Rect
			if b.Y < prev.Y+prev.H {
				res[n-1] = model.StaffSystem{Rect: prev.Union(b)}
				continue
			}
		}
		res = append(res, model.StaffSystem{Rect: b})
	}
	return res
}

// Detect runs the whole staff stage over the merged staff-line matches of
// one page.
func Detect(lines []model.Rect, pageWidth int) ([]model.StaffSystem, []model.Rect) {
	separators := Separators(lines)
	return Systems(separators, pageWidth), separators
}

// SeparatorsIn returns the separators overlapping system, ordered by x.
func SeparatorsIn(system model.StaffSystem, separators []model.Rect) []model.Rect {
	var res []model.Rect
	for _, r := range separators {
		if r.Overlap(system.Rect) > 0 {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].X < res[j].X
	})
	return res
}
