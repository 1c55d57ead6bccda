package region

import (
	"sort"

	"github.com/jsphweid/scoretrack/model"
)

// Merge clusters rectangles that overlap by more than threshold (in either
// direction) into their bounding boxes. The result is sorted by Y then X and
// is a fixed point: merging it again with the same threshold changes nothing.
func Merge(rects []model.Rect, threshold float64) []model.Rect {
	cur := make([]model.Rect, len(rects))
	copy(cur, rects)
	sortCanonical(cur)
	for {
		next := mergePass(cur, threshold)
		sortCanonical(next)
		if len(next) == len(cur) {
			return next
		}
		cur = next
	}
}

func mergePass(rects []model.Rect, threshold float64) []model.Rect {
	pool := make([]model.Rect, len(rects))
	copy(pool, rects)

	var res []model.Rect
	for len(pool) > 0 {
		seed := pool[0]
		pool = pool[1:]

		// nearest first, so the scan can stop at the first far candidate
		origin := seed
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Distance(origin) < pool[j].Distance(origin)
		})

		merged := true
		for merged {
			merged = false
			i := 0
			for i < len(pool) {
				c := pool[i]
				if seed.Overlap(c) > threshold || c.Overlap(seed) > threshold {
					seed = seed.Union(c)
					pool = append(pool[:i], pool[i+1:]...)
					merged = true
				} else if c.Distance(seed) > float64(seed.W)/2+float64(c.W)/2 {
					break
				} else {
					i++
				}
			}
		}
		res = append(res, seed)
	}
	return res
}

func sortCanonical(rects []model.Rect) {
	sort.Slice(rects, func(i, j int) bool {
		a, b := rects[i], rects[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.W != b.W {
			return a.W < b.W
		}
		return a.H < b.H
	})
}

// Rects flattens matched regions into plain rectangles.
func Rects(regions []model.Region) []model.Rect {
	res := make([]model.Rect, 0, len(regions))
	for _, r := range regions {
		res = append(res, r.Rect)
	}
	return res
}
