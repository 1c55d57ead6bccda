package model

import "sort"

// Category is a family of glyphs searched with one shared scale per page.
type Category string

const (
	StaffLine       Category = "staff"
	Sharp           Category = "sharp"
	Flat            Category = "flat"
	QuarterOrEighth Category = "quarter"
	HalfNote        Category = "half"
	WholeNote       Category = "whole"
)

// TemplateClass keeps everything needed to search one category together, so
// prototypes, thresholds and scale ranges can never drift out of step.
type TemplateClass struct {
	Category Category
	// Variants are prototype file names relative to the template directory.
	Variants  []string
	Threshold float64
	// ScaleLow and ScaleHigh are percentages, inclusive.
	ScaleLow  int
	ScaleHigh int
	ScaleStep int
	// MergeThreshold is the overlap used to cluster matches of this category.
	MergeThreshold float64
}

// Scales lists the candidate scale factors for the class, low to high. The
// high bound is always tried even when the step does not land on it, and so
// is the unscaled size whenever it lies inside the range.
func (t TemplateClass) Scales() []float64 {
	step := t.ScaleStep
	if step <= 0 {
		step = 1
	}
	var percents []int
	for p := t.ScaleLow; p <= t.ScaleHigh; p += step {
		percents = append(percents, p)
	}
	if n := len(percents); n > 0 && percents[n-1] != t.ScaleHigh {
		percents = append(percents, t.ScaleHigh)
	}
	if t.ScaleLow <= 100 && 100 <= t.ScaleHigh {
		i := sort.SearchInts(percents, 100)
		if i == len(percents) || percents[i] != 100 {
			percents = append(percents[:i], append([]int{100}, percents[i:]...)...)
		}
	}

	res := make([]float64, 0, len(percents))
	for _, p := range percents {
		res = append(res, float64(p)/100)
	}
	return res
}

// Region is one raw match produced by the template matcher.
type Region struct {
	Rect
	Category Category
	Variant  int
	Score    float64
}
