// Package match locates prototype glyphs on a binarized page with
// normalized correlation over a sweep of scales.
package match

import (
	"context"
	"image"
	"math"

	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Located holds the matches of one template class at its chosen scale.
type Located struct {
	Scale float64
	// Variants is indexed like the class prototypes.
	Variants [][]model.Region
}

// All pools the matches of every variant.
func (l Located) All() []model.Region {
	var res []model.Region
	for _, v := range l.Variants {
		res = append(res, v...)
	}
	return res
}

func (l Located) Count() int {
	var n int
	for _, v := range l.Variants {
		n += len(v)
	}
	return n
}

// Locate tries every scale of class and keeps the one producing the most
// matches over all prototypes. A glyph family renders at one size per page,
// so the winning scale is shared by every variant. On equal counts the
// first scale wins. Finding nothing is not an error.
func Locate(ctx context.Context, page gocv.Mat, prototypes []gocv.Mat, class model.TemplateClass) (Located, error) {
	best := Located{Scale: 1, Variants: make([][]model.Region, len(prototypes))}
	bestCount := -1

	for _, scale := range class.Scales() {
		if err := ctx.Err(); err != nil {
			return Located{}, err
		}

		found := Located{Scale: scale, Variants: make([][]model.Region, len(prototypes))}
		for v, proto := range prototypes {
			regions, err := matchAt(page, proto, scale, class, v)
			if err != nil {
				return Located{}, errors.Wrapf(err, "%s variant %d at scale %.2f", class.Category, v, scale)
			}
			found.Variants[v] = regions
		}

		if count := found.Count(); count > bestCount {
			best = found
			bestCount = count
		}
	}
	return best, nil
}

func matchAt(page, proto gocv.Mat, scale float64, class model.TemplateClass, variant int) ([]model.Region, error) {
	w := int(math.Round(float64(proto.Cols()) * scale))
	h := int(math.Round(float64(proto.Rows()) * scale))
	// templates larger than the page cannot match anywhere
	if w < 1 || h < 1 || w > page.Cols() || h > page.Rows() {
		return nil, nil
	}

	templ := proto
	if w != proto.Cols() || h != proto.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(proto, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationCubic)
		templ = resized
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(page, templ, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return nil, nil
	}

	scores, err := result.DataPtrFloat32()
	if err != nil {
		return nil, err
	}

	var res []model.Region
	cols := result.Cols()
	for i, s := range scores {
		if float64(s) < class.Threshold {
			continue
		}
		res = append(res, model.Region{
			Rect:     model.Rect{X: i % cols, Y: i / cols, W: w, H: h},
			Category: class.Category,
			Variant:  variant,
			Score:    float64(s),
		})
	}
	return res, nil
}
