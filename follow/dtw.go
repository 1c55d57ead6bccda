package follow

import (
	"context"
	"math"

	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/util"
)

// Cost compares two notes by pitch and duration. Absolute start times are
// ignored since a query always starts at zero.
func Cost(a, b model.Note) float64 {
	return math.Abs(float64(a.Pitch)-float64(b.Pitch)) + math.Abs(a.Duration-b.Duration)
}

// Distance is the DTW distance between a and b under Cost. It keeps a single
// rolling row of len(b)+1 cells and checks ctx before every row.
func Distance(ctx context.Context, a, b []model.Note) (float64, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0, ErrEmptyQuery
	}

	inf := math.Inf(1)
	row := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		row[j] = inf
	}

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		// diag holds the previous row's value at j-1
		diag := row[0]
		row[0] = inf
		for j := 1; j <= m; j++ {
			up := row[j]
			best := util.Min3(up, row[j-1], diag)
			diag = up
			row[j] = Cost(a[i-1], b[j-1]) + best
		}
	}
	return row[m], nil
}

// BestWindow slides a window of len(query) over reference and returns the
// start index and distance of the closest one. Ties keep the lowest start.
func BestWindow(ctx context.Context, reference, query []model.Note) (int, float64, error) {
	if len(query) == 0 {
		return 0, 0, ErrEmptyQuery
	}
	if len(reference) < len(query) {
		return 0, 0, ErrInsufficientReference
	}

	bestStart := 0
	bestDistance := math.Inf(1)
	for start := 0; start+len(query) <= len(reference); start++ {
		d, err := Distance(ctx, reference[start:start+len(query)], query)
		if err != nil {
			return 0, 0, err
		}
		if d < bestDistance {
			bestDistance = d
			bestStart = start
		}
	}
	return bestStart, bestDistance, nil
}
