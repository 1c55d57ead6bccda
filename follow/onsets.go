package follow

import (
	"sort"
	"time"

	"github.com/jsphweid/scoretrack/model"
)

// MergeOnsets collapses notes whose onsets are closer than window to the
// current note. The later pitch wins and the duration grows to cover both.
// Transcribers tend to report one struck note as a burst of onsets.
func MergeOnsets(notes []model.Note, window time.Duration) []model.Note {
	if len(notes) == 0 {
		return nil
	}
	sorted := make([]model.Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	threshold := window.Seconds()
	var res []model.Note
	current := sorted[0]
	for _, n := range sorted[1:] {
		if n.Start-current.Start < threshold {
			current.Pitch = n.Pitch
			current.Duration = max(current.Duration, n.End()-current.Start)
			continue
		}
		res = append(res, current)
		current = n
	}
	return append(res, current)
}
