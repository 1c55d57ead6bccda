package sample

import (
	"github.com/jsphweid/scoretrack/model"
)

// Create cuts up to count notes starting at the first note at or after from,
// shifted so the excerpt starts at zero like a freshly transcribed round.
func Create(t model.Timeline, from float64, count int) model.Timeline {
	var res model.Timeline
	var origin float64
	for _, n := range t {
		if n.Start < from {
			continue
		}
		if len(res) == 0 {
			origin = n.Start
		}
		res = append(res, model.Note{Pitch: n.Pitch, Start: n.Start - origin, Duration: n.Duration})
		if len(res) >= count {
			break
		}
	}
	return res
}

// Rounds splits t into consecutive excerpts of size notes each, the way a
// live performance reaches the follower.
func Rounds(t model.Timeline, size int) []model.Timeline {
	if size <= 0 {
		return nil
	}
	var res []model.Timeline
	for i := 0; i < len(t); i += size {
		res = append(res, Create(t[i:], t[i].Start, size))
	}
	return res
}
