// Package follow tracks playback position by aligning short transcribed
// excerpts against a reference timeline.
package follow

import (
	"context"
	"sync"

	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyQuery means the round carried no notes.
	ErrEmptyQuery = errors.New("follow: empty query")
	// ErrInsufficientReference means fewer reference notes remain after the
	// cursor than the query holds. The caller may Reset and retry.
	ErrInsufficientReference = errors.New("follow: insufficient reference remaining")
	// ErrSessionClosed is returned once a session has ended.
	ErrSessionClosed = errors.New("follow: session closed")
)

type Result struct {
	// BestStart and BestEnd index the filtered reference, end exclusive.
	BestStart int
	BestEnd   int
	PlayTime  float64
	Distance  float64
}

type Options struct {
	// LookAhead bounds the search to this many seconds past the cursor.
	// Zero searches the rest of the piece.
	LookAhead float64
}

// Session holds a reference timeline and a progress cursor. Align calls are
// serialized; the cursor never moves backwards except through Reset.
type Session struct {
	mu        sync.Mutex
	reference model.Timeline
	progress  float64
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(reference model.Timeline, opts Options) *Session {
	ref := make(model.Timeline, len(reference))
	copy(ref, reference)
	model.SortTimeline(ref)

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{reference: ref, opts: opts, ctx: ctx, cancel: cancel}
}

func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Session) Len() int {
	return len(s.reference)
}

// Remaining returns the reference events the next round searches.
func (s *Session) Remaining() model.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining()
}

func (s *Session) remaining() model.Timeline {
	var res model.Timeline
	for _, n := range s.reference {
		if n.Start < s.progress {
			continue
		}
		if s.opts.LookAhead > 0 && n.Start > s.progress+s.opts.LookAhead {
			break
		}
		res = append(res, n)
	}
	return res
}

// Align finds where query sits in the remaining reference and moves the
// cursor there. The cursor is untouched when an error is returned, including
// cancellation of ctx or of the session itself.
func (s *Session) Align(ctx context.Context, query []model.Note) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return Result{}, ErrSessionClosed
	}
	if len(query) == 0 {
		return Result{}, ErrEmptyQuery
	}

	ctx, stop := mergeCancel(ctx, s.ctx)
	defer stop()

	filtered := s.remaining()
	start, distance, err := BestWindow(ctx, filtered, query)
	if err != nil {
		if s.ctx.Err() != nil {
			return Result{}, ErrSessionClosed
		}
		return Result{}, errors.Wrapf(err, "align at %.3fs", s.progress)
	}

	end := start + len(query)
	var playTime float64
	if end < len(filtered) {
		playTime = filtered[end].Start
	} else {
		playTime = filtered[len(filtered)-1].End()
	}
	s.progress = max(s.progress, playTime)

	return Result{BestStart: start, BestEnd: end, PlayTime: playTime, Distance: distance}, nil
}

// Reset moves the cursor back to the beginning of the piece.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = 0
}

// Close ends the session. An Align in flight stops at its next DTW row.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) Closed() bool {
	return s.ctx.Err() != nil
}

// mergeCancel returns a context cancelled when either parent is.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	go func() {
		select {
		case <-b.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
