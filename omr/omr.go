// Package omr converts binarized sheet-music pages into timed notes.
package omr

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jsphweid/scoretrack/match"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/region"
	"github.com/jsphweid/scoretrack/staff"
	"github.com/jsphweid/scoretrack/symbol"
	"github.com/jsphweid/scoretrack/timeline"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

type Options struct {
	// Workers bounds how many pages are processed at once.
	Workers    int
	Symbols    symbol.Options
	ShortNotes timeline.ShortNotePolicy
}

func DefaultOptions() Options {
	return Options{Workers: 4, Symbols: symbol.DefaultOptions(), ShortNotes: timeline.Sequential}
}

type Converter struct {
	lib  *SymbolLibrary
	opts Options
}

func NewConverter(lib *SymbolLibrary, opts Options) *Converter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Converter{lib: lib, opts: opts}
}

// Page is what one page contributes to the piece.
type Page struct {
	Index   int
	Systems []model.StaffSystem
	Groups  []model.NoteGroup
	Err     error
}

func (p Page) NumNotes() int {
	var n int
	for _, g := range p.Groups {
		n += len(g)
	}
	return n
}

type Result struct {
	Notes model.Timeline
	Midi  []byte
	Pages []Page
}

// ProcessPage runs the recognition pipeline over one binarized page. A page
// without staff systems returns ErrNoMusic.
func (c *Converter) ProcessPage(ctx context.Context, page gocv.Mat) (Page, error) {
	located := make(map[model.Category][]model.Region)
	for _, cat := range []model.Category{model.StaffLine, model.Sharp, model.Flat, model.QuarterOrEighth, model.HalfNote, model.WholeNote} {
		class, ok := c.lib.Class(cat)
		if !ok {
			continue
		}
		if err := checkCtx(ctx); err != nil {
			return Page{}, err
		}
		res, err := match.Locate(ctx, page, c.lib.Prototypes(cat), class)
		if err != nil {
			return Page{}, err
		}
		located[cat] = res.All()
		slog.Debug("omr: located", "category", cat, "matches", res.Count(), "scale", res.Scale)
	}

	systems, separators := staff.Detect(region.Rects(located[model.StaffLine]), page.Cols())
	if len(systems) == 0 {
		return Page{}, ErrNoMusic
	}

	merged := func(cat model.Category) []model.Rect {
		class, _ := c.lib.Class(cat)
		return region.Merge(region.Rects(located[cat]), class.MergeThreshold)
	}
	sharps := merged(model.Sharp)
	flats := merged(model.Flat)

	var glyphs []symbol.Glyph
	for _, cat := range []model.Category{model.QuarterOrEighth, model.HalfNote, model.WholeNote} {
		for _, r := range merged(cat) {
			glyphs = append(glyphs, symbol.Glyph{Rect: r, Duration: model.DurationFor(cat)})
		}
	}

	var groups []model.NoteGroup
	for _, system := range systems {
		notes := symbol.Classify(system, sharps, flats, glyphs, c.opts.Symbols)
		groups = append(groups, timeline.Group(notes, staff.SeparatorsIn(system, separators))...)
	}
	return Page{Systems: systems, Groups: groups}, nil
}

// Convert decodes and processes every page, in parallel, and lays the notes
// of all pages out on one timeline. A failing page is reported in its Page
// entry and leaves the others untouched.
func (c *Converter) Convert(ctx context.Context, pages [][]byte) (Result, error) {
	out := make([]Page, len(pages))
	sem := make(chan struct{}, c.opts.Workers)
	var wg sync.WaitGroup

	for i, data := range pages {
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out[i] = c.convertOne(ctx, i, data)
		}(i, data)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, "convert")
	}

	return c.Assemble(out)
}

// Assemble lays the note groups of pages, in order, out on one timeline and
// encodes it.
func (c *Converter) Assemble(pages []Page) (Result, error) {
	var groups []model.NoteGroup
	for _, p := range pages {
		groups = append(groups, p.Groups...)
	}
	notes := timeline.Assemble(groups, c.opts.ShortNotes)
	dat, err := timeline.Encode(notes)
	if err != nil {
		return Result{}, errors.Wrap(err, "encode midi")
	}
	return Result{Notes: notes, Midi: dat, Pages: pages}, nil
}

func (c *Converter) convertOne(ctx context.Context, i int, data []byte) Page {
	page, err := Decode(data)
	if err != nil {
		slog.Warn("omr: page rejected", "page", i, "err", err)
		return Page{Index: i, Err: err}
	}
	defer page.Close()

	p, err := c.ProcessPage(ctx, page)
	p.Index = i
	p.Err = err
	if err != nil {
		slog.Warn("omr: page skipped", "page", i, "err", err)
		return p
	}
	slog.Info("omr: page converted", "page", i, "systems", len(p.Systems), "notes", p.NumNotes())
	return p
}
