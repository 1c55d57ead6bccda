package omr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type glyph struct {
	w, h int
	pix  []byte
}

func randomGlyph(seed int64, w, h int) glyph {
	r := rand.New(rand.NewSource(seed))
	pix := make([]byte, w*h)
	for i := range pix {
		if r.Intn(2) == 0 {
			pix[i] = 255
		}
	}
	return glyph{w: w, h: h, pix: pix}
}

func (g glyph) mat(t *testing.T) gocv.Mat {
	m, err := gocv.NewMatFromBytes(g.h, g.w, gocv.MatTypeCV8UC1, g.pix)
	require.NoError(t, err)
	return m
}

type canvas struct {
	w, h int
	pix  []byte
}

func newCanvas(w, h int) *canvas {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 255
	}
	return &canvas{w: w, h: h, pix: pix}
}

func (c *canvas) paste(g glyph, x, y int) {
	for gy := 0; gy < g.h; gy++ {
		copy(c.pix[(y+gy)*c.w+x:], g.pix[gy*g.w:(gy+1)*g.w])
	}
}

var glyphs = map[model.Category]glyph{
	model.StaffLine:       randomGlyph(10, 6, 40),
	model.Sharp:           randomGlyph(11, 8, 20),
	model.Flat:            randomGlyph(12, 8, 20),
	model.QuarterOrEighth: randomGlyph(13, 12, 10),
	model.HalfNote:        randomGlyph(14, 12, 10),
	model.WholeNote:       randomGlyph(15, 12, 10),
}

func testLibrary(t *testing.T) *SymbolLibrary {
	var classes []model.TemplateClass
	prototypes := make(map[model.Category][]gocv.Mat)
	for cat, g := range glyphs {
		merge := 0.5
		if cat == model.StaffLine {
			merge = 0.01
		}
		classes = append(classes, model.TemplateClass{
			Category:       cat,
			Variants:       []string{string(cat) + ".png"},
			Threshold:      0.9,
			ScaleLow:       100,
			ScaleHigh:      100,
			ScaleStep:      3,
			MergeThreshold: merge,
		})
		prototypes[cat] = []gocv.Mat{g.mat(t)}
	}
	return NewLibrary(classes, prototypes)
}

func TestProcessPageBuildsGroups(t *testing.T) {
	lib := testLibrary(t)
	defer lib.Close()

	c := newCanvas(1000, 400)
	for _, y := range []int{100, 250} {
		for _, x := range []int{100, 400, 700} {
			c.paste(glyphs[model.StaffLine], x, y)
		}
	}
	c.paste(glyphs[model.QuarterOrEighth], 200, 115)
	c.paste(glyphs[model.QuarterOrEighth], 250, 115)
	c.paste(glyphs[model.HalfNote], 500, 115)
	c.paste(glyphs[model.WholeNote], 200, 265)

	page, err := gocv.NewMatFromBytes(c.h, c.w, gocv.MatTypeCV8UC1, c.pix)
	require.NoError(t, err)
	defer page.Close()

	conv := NewConverter(lib, DefaultOptions())
	p, err := conv.ProcessPage(context.Background(), page)
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, p.Systems, 2)
	assert.Less(p.Systems[0].Y, p.Systems[1].Y)
	require.Len(t, p.Groups, 3)
	assert.Len(p.Groups[0], 2)
	assert.Equal(model.Half, p.Groups[1][0].Duration)
	assert.Equal(model.Whole, p.Groups[2][0].Duration)
	for _, g := range p.Groups {
		for _, n := range g {
			assert.Equal(uint8(59), n.Pitch)
		}
	}
}

func encodeWhitePage(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 300, 420))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(0, 0, color.Gray{Y: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConvertAllWhitePage(t *testing.T) {
	lib := testLibrary(t)
	defer lib.Close()
	conv := NewConverter(lib, DefaultOptions())

	res, err := conv.Convert(context.Background(), [][]byte{encodeWhitePage(t)})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Empty(res.Notes)
	assert.Empty(res.Pages[0].Groups)
	assert.True(errors.Is(res.Pages[0].Err, ErrNoMusic))
	assert.True(bytes.Contains(res.Midi, []byte("Track")))
	assert.True(bytes.Contains(res.Midi, []byte{0xFF, 0x51, 0x03, 0x06, 0x8A, 0x1B}))
}

func TestConvertIsolatesBadPages(t *testing.T) {
	lib := testLibrary(t)
	defer lib.Close()
	conv := NewConverter(lib, DefaultOptions())

	res, err := conv.Convert(context.Background(), [][]byte{[]byte("not an image"), encodeWhitePage(t)})
	require.NoError(t, err)

	assert.True(t, errors.Is(res.Pages[0].Err, ErrBadInput))
	assert.True(t, errors.Is(res.Pages[1].Err, ErrNoMusic))
	assert.Equal(t, 1, res.Pages[1].Index)
}

func TestBinarizeCanonicalSize(t *testing.T) {
	gray := gocv.NewMatWithSize(100, 80, gocv.MatTypeCV8UC1)
	defer gray.Close()
	bin := Binarize(gray)
	defer bin.Close()

	assert.Equal(t, 2479, bin.Cols())
	assert.Equal(t, 3508, bin.Rows())
}
