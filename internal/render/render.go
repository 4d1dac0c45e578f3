// Package render draws scenes onto pixel buffers. The same object pass
// serves the live on-screen overlay and the headless flatten used for the
// generation request; no display is required for either.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/gogpu/gg"
	ggtext "github.com/gogpu/gg/text"

	"image-markup/internal/scene"
	"image-markup/pkg/colorutil"
)

// Live-overlay stroke opacity. Flattened output is always full opacity.
const liveStrokeAlpha = 0.5

// textOutlineColor is the thin dark outline behind annotation glyphs.
var textOutlineColor = gg.RGBA{R: 0.1, G: 0.1, B: 0.1, A: 1}

// Options configures a live render pass.
type Options struct {
	// SkipObjectID omits one object from the pass, so an overlay editor
	// can render the live-edited annotation itself.
	SkipObjectID string
}

// Renderer rasterizes scenes. It owns the font source used for annotation
// text and caches one face per font size.
//
// Renderer is used from the UI event loop only; it is not safe for
// concurrent use.
type Renderer struct {
	source *ggtext.FontSource
	faces  map[float64]ggtext.Face
}

// New creates a renderer from raw font bytes (TTF/OTF).
func New(fontData []byte) (*Renderer, error) {
	source, err := ggtext.NewFontSource(fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse annotation font: %w", err)
	}
	return &Renderer{
		source: source,
		faces:  make(map[float64]ggtext.Face),
	}, nil
}

func (r *Renderer) face(size float64) ggtext.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := r.source.Face(size)
	r.faces[size] = f
	return f
}

// MeasureText returns the rendered extent of text at the given font size,
// in image-space pixels.
func (r *Renderer) MeasureText(s string, size float64) (w, h float64) {
	return ggtext.Measure(s, r.face(size))
}

// MeasureScene fills in the cached extent of every annotation that has
// not been measured yet. Hit testing of text depends on these caches, so
// every render pass runs this first.
func (r *Renderer) MeasureScene(sc *scene.Scene) {
	for _, o := range sc.Objects() {
		ann, ok := o.(*scene.TextAnnotation)
		if !ok {
			continue
		}
		if _, _, measured := ann.Measured(); measured {
			continue
		}
		w, h := r.MeasureText(ann.Text, ann.FontSize)
		ann.SetMeasured(w, h)
	}
}

// Overlay renders the scene's objects onto a transparent buffer of the
// given pixel size, with image-space coordinates multiplied by scale.
// Strokes draw at 50% opacity (the live look), selected objects get the
// selection indicator, and opts.SkipObjectID is omitted.
func (r *Renderer) Overlay(sc *scene.Scene, width, height int, scale float64, opts Options) *image.RGBA {
	r.MeasureScene(sc)

	ctx := gg.NewContext(width, height)
	ctx.Clear()

	for _, o := range sc.Objects() {
		if o.ObjectID() == opts.SkipObjectID {
			continue
		}
		if o.Selected() {
			r.drawSelectionIndicator(ctx, o, scale)
		}
		r.drawObject(ctx, o, scale, liveStrokeAlpha)
	}

	return toRGBA(ctx.Image())
}

// Flatten draws the scene onto a copy of the base image at full opacity
// in document order. The result has the base image's exact dimensions and
// is what the generation collaborator consumes; the live 50%-alpha look
// never appears in flattened output.
func (r *Renderer) Flatten(base image.Image, sc *scene.Scene) *image.RGBA {
	r.MeasureScene(sc)

	ctx := gg.NewContextForImage(base)
	for _, o := range sc.Objects() {
		r.drawObject(ctx, o, 1, 1)
	}
	return toRGBA(ctx.Image())
}

// drawObject draws one object. The variant set is closed; both kinds are
// handled here.
func (r *Renderer) drawObject(ctx *gg.Context, o scene.Object, scale, strokeAlpha float64) {
	switch v := o.(type) {
	case *scene.Stroke:
		r.drawStroke(ctx, v, scale, strokeAlpha)
	case *scene.TextAnnotation:
		r.drawText(ctx, v, scale)
	}
}

func (r *Renderer) drawStroke(ctx *gg.Context, st *scene.Stroke, scale, alpha float64) {
	if len(st.Points) == 0 {
		return
	}
	col := colorutil.ParseHexOr(st.Color, colorutil.Black)
	ctx.SetRGBA(float64(col.R)/255, float64(col.G)/255, float64(col.B)/255, alpha)
	ctx.SetLineWidth(st.Width * scale)
	ctx.SetLineCap(gg.LineCapRound)
	ctx.SetLineJoin(gg.LineJoinRound)

	first := st.Points[0]
	ctx.MoveTo(first.X*scale, first.Y*scale)
	if len(st.Points) == 1 {
		// Degenerate polyline: round caps turn it into a dot.
		ctx.LineTo(first.X*scale, first.Y*scale)
	}
	for _, p := range st.Points[1:] {
		ctx.LineTo(p.X*scale, p.Y*scale)
	}
	_ = ctx.Stroke()
	ctx.ClearPath()
}

func (r *Renderer) drawText(ctx *gg.Context, ann *scene.TextAnnotation, scale float64) {
	face := r.face(ann.FontSize * scale)
	ctx.SetFont(face)

	x := ann.Position.X * scale
	y := ann.Position.Y * scale

	// Thin dark outline behind the glyphs for legibility on any base.
	off := math.Max(1, ann.FontSize*scale/16)
	ctx.SetColor(textOutlineColor.Color())
	for _, d := range [][2]float64{{-off, 0}, {off, 0}, {0, -off}, {0, off}} {
		ctx.DrawString(ann.Text, x+d[0], y+d[1])
	}

	col := colorutil.ParseHexOr(ann.Color, colorutil.Black)
	ctx.SetColor(col)
	ctx.DrawString(ann.Text, x, y)
}

// drawSelectionIndicator draws the full-opacity highlight beneath a
// selected object: a widened re-stroke halo for strokes, a box outline
// around the measured bounds for text.
func (r *Renderer) drawSelectionIndicator(ctx *gg.Context, o scene.Object, scale float64) {
	sel := colorutil.Selection
	ctx.SetColor(sel)

	switch v := o.(type) {
	case *scene.Stroke:
		if len(v.Points) == 0 {
			return
		}
		ctx.SetLineWidth(v.Width*scale + 4)
		ctx.SetLineCap(gg.LineCapRound)
		ctx.SetLineJoin(gg.LineJoinRound)
		first := v.Points[0]
		ctx.MoveTo(first.X*scale, first.Y*scale)
		if len(v.Points) == 1 {
			ctx.LineTo(first.X*scale, first.Y*scale)
		}
		for _, p := range v.Points[1:] {
			ctx.LineTo(p.X*scale, p.Y*scale)
		}
		_ = ctx.Stroke()
		ctx.ClearPath()
	case *scene.TextAnnotation:
		box, ok := v.Bounds()
		if !ok {
			return
		}
		const pad = 3.0
		ctx.SetLineWidth(2)
		ctx.DrawRectangle(
			box.X*scale-pad, box.Y*scale-pad,
			box.Width*scale+2*pad, box.Height*scale+2*pad)
		_ = ctx.Stroke()
		ctx.ClearPath()
	}
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// toRGBA converts the context's backing image without copying when it is
// already *image.RGBA.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
