// Package canvas provides the markup canvas widget: the base image with
// the live markup overlay, pan, zoom, and pointer dispatch to the editor.
package canvas

import (
	"image"
	"image/draw"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"image-markup/internal/app"
	"image-markup/internal/render"
	"image-markup/pkg/geometry"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// MarkupCanvas displays the base image with the markup overlay and feeds
// pointer events, mapped to image space, into the editor.
type MarkupCanvas struct {
	widget.BaseWidget

	state *app.State

	// Display state
	raster *fynecanvas.Raster
	zoom   float64

	// Container
	scroll  *zoomScroll
	content *markupContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
}

// zoomScroll wraps a scroll container but intercepts the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *MarkupCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *MarkupCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// markupContent wraps the raster and turns raw mouse events into editor
// pointer events. Freehand drawing needs press/move/release rather than
// tap/drag, so this implements desktop.Mouseable and desktop.Hoverable.
type markupContent struct {
	widget.BaseWidget
	canvas  *MarkupCanvas
	raster  *fynecanvas.Raster
	pressed bool
}

func newMarkupContent(mc *MarkupCanvas, raster *fynecanvas.Raster) *markupContent {
	c := &markupContent{
		canvas: mc,
		raster: raster,
	}
	c.ExtendBaseWidget(c)
	return c
}

func (c *markupContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

func (c *markupContent) MinSize() fyne.Size {
	return c.raster.MinSize()
}

// toImagePoint maps a widget-relative position to image space.
func (c *markupContent) toImagePoint(pos fyne.Position) geometry.Point2D {
	base := c.canvas.state.Base
	if base == nil {
		return geometry.Point2D{}
	}
	zoom := c.canvas.zoom
	surface := geometry.Rect{
		Width:  float64(base.Width) * zoom,
		Height: float64(base.Height) * zoom,
	}
	return geometry.ToImageSpace(
		geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)},
		surface,
		float64(base.Width), float64(base.Height),
	)
}

func (c *markupContent) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || c.canvas.state.Base == nil {
		return
	}
	c.pressed = true
	c.canvas.state.Editor.PointerDown(c.toImagePoint(ev.Position))
	c.canvas.Refresh()
}

func (c *markupContent) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !c.pressed {
		return
	}
	c.pressed = false
	c.canvas.state.Editor.PointerUp()
	c.canvas.Refresh()
}

func (c *markupContent) MouseIn(ev *desktop.MouseEvent) {}

func (c *markupContent) MouseMoved(ev *desktop.MouseEvent) {
	if !c.pressed {
		return
	}
	c.canvas.state.Editor.PointerMove(c.toImagePoint(ev.Position))
	c.canvas.Refresh()
}

func (c *markupContent) MouseOut() {
	if !c.pressed {
		return
	}
	c.pressed = false
	c.canvas.state.Editor.PointerLeave()
	c.canvas.Refresh()
}

func (c *markupContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		c.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		c.canvas.ZoomOut()
	}
}

// NewMarkupCanvas creates a canvas bound to the application state.
func NewMarkupCanvas(state *app.State) *MarkupCanvas {
	mc := &MarkupCanvas{
		state:   state,
		zoom:    1.0,
		imgSize: fyne.NewSize(400, 300),
	}

	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.raster.SetMinSize(mc.imgSize)

	mc.content = newMarkupContent(mc, mc.raster)
	mc.scroll = newZoomScroll(mc.content, mc)

	state.On(app.EventSceneChanged, func(data interface{}) { mc.Refresh() })
	state.On(app.EventImageLoaded, func(data interface{}) {
		mc.updateContentSize()
		mc.FitToWindow()
	})

	mc.ExtendBaseWidget(mc)
	return mc
}

// Container returns the canvas container for embedding in layouts.
func (mc *MarkupCanvas) Container() fyne.CanvasObject {
	return mc.scroll
}

// SetZoom sets the zoom level, clamped to the usable range.
func (mc *MarkupCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	mc.zoom = zoom
	mc.updateContentSize()

	if mc.onZoomChange != nil {
		mc.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (mc *MarkupCanvas) Zoom() float64 {
	return mc.zoom
}

// ZoomIn increases the zoom level.
func (mc *MarkupCanvas) ZoomIn() {
	mc.SetZoom(mc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (mc *MarkupCanvas) ZoomOut() {
	mc.SetZoom(mc.zoom / zoomStep)
}

// FitToWindow adjusts the zoom so the whole base image is visible.
func (mc *MarkupCanvas) FitToWindow() {
	base := mc.state.Base
	if base == nil || base.Width == 0 || base.Height == 0 {
		return
	}

	viewSize := mc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(base.Width)
	zoomY := float64(viewSize.Height) / float64(base.Height)

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	mc.SetZoom(zoom * 0.95)
}

// SetFitToWindow enables or disables auto-fit on resize.
func (mc *MarkupCanvas) SetFitToWindow(fit bool) {
	mc.fitToWindow = fit
	if fit {
		mc.FitToWindow()
	}
}

// CheckResize re-fits the image after the scroll container resizes.
func (mc *MarkupCanvas) CheckResize(size fyne.Size) {
	if !mc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != mc.lastScrollSize {
		mc.lastScrollSize = size
		mc.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (mc *MarkupCanvas) OnZoomChange(callback func(zoom float64)) {
	mc.onZoomChange = callback
}

// ViewportToImage converts a viewport position to image coordinates.
func (mc *MarkupCanvas) ViewportToImage(pos fyne.Position) geometry.Point2D {
	return mc.content.toImagePoint(pos)
}

// ImageToViewport converts an image-space point to viewport coordinates.
func (mc *MarkupCanvas) ImageToViewport(p geometry.Point2D) fyne.Position {
	return fyne.NewPos(float32(p.X*mc.zoom), float32(p.Y*mc.zoom))
}

// Refresh redraws the canvas raster.
func (mc *MarkupCanvas) Refresh() {
	mc.raster.Refresh()
}

// updateContentSize resizes the raster to the zoomed image dimensions.
func (mc *MarkupCanvas) updateContentSize() {
	base := mc.state.Base
	if base == nil || base.Width == 0 || base.Height == 0 {
		mc.imgSize = fyne.NewSize(400, 300)
	} else {
		mc.imgSize = fyne.NewSize(
			float32(float64(base.Width)*mc.zoom),
			float32(float64(base.Height)*mc.zoom))
	}

	mc.raster.SetMinSize(mc.imgSize)
	mc.raster.Resize(mc.imgSize)
	if mc.content != nil {
		mc.content.Resize(mc.imgSize)
		mc.content.Refresh()
	}
	mc.raster.Refresh()
	if mc.scroll != nil {
		mc.scroll.Refresh()
	}
}

// draw composites the scaled base image and the markup overlay.
func (mc *MarkupCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if mc.fitToWindow && currentSize != mc.lastScrollSize && w > 0 && h > 0 {
		mc.lastScrollSize = currentSize
		go mc.FitToWindow()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	base := mc.state.Base
	if base == nil || base.Image == nil {
		return output
	}

	mc.drawScaledBase(output, base.Image, w, h)

	var opts render.Options
	if edit := mc.state.Editor.Editing(); edit != nil {
		opts.SkipObjectID = edit.ObjectID
	}
	overlay := mc.state.Renderer.Overlay(
		mc.state.Editor.Scene(), w, h, mc.zoom, opts)
	draw.Draw(output, output.Bounds(), overlay, image.Point{}, draw.Over)

	return output
}

// drawScaledBase draws the base image nearest-neighbor scaled by zoom.
func (mc *MarkupCanvas) drawScaledBase(output *image.RGBA, src image.Image, w, h int) {
	srcBounds := src.Bounds()
	for y := 0; y < h; y++ {
		srcY := int(float64(y)/mc.zoom) + srcBounds.Min.Y
		if srcY >= srcBounds.Max.Y {
			break
		}
		for x := 0; x < w; x++ {
			srcX := int(float64(x)/mc.zoom) + srcBounds.Min.X
			if srcX >= srcBounds.Max.X {
				break
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// CreateRenderer implements fyne.Widget.
func (mc *MarkupCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &markupCanvasRenderer{canvas: mc}
}

type markupCanvasRenderer struct {
	canvas *MarkupCanvas
}

func (r *markupCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	}
	r.canvas.CheckResize(size)
}

func (r *markupCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *markupCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *markupCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *markupCanvasRenderer) Destroy() {}
