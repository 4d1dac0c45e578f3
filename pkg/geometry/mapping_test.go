package geometry

import (
	"math"
	"testing"
)

func TestToImageSpace(t *testing.T) {
	tests := []struct {
		name       string
		vp         Point2D
		surface    Rect
		imgW, imgH float64
		want       Point2D
	}{
		{
			name:    "identity at 1:1",
			vp:      Point2D{X: 10, Y: 20},
			surface: Rect{X: 0, Y: 0, Width: 100, Height: 50},
			imgW:    100, imgH: 50,
			want: Point2D{X: 10, Y: 20},
		},
		{
			name:    "uniform downscale",
			vp:      Point2D{X: 50, Y: 25},
			surface: Rect{X: 0, Y: 0, Width: 100, Height: 50},
			imgW:    200, imgH: 100,
			want: Point2D{X: 100, Y: 50},
		},
		{
			name:    "letterboxed independent factors",
			vp:      Point2D{X: 30, Y: 10},
			surface: Rect{X: 0, Y: 0, Width: 300, Height: 50},
			imgW:    600, imgH: 200,
			want: Point2D{X: 60, Y: 40},
		},
		{
			name:    "surface offset",
			vp:      Point2D{X: 110, Y: 70},
			surface: Rect{X: 100, Y: 50, Width: 200, Height: 100},
			imgW:    400, imgH: 200,
			want: Point2D{X: 20, Y: 40},
		},
		{
			name:    "zero width surface degenerates",
			vp:      Point2D{X: 17, Y: 23},
			surface: Rect{X: 0, Y: 0, Width: 0, Height: 100},
			imgW:    100, imgH: 100,
			want: Point2D{},
		},
		{
			name:    "zero height surface degenerates",
			vp:      Point2D{X: 17, Y: 23},
			surface: Rect{X: 0, Y: 0, Width: 100, Height: 0},
			imgW:    100, imgH: 100,
			want: Point2D{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToImageSpace(tt.vp, tt.surface, tt.imgW, tt.imgH)
			if got != tt.want {
				t.Errorf("ToImageSpace(%v) = %v, want %v", tt.vp, got, tt.want)
			}
		})
	}
}

func TestToViewportSpaceInverse(t *testing.T) {
	surface := Rect{X: 12, Y: 8, Width: 640, Height: 360}
	imgW, imgH := 1920.0, 1080.0

	points := []Point2D{
		{X: 0, Y: 0},
		{X: 960, Y: 540},
		{X: 1919.5, Y: 1079.25},
		{X: 0.125, Y: 33.33333333333333},
	}

	for _, p := range points {
		vp := ToViewportSpace(p, surface, imgW, imgH)
		back := ToImageSpace(vp, surface, imgW, imgH)
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip of %v via viewport = %v", p, back)
		}
	}
}

func TestToViewportSpaceZeroImage(t *testing.T) {
	got := ToViewportSpace(Point2D{X: 5, Y: 5}, Rect{Width: 100, Height: 100}, 0, 0)
	if got != (Point2D{}) {
		t.Errorf("ToViewportSpace with zero image = %v, want origin", got)
	}
}
