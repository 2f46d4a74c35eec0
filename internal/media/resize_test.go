package media

import (
	"image"
	"image/color"
	"testing"
)

func newTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestReducedBox(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		w, h       int
		wantW      int
		wantH      int
	}{
		{"source larger than box", 1000, 1000, 256, 256, 256, 256},
		{"square box on landscape source", 400, 300, 256, 256, 300, 300},
		{"header box on small source", 900, 900, 1500, 500, 900, 300},
		{"header box limited by height", 3000, 200, 1500, 500, 600, 200},
		{"exact fit", 512, 512, 512, 512, 512, 512},
		{"aspect unit larger than source", 2, 2, 1500, 500, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ReducedBox(tt.srcW, tt.srcH, tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ReducedBox(%d,%d,%d,%d) = %dx%d, want %dx%d",
					tt.srcW, tt.srcH, tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResizeVariantsSmallSourceCapsEveryRatio(t *testing.T) {
	src := newTestImage(400, 300)

	out := ResizeVariants(src, 256, 256, 3)
	if len(out) != 3 {
		t.Fatalf("got %d variants, want 3", len(out))
	}
	for i, img := range out {
		if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 300 {
			t.Errorf("ratio %d: got %dx%d, want 300x300", i+1, img.Bounds().Dx(), img.Bounds().Dy())
		}
	}
}

func TestResizeVariantsScalesUntilSourceLimit(t *testing.T) {
	src := newTestImage(600, 600)

	out := ResizeVariants(src, 256, 256, 3)
	want := []int{256, 512, 256}
	for i, img := range out {
		if img.Bounds().Dx() != want[i] || img.Bounds().Dy() != want[i] {
			t.Errorf("ratio %d: got %dx%d, want %dx%d", i+1,
				img.Bounds().Dx(), img.Bounds().Dy(), want[i], want[i])
		}
	}
}

func TestResizeVariantsNeverUpscaleAndKeepAspect(t *testing.T) {
	sources := [][2]int{{400, 300}, {1200, 800}, {50, 50}, {4000, 4000}, {3100, 700}}

	for _, kind := range Kinds() {
		if kind.Policy() != PolicyVariants {
			continue
		}
		bw, bh := kind.Box()
		g := gcd(bw, bh)
		for _, s := range sources {
			src := newTestImage(s[0], s[1])
			for i, img := range ResizeVariants(src, bw, bh, 3) {
				w, h := img.Bounds().Dx(), img.Bounds().Dy()
				if w > s[0] || h > s[1] {
					t.Errorf("%s ratio %d on %dx%d: %dx%d exceeds source", kind, i+1, s[0], s[1], w, h)
				}
				if w*(bh/g) != h*(bw/g) {
					t.Errorf("%s ratio %d on %dx%d: %dx%d does not keep %d:%d", kind, i+1, s[0], s[1], w, h, bw/g, bh/g)
				}
			}
		}
	}
}

func TestGCD(t *testing.T) {
	if got := gcd(1500, 500); got != 500 {
		t.Errorf("gcd(1500,500) = %d", got)
	}
	if got := gcd(256, 256); got != 256 {
		t.Errorf("gcd(256,256) = %d", got)
	}
	if got := gcd(7, 3); got != 1 {
		t.Errorf("gcd(7,3) = %d", got)
	}
}
