package media

import (
	"image"

	"github.com/disintegration/imaging"
)

// ResizeVariants returns n center-cropped renditions of src for the target
// box (width, height), one per pixel ratio 1..n.
//
// The box is first reduced to its aspect ratio. When src is smaller than the
// box in either dimension the box shrinks to the largest box of that aspect
// that fits src. A ratio whose scaled box would exceed src uses the ratio-1
// box instead, so no output is ever larger than src.
func ResizeVariants(src image.Image, width, height, n int) []image.Image {
	b := src.Bounds()
	bw, bh := ReducedBox(b.Dx(), b.Dy(), width, height)

	out := make([]image.Image, 0, n)
	for i := 1; i <= n; i++ {
		w, h := bw*i, bh*i
		if w > b.Dx() || h > b.Dy() {
			w, h = bw, bh
		}
		out = append(out, imaging.Fill(src, w, h, imaging.Center, imaging.CatmullRom))
	}
	return out
}

// ReducedBox returns the ratio-1 target box for a source of srcW×srcH.
func ReducedBox(srcW, srcH, width, height int) (int, int) {
	if width <= 0 || height <= 0 || srcW <= 0 || srcH <= 0 {
		return max(srcW, 1), max(srcH, 1)
	}
	if srcW >= width && srcH >= height {
		return width, height
	}

	g := gcd(width, height)
	aw, ah := width/g, height/g
	k := min(srcW/aw, srcH/ah)
	if k > 0 {
		return aw * k, ah * k
	}

	// The reduced aspect unit itself does not fit; keep the aspect as
	// closely as whole pixels allow.
	scale := min(float64(srcW)/float64(aw), float64(srcH)/float64(ah))
	return max(int(float64(aw)*scale), 1), max(int(float64(ah)*scale), 1)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
