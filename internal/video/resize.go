package video

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// resizeWithPad scales src into a height x width canvas preserving its
// aspect ratio, centers it, and writes [0,1] values into dst. dst must hold
// height*width*3 zeroed values; the uncovered border stays zero. Channel
// order is preserved.
//
// Interpolation runs at 16 bits per channel, so blended values keep a
// resolution of 1/65535 instead of being rounded back to 8-bit steps.
func resizeWithPad(src Frame, height, width int, dst []float32) {
	if src.Width == width && src.Height == height {
		for i, v := range src.Pix {
			dst[i] = float32(v) / 255
		}
		return
	}

	ratio := math.Max(float64(src.Width)/float64(width), float64(src.Height)/float64(height))
	rw := clamp(int(math.Floor(float64(src.Width)/ratio)), 1, width)
	rh := clamp(int(math.Floor(float64(src.Height)/ratio)), 1, height)
	top := (height - rh) / 2
	left := (width - rw) / 2

	scaled := image.NewRGBA64(image.Rect(0, 0, rw, rh))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), toRGBA(src), image.Rect(0, 0, src.Width, src.Height), draw.Src, nil)

	for y := 0; y < rh; y++ {
		out := ((top+y)*width + left) * Channels
		for x := 0; x < rw; x++ {
			c := scaled.RGBA64At(x, y)
			dst[out+x*Channels] = float32(c.R) / 0xffff
			dst[out+x*Channels+1] = float32(c.G) / 0xffff
			dst[out+x*Channels+2] = float32(c.B) / 0xffff
		}
	}
}

// toRGBA packs a three-channel frame into an opaque RGBA image without
// reordering channels.
func toRGBA(src Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for i, j := 0, 0; i < len(src.Pix); i, j = i+Channels, j+4 {
		img.Pix[j] = src.Pix[i]
		img.Pix[j+1] = src.Pix[i+1]
		img.Pix[j+2] = src.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
