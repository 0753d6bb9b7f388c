package scene

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const textPad = 4

var (
	textInk  = image.NewUniform(color.RGBA{R: 235, G: 240, B: 235, A: 255})
	textBack = image.NewUniform(color.RGBA{A: 160})
)

func splitLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		out = append(out, strings.Split(l, "\n")...)
	}
	return out
}

// RasterizeText draws lines onto a translucent panel sized to fit them.
// It returns nil when there is nothing to draw.
func RasterizeText(lines []string) *image.RGBA {
	lines = splitLines(lines)
	face := basicfont.Face7x13
	m := face.Metrics()
	lineH := m.Height.Ceil()

	w := 0
	for _, l := range lines {
		if adv := font.MeasureString(face, l).Ceil(); adv > w {
			w = adv
		}
	}
	if w == 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w+2*textPad, len(lines)*lineH+2*textPad))
	draw.Draw(img, img.Bounds(), textBack, image.Point{}, draw.Src)

	d := font.Drawer{Dst: img, Src: textInk, Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(textPad, textPad+i*lineH+m.Ascent.Ceil())
		d.DrawString(l)
	}
	return img
}
