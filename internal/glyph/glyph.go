// Package glyph draws graph images in the terminal with half-block characters.
package glyph

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF decoder.
	_ "image/jpeg" // JPEG decoder.
	_ "image/png"  // PNG decoder.
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

const upperHalf = "▀"

// Render decodes the image at path and draws it width columns wide.
func Render(path string, width int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only image.
			_ = cerr
		}
	}()
	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return RenderImage(img, width), nil
}

// RenderImage scales img to width columns keeping its aspect ratio. Every text
// row shows two pixel rows: the upper pixel as foreground, the lower as background.
func RenderImage(img image.Image, width int) string {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}
	height := width * b.Dy() / b.Dx()
	if height < 2 {
		height = 2
	}
	if height%2 != 0 {
		height++
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var out strings.Builder
	for y := 0; y < height; y += 2 {
		if y > 0 {
			out.WriteByte('\n')
		}
		for x := 0; x < width; x++ {
			cell := lipgloss.NewStyle().
				Foreground(hexColor(dst.At(x, y))).
				Background(hexColor(dst.At(x, y+1)))
			out.WriteString(cell.Render(upperHalf))
		}
	}
	return out.String()
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return lipgloss.Color("#FFFFFF")
	}
	// Channels are premultiplied; composite onto white so transparent scans
	// read as paper.
	blend := func(v uint32) uint32 {
		return (v + 0xffff - a) >> 8
	}
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", blend(r), blend(g), blend(b)))
}
