package qrcatalog

import (
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

const (
	LabelWidth  = 216
	LabelHeight = 216

	DefaultCellSize = 5
	QROriginX       = 30
	QROriginY       = 30

	CodeFontSize = 14
	NameFontSize = 12

	// Product names longer than this are cut into two lines at exactly this rune.
	NameSplitAt = 30

	codeX        = 10
	codeTop      = 20
	nameTop      = 178
	nameLine1Top = 175
	nameLine2Top = 190

	LabelJPEGQuality = 95
)

// LabelRenderer rasterizes labels. It holds no drawing state: every Render
// call allocates its own canvas and font faces, so one renderer may be shared
// by any number of goroutines.
type LabelRenderer struct {
	CellSize int
	FontName string
	fonts    *FontLoader
}

// NewLabelRenderer uses fonts to resolve fontName, a nil loader always uses
// the embedded fallback font.
func NewLabelRenderer(fonts *FontLoader, fontName string, cellSize int) *LabelRenderer {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &LabelRenderer{
		CellSize: cellSize,
		FontName: fontName,
		fonts:    fonts,
	}
}

// RenderLabel draws a label with the embedded fallback font.
func RenderLabel(code, productName string, modules ModuleSet, cellSize int) *image.RGBA {
	return NewLabelRenderer(nil, "", cellSize).Render(code, productName, modules)
}

// Render returns a fresh 216x216 label: code at the top left, the QR modules
// as solid cells from (30,30), and the product name centered at the bottom.
func (lr *LabelRenderer) Render(code, productName string, modules ModuleSet) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, LabelWidth, LabelHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	dc := gg.NewContextForRGBA(img)
	dc.SetColor(color.Black)

	codeText := NewTextRenderer(lr.face(CodeFontSize), LabelWidth)
	codeText.drawLeftAlignedText(dc, code, codeX, codeTop)

	lr.drawModules(img, modules)

	nameText := NewTextRenderer(lr.face(NameFontSize), LabelWidth)
	lines := SplitProductName(productName)
	switch len(lines) {
	case 1:
		nameText.drawCenteredText(dc, lines[0], nameTop)
	case 2:
		nameText.drawCenteredText(dc, lines[0], nameLine1Top)
		nameText.drawCenteredText(dc, lines[1], nameLine2Top)
	}

	return img
}

// drawModules fills whole pixels only, no anti-aliasing.
func (lr *LabelRenderer) drawModules(img *image.RGBA, modules ModuleSet) {
	for _, m := range modules.Sorted() {
		x := QROriginX + m.Col*lr.CellSize
		y := QROriginY + m.Row*lr.CellSize
		cell := image.Rect(x, y, x+lr.CellSize, y+lr.CellSize).Intersect(img.Bounds())
		if cell.Empty() {
			continue
		}
		draw.Draw(img, cell, image.Black, image.Point{}, draw.Src)
	}
}

func (lr *LabelRenderer) face(size float64) font.Face {
	if lr.fonts == nil {
		return FallbackFace(size)
	}
	return lr.fonts.Face(lr.FontName, size)
}

// SplitProductName returns one line for names of up to 30 runes. Longer names
// are cut at rune 30, not at a word boundary. The first line loses trailing
// whitespace and the second its leading whitespace.
func SplitProductName(name string) []string {
	runes := []rune(name)
	if len(runes) <= NameSplitAt {
		return []string{name}
	}

	return []string{
		strings.TrimRightFunc(string(runes[:NameSplitAt]), unicode.IsSpace),
		strings.TrimLeftFunc(string(runes[NameSplitAt:]), unicode.IsSpace),
	}
}

func EncodeLabelJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: LabelJPEGQuality})
}
