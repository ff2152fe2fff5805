package qrcatalog

import (
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

/*
 * Attention: labels are drawn in device pixels with a top-left origin; every y passed here is the top of the text box, not the baseline.
 */

type TextAlign int

const (
	TextAlignCenter TextAlign = iota
	TextAlignLeft
	TextAlignRight
)

type TextRenderer struct {
	face  font.Face
	width float64
}

// NewTextRenderer draws with face inside a box of width px starting at x=0.
func NewTextRenderer(face font.Face, width float64) *TextRenderer {
	return &TextRenderer{
		face:  face,
		width: width,
	}
}

// MeasureText returns the advance width of text in px.
func (tr *TextRenderer) MeasureText(text string) float64 {
	d := &font.Drawer{Face: tr.face}
	return float64(d.MeasureString(text)) / 64
}

func (tr *TextRenderer) ascent() float64 {
	return float64(tr.face.Metrics().Ascent) / 64
}

func (tr *TextRenderer) drawText(dc *gg.Context, text string, alignment TextAlign, x, top float64) {
	dc.SetFontFace(tr.face)

	textWidth := tr.MeasureText(text)

	var xPosition float64
	switch alignment {
	case TextAlignLeft:
		xPosition = x
	case TextAlignRight:
		xPosition = tr.width - textWidth - x
	case TextAlignCenter:
		xPosition = (tr.width - textWidth) / 2
	}

	dc.DrawString(text, xPosition, top+tr.ascent())
}

func (tr *TextRenderer) drawCenteredText(dc *gg.Context, text string, top float64) {
	tr.drawText(dc, text, TextAlignCenter, 0, top)
}

func (tr *TextRenderer) drawLeftAlignedText(dc *gg.Context, text string, x, top float64) {
	tr.drawText(dc, text, TextAlignLeft, x, top)
}
