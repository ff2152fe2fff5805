package qrcatalog

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
)

const DefaultPreviewDPMM = 4.0

func ptToMM(pt float64) float64 {
	return pt / PointsPerCM * 10
}

// PreviewSink renders every catalog page to its own image or vector file with
// canvas. The output format follows the extension of the base path (.png,
// .jpg, .svg or .pdf); page n is written as <base>-<n><ext>.
type PreviewSink struct {
	base       string
	page       PageSize
	resolution canvas.Resolution

	canvases []*canvas.Canvas
	ctx      *canvas.Context

	// Written files, in page order
	Files []string
}

func NewPreviewSink(basePath string, page PageSize, dpmm float64) *PreviewSink {
	if dpmm <= 0 {
		dpmm = DefaultPreviewDPMM
	}

	return &PreviewSink{
		base:       basePath,
		page:       page,
		resolution: canvas.DPMM(dpmm),
	}
}

func (s *PreviewSink) AddPage() error {
	width, height := ptToMM(s.page.Width), ptToMM(s.page.Height)
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	// Top left origin like the pdf
	ctx.SetCoordSystem(canvas.CartesianIV)

	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	s.canvases = append(s.canvases, c)
	s.ctx = ctx
	return nil
}

func (s *PreviewSink) PlaceImage(img image.Image, p Placement) error {
	if s.ctx == nil {
		return errNoPage
	}

	size := ptToMM(p.Size)
	width := img.Bounds().Dx()
	if width == 0 || size == 0 {
		return nil
	}

	s.ctx.DrawImage(ptToMM(p.X), ptToMM(p.Y), img, canvas.DPMM(float64(width)/size))
	return nil
}

func (s *PreviewSink) Close() error {
	ext := filepath.Ext(s.base)
	stem := strings.TrimSuffix(s.base, ext)

	s.Files = s.Files[:0]
	for i, c := range s.canvases {
		out := fmt.Sprintf("%s-%d%s", stem, i+1, ext)
		if err := renderers.Write(out, c, s.resolution); err != nil {
			return fmt.Errorf("failed to render preview page %d: %w", i+1, err)
		}
		s.Files = append(s.Files, out)
	}

	return nil
}
