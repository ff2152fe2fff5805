package qrcatalog

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/signintech/gopdf"
)

const DefaultCatalogFileName = "catalogo_3x4.pdf"

var errNoPage = errors.New("no page to place the label on")

// PDFSink writes the catalog to a PDF file with gopdf. Placements use the same
// top left origin and point unit as gopdf, so no conversion is needed.
type PDFSink struct {
	path    string
	pdf     *gopdf.GoPdf
	hasPage bool
}

func NewPDFSink(path string, page PageSize) *PDFSink {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{
		PageSize: gopdf.Rect{W: page.Width, H: page.Height},
		Unit:     gopdf.UnitPT,
	})

	return &PDFSink{
		path: path,
		pdf:  pdf,
	}
}

func (s *PDFSink) AddPage() error {
	s.pdf.AddPage()
	s.hasPage = true
	return nil
}

// PlaceImage scales the label to fill its cell exactly.
func (s *PDFSink) PlaceImage(img image.Image, p Placement) error {
	if !s.hasPage {
		return errNoPage
	}

	rect := &gopdf.Rect{W: p.Size, H: p.Size}
	if err := s.pdf.ImageFrom(img, p.X, p.Y, rect); err != nil {
		return fmt.Errorf("failed to draw label at cell (%d,%d): %w", p.Col, p.Row, err)
	}

	return nil
}

func (s *PDFSink) Close() error {
	if err := s.pdf.WritePdf(s.path); err != nil {
		return fmt.Errorf("failed to write pdf %s: %w", s.path, err)
	}
	return nil
}

// ValidatePdf checks the written catalog and returns its page count.
func ValidatePdf(path string) (int, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return 0, fmt.Errorf("invalid pdf %s: %w", path, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}

	return pages, nil
}

// StampPageNumbers writes "page / total" at the bottom center of every page.
// The file is rewritten in place.
func StampPageNumbers(path string) error {
	tmp := path + ".stamp"
	description := "pos: bc, off: 0 12, scale: 1 abs, rotation: 0, points: 9, fillcolor: #808080"

	if err := api.AddTextWatermarksFile(path, tmp, nil, true, "%p / %P", description, nil); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to stamp page numbers: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
