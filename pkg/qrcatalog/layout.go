package qrcatalog

import (
	"fmt"
	"image"
)

// All layout values are PDF points (1/72 inch) with the origin at the top left
// of the page.
const (
	PointsPerCM = 72 / 2.54

	GridColumns   = 3
	GridRows      = 4
	LabelsPerPage = GridColumns * GridRows
	CellSizeCM    = 6
)

type PageSize struct {
	Width  float64
	Height float64
}

// 210 x 297 mm
var PageSizeA4 = PageSize{Width: 21 * PointsPerCM, Height: 29.7 * PointsPerCM}

type Layout struct {
	Page     PageSize
	Columns  int
	Rows     int
	CellSize float64
}

// NewA4Layout is the fixed catalog sheet: 3x4 cells of 6cm, centered on A4.
func NewA4Layout() Layout {
	return Layout{
		Page:     PageSizeA4,
		Columns:  GridColumns,
		Rows:     GridRows,
		CellSize: CellSizeCM * PointsPerCM,
	}
}

func (l Layout) PerPage() int {
	return l.Columns * l.Rows
}

// Margins centers the whole grid as one block on the page.
func (l Layout) Margins() (x, y float64) {
	x = (l.Page.Width - float64(l.Columns)*l.CellSize) / 2
	y = (l.Page.Height - float64(l.Rows)*l.CellSize) / 2
	return x, y
}

// PageCount is the number of pages n labels need, at least one so an empty
// catalog is still a valid document.
func (l Layout) PageCount(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + l.PerPage() - 1) / l.PerPage()
}

// Placement is where one label lands.
type Placement struct {
	// Zero based
	Page int
	Slot int
	Col  int
	Row  int
	X    float64
	Y    float64
	Size float64
}

// Place fills pages row by row, left to right.
func (l Layout) Place(i int) Placement {
	perPage := l.PerPage()
	slot := i % perPage
	col, row := slot%l.Columns, slot/l.Columns
	marginX, marginY := l.Margins()

	return Placement{
		Page: i / perPage,
		Slot: slot,
		Col:  col,
		Row:  row,
		X:    marginX + float64(col)*l.CellSize,
		Y:    marginY + float64(row)*l.CellSize,
		Size: l.CellSize,
	}
}

// PageSink receives the catalog one page at a time.
type PageSink interface {
	AddPage() error
	PlaceImage(img image.Image, p Placement) error
	Close() error
}

// ComposeCatalog places labels in order, starting a new page every time the
// placed count reaches a nonzero multiple of the page capacity. Nil labels
// leave their cell blank, as do the trailing cells of the last page. It
// returns the number of pages written.
func ComposeCatalog(labels []image.Image, layout Layout, sink PageSink) (int, error) {
	pages := 0

	if len(labels) == 0 {
		if err := sink.AddPage(); err != nil {
			return 0, fmt.Errorf("failed to add page: %w", err)
		}
		pages++
	}

	for i, img := range labels {
		p := layout.Place(i)
		if p.Slot == 0 {
			if err := sink.AddPage(); err != nil {
				return pages, fmt.Errorf("failed to add page %d: %w", p.Page+1, err)
			}
			pages++
		}

		if img == nil {
			continue
		}

		if err := sink.PlaceImage(img, p); err != nil {
			return pages, fmt.Errorf("failed to place label %d: %w", i+1, err)
		}
	}

	if err := sink.Close(); err != nil {
		return pages, fmt.Errorf("failed to finish catalog: %w", err)
	}

	return pages, nil
}
