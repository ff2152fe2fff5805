package qrcatalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestGenerator(t *testing.T, sheet string, settings Settings) *CatalogGenerator {
	t.Helper()

	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "datos.csv")
	if err := os.WriteFile(sheetPath, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		FontMetadataPath: filepath.Join(dir, "font_metadata.json"),
		LabelDir:         filepath.Join(dir, "labels"),
		OutputDir:        filepath.Join(dir, "out"),
		TmpDir:           filepath.Join(dir, "tmp"),
	}

	return NewCatalogGenerator(sheetPath, cfg, settings, nil, nil)
}

func newProductServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/p/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	})
	mux.HandleFunc("/p/2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Teclado", expected: "Teclado"},
		{input: "  Mouse inalambrico  ", expected: "Mouse_inalambrico"},
		{input: "Cable USB-C 2m (negro)", expected: "Cable_USB-C_2m__negro_"},
		{input: "Cafe/Te", expected: "Cafe_Te"},
		{input: "Audifonos", expected: "Audifonos"},
		{input: "Cámara Niño", expected: "Cámara_Niño"},
		{input: strings.Repeat("a", 50), expected: strings.Repeat("a", 40)},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SafeFileName(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	if got := LabelFileName(Row{Index: 4, Name: "Teclado"}); got != "Teclado_005.jpg" {
		t.Errorf("expected Teclado_005.jpg, got %s", got)
	}
}

func TestGenerateOneFailingRow(t *testing.T) {
	srv := newProductServer(t)
	sheet := fmt.Sprintf("link,nombre_producto\n%s/p/1,Teclado\n%s/p/2,Mouse\n", srv.URL, srv.URL)

	cg := newTestGenerator(t, sheet, *NewDefaultSettings())

	stale := filepath.Join(cg.Cfg.LabelDir, "old_001.jpg")
	os.MkdirAll(cg.Cfg.LabelDir, 0755)
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := cg.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Rows != 2 || res.Rendered != 2 || res.Pages != 1 {
		t.Errorf("expected 2 rows, 2 labels and 1 page, got %d rows, %d labels and %d pages", res.Rows, res.Rendered, res.Pages)
	}
	if len(res.Failed) != 1 || res.Failed[0].Index != 1 || !errors.Is(&res.Failed[0], ErrBadStatus) {
		t.Fatalf("expected row 2 to fail with a bad status, got %v", res.Failed)
	}

	first, second := res.Labels[0], res.Labels[1]
	if first.Code != "ITAU-12345" || first.Modules != 3 || first.Err != nil {
		t.Errorf("unexpected first label %+v", first)
	}
	if second.Code != DefaultFallbackCode || second.Modules != 0 || second.Err == nil {
		t.Errorf("unexpected second label %+v", second)
	}

	for i, expected := range []string{"Teclado_001.jpg", "Mouse_002.jpg"} {
		if filepath.Base(res.Labels[i].FilePath) != expected {
			t.Errorf("expected %s, got %s", expected, res.Labels[i].FilePath)
		}
		if _, err := os.Stat(res.Labels[i].FilePath); err != nil {
			t.Errorf("expected label file: %v", err)
		}
	}

	// Modules (0,0), (2,3) and (20,20) of the fixture page
	good := decodeLabel(t, res.Labels[0].FilePath)
	for _, cell := range []image.Point{{0, 0}, {2, 3}, {20, 20}} {
		center := image.Pt(QROriginX+cell.X*DefaultCellSize+DefaultCellSize/2, QROriginY+cell.Y*DefaultCellSize+DefaultCellSize/2)
		if l := luma(good, center); l > 100 {
			t.Errorf("expected module %v to be dark at %v, got luma %d", cell, center, l)
		}
	}
	if l := luma(good, image.Pt(QROriginX+DefaultCellSize*10+2, QROriginY+DefaultCellSize*10+2)); l < 200 {
		t.Errorf("expected an empty module to stay light, got luma %d", l)
	}

	blank := decodeLabel(t, res.Labels[1].FilePath)
	region := image.Rect(QROriginX, 40, QROriginX+21*DefaultCellSize, 168)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if l := luma(blank, image.Pt(x, y)); l < 200 {
				t.Fatalf("expected the QR region of the failed row to be white, got luma %d at (%d,%d)", l, x, y)
			}
		}
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected labels of the previous batch to be removed")
	}

	pages, err := ValidatePdf(res.CatalogPath)
	if err != nil {
		t.Fatalf("invalid catalog: %v", err)
	}
	if pages != 1 {
		t.Errorf("expected 1 page, got %d", pages)
	}

	if _, err := os.Stat(cg.TempDir()); !os.IsNotExist(err) {
		t.Error("expected the tmp directory to be removed")
	}
}

func TestGenerateSkipPolicy(t *testing.T) {
	srv := newProductServer(t)
	sheet := fmt.Sprintf("link,nombre_producto\n%s/p/2,Mouse\n%s/p/1,Teclado\nnot a url,Cable\n", srv.URL, srv.URL)

	settings := NewDefaultSettings()
	settings.FailurePolicy = FailureSkip
	cg := newTestGenerator(t, sheet, *settings)

	res, err := cg.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Rendered != 1 || len(res.Labels) != 1 || res.Labels[0].Number != 2 {
		t.Errorf("expected only the second row to be rendered, got %+v", res.Labels)
	}
	if len(res.Failed) != 2 || res.Failed[0].Index != 0 || res.Failed[1].Index != 2 {
		t.Errorf("expected rows 1 and 3 to fail, got %v", res.Failed)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	srv := newProductServer(t)
	var sheet strings.Builder
	sheet.WriteString("link,nombre_producto\n")
	for i := range 5 {
		fmt.Fprintf(&sheet, "%s/p/1,Producto con un nombre bastante largo %d\n", srv.URL, i)
	}

	settings := NewDefaultSettings()
	settings.Workers = 3
	cg := newTestGenerator(t, sheet.String(), *settings)

	readLabels := func(res *Result) [][]byte {
		var out [][]byte
		for _, l := range res.Labels {
			data, err := os.ReadFile(l.FilePath)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, data)
		}
		return out
	}

	first, err := cg.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstLabels := readLabels(first)

	second, err := cg.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondLabels := readLabels(second)

	if len(firstLabels) != 5 || len(secondLabels) != 5 {
		t.Fatalf("expected 5 labels per run, got %d and %d", len(firstLabels), len(secondLabels))
	}
	for i := range firstLabels {
		if !bytes.Equal(firstLabels[i], secondLabels[i]) {
			t.Errorf("label %d differs between runs", i+1)
		}
	}
}

func TestGenerateExtras(t *testing.T) {
	srv := newProductServer(t)
	var sheet strings.Builder
	sheet.WriteString("link,nombre_producto\n")
	for i := range 13 {
		fmt.Fprintf(&sheet, "%s/p/1,Producto %d\n", srv.URL, i+1)
	}

	settings := NewDefaultSettings()
	settings.PageNumbers = true
	settings.ZipLabels = true
	settings.PreviewPath = "preview.svg"
	cg := newTestGenerator(t, sheet.String(), *settings)
	uploader := &fakeUploader{}
	cg.Uploader = uploader

	res, err := cg.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", res.Pages)
	}
	if _, err := os.Stat(res.ZipPath); err != nil {
		t.Errorf("expected a label archive: %v", err)
	}
	if len(res.PreviewFiles) != 2 {
		t.Errorf("expected 2 preview files, got %v", res.PreviewFiles)
	}
	if uploader.path != res.CatalogPath || res.UploadedURL != "s3://catalogs/"+DefaultCatalogFileName {
		t.Errorf("unexpected upload of %s to %s", uploader.path, res.UploadedURL)
	}
}

func decodeLabel(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return img
}

func luma(img image.Image, p image.Point) uint8 {
	return color.GrayModel.Convert(img.At(p.X, p.Y)).(color.Gray).Y
}

type fakeUploader struct {
	path string
}

func (u *fakeUploader) UploadFile(ctx context.Context, path string) (string, error) {
	u.path = path
	return "s3://catalogs/" + filepath.Base(path), nil
}

func TestGenerateEmptySheet(t *testing.T) {
	cg := newTestGenerator(t, "link,nombre_producto\n", *NewDefaultSettings())

	res, err := cg.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 0 || res.Pages != 1 {
		t.Errorf("expected a single blank page, got %d rows and %d pages", res.Rows, res.Pages)
	}
}

func TestGenerateAborts(t *testing.T) {
	t.Run("Missing column", func(t *testing.T) {
		cg := newTestGenerator(t, "url,name\nhttps://example.com,Teclado\n", *NewDefaultSettings())
		_, err := cg.Generate(context.Background())
		if !errors.Is(err, ErrMissingColumn) || !errors.Is(err, ErrReadSheet) {
			t.Errorf("expected ErrMissingColumn and ErrReadSheet, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		srv := newProductServer(t)
		cg := newTestGenerator(t, fmt.Sprintf("link,nombre_producto\n%s/p/1,Teclado\n", srv.URL), *NewDefaultSettings())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := cg.Generate(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
