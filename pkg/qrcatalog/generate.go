package qrcatalog

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FailurePolicy string

const (
	// Failed rows still get a label with the fallback code and no QR
	FailureBlank FailurePolicy = "blank"
	// Failed rows are left out of the catalog
	FailureSkip FailurePolicy = "skip"
)

const safeNameMaxLen = 40

type Settings struct {
	FontName      string
	FallbackCode  string
	CellSize      int
	FailurePolicy FailurePolicy
	// Zero means one per job up to twice the CPU count
	Workers         int
	Columns         SheetColumns
	CatalogFileName string
	PageNumbers     bool
	ZipLabels       bool
	// Empty disables previews, the extension picks the format
	PreviewPath string
	PreviewDPMM float64
}

func NewDefaultSettings() *Settings {
	return &Settings{
		FontName:        DefaultFontName,
		FallbackCode:    DefaultFallbackCode,
		CellSize:        DefaultCellSize,
		FailurePolicy:   FailureBlank,
		Columns:         DefaultSheetColumns(),
		CatalogFileName: DefaultCatalogFileName,
		PreviewDPMM:     DefaultPreviewDPMM,
	}
}

// Uploader stores the finished catalog somewhere else and returns where.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// RowError is a row that could not be turned into a proper label.
type RowError struct {
	// Zero based
	Index int
	Name  string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type GeneratedLabel struct {
	Number   int
	Name     string
	Code     string
	FilePath string
	Modules  int
	// Set when the row failed and was rendered blank
	Err error
}

type Result struct {
	ID           string
	Rows         int
	Rendered     int
	Failed       []RowError
	Labels       []GeneratedLabel
	Pages        int
	CatalogPath  string
	ZipPath      string
	PreviewFiles []string
	UploadedURL  string
}

type CatalogGenerator struct {
	ID        string
	SheetPath string
	Cfg       Config
	Settings  Settings
	Fetcher   PageFetcher
	// Optional
	Uploader Uploader

	logger   *zap.SugaredLogger
	labels   *LabelRenderer
	validate *validator.Validate
}

func NewCatalogGenerator(sheetPath string, cfg Config, settings Settings, fetcher PageFetcher, logger *zap.SugaredLogger) *CatalogGenerator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if settings.FallbackCode == "" {
		settings.FallbackCode = DefaultFallbackCode
	}
	if settings.FailurePolicy == "" {
		settings.FailurePolicy = FailureBlank
	}
	if settings.CatalogFileName == "" {
		settings.CatalogFileName = DefaultCatalogFileName
	}
	if settings.Columns == (SheetColumns{}) {
		settings.Columns = DefaultSheetColumns()
	}
	if fetcher == nil {
		fetcher = NewHTTPFetcher(DefaultFetchTimeout, settings.FallbackCode)
	}

	fonts := NewFontLoader(&cfg, logger)

	return &CatalogGenerator{
		ID:        uuid.NewString(),
		SheetPath: sheetPath,
		Cfg:       cfg,
		Settings:  settings,
		Fetcher:   fetcher,
		logger:    logger,
		labels:    NewLabelRenderer(fonts, settings.FontName, settings.CellSize),
		validate:  validator.New(),
	}
}

func (cg *CatalogGenerator) TempDir() string {
	return filepath.Join(cg.Cfg.TmpDir, cg.ID)
}

// SafeFileName keeps word characters, spaces and hyphens, trims, turns spaces
// into underscores and cuts the result to 40 runes.
func SafeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)

	mapped = strings.ReplaceAll(strings.TrimSpace(mapped), " ", "_")

	runes := []rune(mapped)
	if len(runes) > safeNameMaxLen {
		runes = runes[:safeNameMaxLen]
	}
	return string(runes)
}

// LabelFileName is the file a row's label is written to.
func LabelFileName(row Row) string {
	return fmt.Sprintf("%s_%03d.jpg", SafeFileName(row.Name), row.Index+1)
}

// clearLabelDir removes labels of an earlier batch so the directory only
// holds the labels of this one.
func (cg *CatalogGenerator) clearLabelDir() error {
	if err := os.MkdirAll(cg.Cfg.LabelDir, 0755); err != nil {
		return fmt.Errorf("failed to create label directory: %w", err)
	}

	old, err := filepath.Glob(filepath.Join(cg.Cfg.LabelDir, "*.jpg"))
	if err != nil {
		return err
	}
	for _, f := range old {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("failed to remove old label %s: %w", f, err)
		}
	}

	cg.logger.Infof("Cleared %d old labels from %s", len(old), cg.Cfg.LabelDir)
	return nil
}

type labelJob struct {
	row Row
}

type labelResult struct {
	index    int
	row      Row
	code     string
	modules  int
	img      *image.RGBA
	filePath string
	err      error
	// Errors that must stop the batch
	fatal error
}

func (cg *CatalogGenerator) Generate(ctx context.Context) (*Result, error) {
	defer os.RemoveAll(cg.TempDir())

	rows, err := ReadSheet(cg.SheetPath, cg.Settings.Columns)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadSheet, cg.SheetPath, err)
	}

	if err := cg.Cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cg.TempDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}
	if err := cg.clearLabelDir(); err != nil {
		return nil, err
	}

	results, err := cg.generateLabels(ctx, rows)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:     cg.ID,
		Rows:   len(rows),
		Labels: make([]GeneratedLabel, 0, len(results)),
	}

	images := make([]image.Image, 0, len(results))
	labelFiles := make([]string, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			res.Failed = append(res.Failed, RowError{Index: r.index, Name: r.row.Name, Err: r.err})
		}
		if r.img == nil {
			continue
		}

		res.Rendered++
		res.Labels = append(res.Labels, GeneratedLabel{
			Number:   r.index + 1,
			Name:     r.row.Name,
			Code:     r.code,
			FilePath: r.filePath,
			Modules:  r.modules,
			Err:      r.err,
		})
		images = append(images, r.img)
		labelFiles = append(labelFiles, r.filePath)
	}

	if err := cg.writeCatalog(images, res); err != nil {
		return nil, err
	}

	if cg.Settings.ZipLabels {
		res.ZipPath = filepath.Join(cg.Cfg.OutputDir, strings.TrimSuffix(cg.Settings.CatalogFileName, filepath.Ext(cg.Settings.CatalogFileName))+"_labels.zip")
		if err := ZipLabels(labelFiles, res.ZipPath); err != nil {
			return nil, err
		}
	}

	if cg.Settings.PreviewPath != "" {
		files, err := cg.writePreview(images)
		if err != nil {
			return nil, err
		}
		res.PreviewFiles = files
	}

	if cg.Uploader != nil {
		url, err := cg.Uploader.UploadFile(ctx, res.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to upload catalog: %w", err)
		}
		res.UploadedURL = url
	}

	cg.logger.Infow("Catalog generated",
		"id", cg.ID,
		"rows", res.Rows,
		"rendered", res.Rendered,
		"failed", len(res.Failed),
		"pages", res.Pages,
		"catalog", res.CatalogPath,
	)

	return res, nil
}

// writeCatalog composes into the tmp directory, checks and stamps the file
// there and only then copies it to the output directory.
func (cg *CatalogGenerator) writeCatalog(images []image.Image, res *Result) error {
	layout := NewA4Layout()
	tmpPdf := filepath.Join(cg.TempDir(), cg.Settings.CatalogFileName)

	pages, err := ComposeCatalog(images, layout, NewPDFSink(tmpPdf, layout.Page))
	if err != nil {
		return err
	}

	written, err := ValidatePdf(tmpPdf)
	if err != nil {
		return err
	}
	if written != pages {
		return fmt.Errorf("catalog has %d pages, expected %d", written, pages)
	}

	if cg.Settings.PageNumbers {
		if err := StampPageNumbers(tmpPdf); err != nil {
			return err
		}
	}

	res.Pages = pages
	res.CatalogPath = filepath.Join(cg.Cfg.OutputDir, cg.Settings.CatalogFileName)

	// Use copy instead of os.Rename to avoid invalid cross-device link
	if err := copyFile(tmpPdf, res.CatalogPath); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", res.CatalogPath, err)
	}

	return nil
}

func (cg *CatalogGenerator) writePreview(images []image.Image) ([]string, error) {
	path := cg.Settings.PreviewPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(cg.Cfg.OutputDir, path)
	}

	layout := NewA4Layout()
	sink := NewPreviewSink(path, layout.Page, cg.Settings.PreviewDPMM)
	if _, err := ComposeCatalog(images, layout, sink); err != nil {
		return nil, err
	}

	return sink.Files, nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}

func (cg *CatalogGenerator) generateLabels(ctx context.Context, rows []Row) ([]labelResult, error) {
	if len(rows) == 0 {
		return []labelResult{}, nil
	}

	maxWorkers := cg.Settings.Workers
	if maxWorkers <= 0 {
		maxWorkers = calculateWorkerCount(len(rows))
	}
	cg.logger.Debugf("Using %d workers for %d rows", maxWorkers, len(rows))

	jobs := make(chan labelJob, len(rows))
	results := make(chan labelResult, len(rows))

	var wg sync.WaitGroup
	for range maxWorkers {
		wg.Add(1)
		go cg.processWorkerJobs(ctx, jobs, results, len(rows), &wg)
	}

	for _, row := range rows {
		jobs <- labelJob{row: row}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered, err := cg.aggregateResults(results, len(rows))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog generation cancelled: %w", err)
	}

	return ordered, nil
}

func calculateWorkerCount(jobCount int) int {
	return min(max(runtime.GOMAXPROCS(0)*2, 1), jobCount)
}

func (cg *CatalogGenerator) processWorkerJobs(ctx context.Context, jobs <-chan labelJob, results chan<- labelResult, total int, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- labelResult{index: job.row.Index, row: job.row, fatal: err}
			continue
		}

		cg.logger.Infof("Processing [%d/%d]: %s", job.row.Index+1, total, job.row.Name)
		results <- cg.generateLabelFromJob(ctx, job)
	}
}

func (cg *CatalogGenerator) generateLabelFromJob(ctx context.Context, job labelJob) labelResult {
	row := job.row
	res := labelResult{index: row.Index, row: row}

	page, err := cg.fetchRow(ctx, row)
	if err != nil {
		if ctx.Err() != nil {
			res.fatal = ctx.Err()
			return res
		}

		res.err = err
		cg.logger.Errorw("Failed to process row",
			"row", row.Index+1,
			"name", row.Name,
			"error", err,
		)
		if cg.Settings.FailurePolicy == FailureSkip {
			return res
		}
		page = ScrapedPage{Code: cg.Settings.FallbackCode}
	}

	modules := ExtractModules(page.SVG)
	img := cg.labels.Render(page.Code, row.Name, modules)

	filePath := filepath.Join(cg.Cfg.LabelDir, LabelFileName(row))
	if err := writeLabelFile(filePath, img); err != nil {
		res.fatal = fmt.Errorf("failed to write label for row %d: %w", row.Index+1, err)
		return res
	}

	res.code = page.Code
	res.modules = modules.Len()
	res.img = img
	res.filePath = filePath
	return res
}

func (cg *CatalogGenerator) fetchRow(ctx context.Context, row Row) (ScrapedPage, error) {
	if err := cg.validate.Struct(row); err != nil {
		return ScrapedPage{}, fmt.Errorf("invalid link %q: %w", row.Link, err)
	}
	return cg.Fetcher.Fetch(ctx, row.Link)
}

func writeLabelFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := EncodeLabelJPEG(f, img); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// aggregateResults puts results back into row order. Only fatal errors fail
// the batch, row errors travel with their result.
func (cg *CatalogGenerator) aggregateResults(results <-chan labelResult, totalCount int) ([]labelResult, error) {
	resultMap := make(map[int]labelResult, totalCount)
	var firstErr error

	for r := range results {
		if r.fatal != nil {
			if firstErr == nil {
				firstErr = r.fatal
			}
			continue
		}
		resultMap[r.index] = r
	}

	if firstErr != nil {
		return nil, firstErr
	}

	ordered := make([]labelResult, 0, totalCount)
	for i := range totalCount {
		r, ok := resultMap[i]
		if !ok {
			return nil, fmt.Errorf("missing result for row %d", i+1)
		}
		ordered = append(ordered, r)
	}

	return ordered, nil
}
