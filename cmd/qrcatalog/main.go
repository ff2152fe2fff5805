package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appcontext "github.com/SeakMengs/QRCatalog/internal/app_context"
	"github.com/SeakMengs/QRCatalog/internal/config"
	"github.com/SeakMengs/QRCatalog/internal/env"
	filestorage "github.com/SeakMengs/QRCatalog/internal/file_storage"
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	root := &cobra.Command{
		Use:           "qrcatalog",
		Short:         "Build printable QR label catalogs from a product spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configPath string
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "qrcatalog.yaml", "Path to config file")

	root.AddCommand(newGenerateCmd(&configPath))
	root.AddCommand(newScanFontsCmd())
	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newDemoCmd(&configPath))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", util.GetAppName(), util.Version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type generateFlags struct {
	outputDir    string
	labelDir     string
	font         string
	fallbackCode string
	policy       string
	workers      int
	timeout      time.Duration
	pageNumbers  bool
	zipLabels    bool
	preview      string
	upload       bool
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate [spreadsheet]",
		Short: "Fetch every product page and write the catalog pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyGenerateFlags(cmd, &cfg, f)

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runGenerate(ctx, cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for the catalog and its side products")
	cmd.Flags().StringVar(&f.labelDir, "label-dir", "", "Directory for the label images, cleared on every run")
	cmd.Flags().StringVar(&f.font, "font", "", "Font family name or path to a .ttf/.otf file")
	cmd.Flags().StringVar(&f.fallbackCode, "fallback-code", "", "Code used when a page has no code cell")
	cmd.Flags().StringVar(&f.policy, "on-failure", "", "What to do with rows that fail: blank or skip")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of parallel fetches, 0 picks from the CPU count")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Timeout of each page fetch")
	cmd.Flags().BoolVar(&f.pageNumbers, "page-numbers", false, "Stamp page numbers on the catalog")
	cmd.Flags().BoolVar(&f.zipLabels, "zip", false, "Also write a zip of the label images")
	cmd.Flags().StringVar(&f.preview, "preview", "", "Render page previews to this path (.png, .jpg, .svg or .pdf)")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "Upload the catalog to minio")

	return cmd
}

// Only flags given on the command line override the config.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, f generateFlags) {
	changed := cmd.Flags().Changed

	if changed("output-dir") {
		cfg.Paths.OutputDir = f.outputDir
	}
	if changed("label-dir") {
		cfg.Paths.LabelDir = f.labelDir
	}
	if changed("font") {
		cfg.Catalog.FontName = f.font
	}
	if changed("fallback-code") {
		cfg.Catalog.FallbackCode = f.fallbackCode
	}
	if changed("on-failure") {
		cfg.Catalog.FailurePolicy = f.policy
	}
	if changed("workers") {
		cfg.Catalog.Workers = f.workers
	}
	if changed("timeout") {
		cfg.Fetch.Timeout = config.Duration{Duration: f.timeout}
	}
	if changed("page-numbers") {
		cfg.Catalog.PageNumbers = f.pageNumbers
	}
	if changed("zip") {
		cfg.Catalog.ZipLabels = f.zipLabels
	}
	if changed("preview") {
		cfg.Catalog.PreviewPath = f.preview
	}
	if changed("upload") {
		cfg.Minio.ENABLED = f.upload
	}
}

// newApplication builds the dependencies shared by generate, serve and demo.
func newApplication(cfg *config.Config) (*appcontext.Application, error) {
	logger := util.NewLogger(cfg.ENV, cfg.LogLevel)

	fetcher := qrcatalog.NewHTTPFetcher(cfg.Fetch.Timeout.Duration, cfg.Catalog.FallbackCode)
	fetcher.UserAgent = cfg.Fetch.UserAgent

	app := &appcontext.Application{
		Config:  cfg,
		Logger:  logger,
		Fetcher: fetcher,
	}

	if cfg.Minio.ENABLED {
		s3, err := filestorage.NewMinioClient(&cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		app.S3 = s3
	}

	return app, nil
}

func runGenerate(ctx context.Context, cfg config.Config, sheetPath string) error {
	app, err := newApplication(&cfg)
	if err != nil {
		return err
	}
	logger := app.Logger
	defer logger.Sync()
	logger.Debugf("Configuration: %+v", cfg)

	cg := qrcatalog.NewCatalogGenerator(sheetPath, cfg.LibraryConfig(), cfg.Settings(), app.Fetcher, logger)
	if app.S3 != nil {
		cg.Uploader = &filestorage.MinioUploader{S3: app.S3, Bucket: cfg.Minio.BUCKET, RunID: cg.ID}
	}

	res, err := cg.Generate(ctx)
	if err != nil {
		return err
	}

	for _, f := range res.Failed {
		logger.Warnf("Row %d (%s) failed: %v", f.Index+1, f.Name, f.Err)
	}

	fmt.Printf("Catalog %s: %d/%d labels on %d pages\n", res.CatalogPath, res.Rendered, res.Rows, res.Pages)
	if res.ZipPath != "" {
		fmt.Printf("Labels archive: %s\n", res.ZipPath)
	}
	for _, p := range res.PreviewFiles {
		fmt.Printf("Preview: %s\n", p)
	}
	if res.UploadedURL != "" {
		fmt.Printf("Uploaded to %s\n", res.UploadedURL)
	}

	return nil
}

func newScanFontsCmd() *cobra.Command {
	var (
		fontDir    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "scan-fonts",
		Short: "Index the fonts of a directory so labels can use them by family name",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.NewLogger(env.GetString("ENV", "development"), "")
			defer logger.Sync()

			fonts, err := qrcatalog.ScanFontDir(fontDir, logger)
			if err != nil {
				return fmt.Errorf("failed to scan font directory: %w", err)
			}

			data, err := json.MarshalIndent(fonts, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}

			// The file can be read by the owner (you), read by users in the file's group, and read by anyone else on the system
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return fmt.Errorf("failed to write JSON file: %w", err)
			}

			fmt.Printf("Saved metadata for %d fonts to %q\n", len(fonts), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&fontDir, "dir", "fonts", "Directory to scan for .ttf and .otf files")
	cmd.Flags().StringVar(&outputFile, "output", "font_metadata.json", "Where to write the font index")

	return cmd
}
