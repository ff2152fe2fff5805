package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SeakMengs/QRCatalog/internal/env"
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ENV      string `yaml:"env" validate:"required"`
	LogLevel string `yaml:"log_level"`

	Server  ServerConfig  `yaml:"server"`
	Paths   PathConfig    `yaml:"paths"`
	Catalog CatalogConfig `yaml:"catalog"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Minio   MinioConfig   `yaml:"minio"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" validate:"required,numeric"`
	// Upload size limit of the catalog endpoint, in megabytes
	MaxUploadMB int `yaml:"max_upload_mb" validate:"gte=1"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type PathConfig struct {
	FontMetadata string `yaml:"font_metadata"`
	LabelDir     string `yaml:"label_dir" validate:"required"`
	OutputDir    string `yaml:"output_dir" validate:"required"`
	TmpDir       string `yaml:"tmp_dir" validate:"required"`
}

type CatalogConfig struct {
	FontName      string `yaml:"font_name"`
	FallbackCode  string `yaml:"fallback_code" validate:"strNotEmpty"`
	CellSize      int    `yaml:"cell_size" validate:"gte=1,lte=40"`
	FailurePolicy string `yaml:"failure_policy" validate:"oneof=blank skip"`
	// 0 picks a worker count from the CPU count
	Workers     int    `yaml:"workers" validate:"gte=0"`
	LinkColumn  string `yaml:"link_column" validate:"strNotEmpty"`
	NameColumn  string `yaml:"name_column" validate:"strNotEmpty"`
	FileName    string `yaml:"file_name" validate:"required"`
	PageNumbers bool   `yaml:"page_numbers"`
	ZipLabels   bool   `yaml:"zip_labels"`
	PreviewPath string `yaml:"preview_path"`
}

type FetchConfig struct {
	Timeout   Duration `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent"`
}

type MinioConfig struct {
	ENABLED    bool   `yaml:"enabled"`
	ENDPOINT   string `yaml:"endpoint" validate:"required_if=ENABLED true"`
	ACCESS_KEY string `yaml:"access_key"`
	SECRET_KEY string `yaml:"secret_key"`
	BUCKET     string `yaml:"bucket" validate:"required_if=ENABLED true"`
	USE_SSL    bool   `yaml:"use_ssl"`
}

// Duration reads human readable strings like "15s" from yaml.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func defaults() Config {
	lib := qrcatalog.NewDefaultConfig()
	settings := qrcatalog.NewDefaultSettings()

	return Config{
		ENV: "development",
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        "8080",
			MaxUploadMB: 10,
		},
		Paths: PathConfig{
			FontMetadata: lib.FontMetadataPath,
			LabelDir:     lib.LabelDir,
			OutputDir:    lib.OutputDir,
			TmpDir:       lib.TmpDir,
		},
		Catalog: CatalogConfig{
			FontName:      settings.FontName,
			FallbackCode:  settings.FallbackCode,
			CellSize:      settings.CellSize,
			FailurePolicy: string(settings.FailurePolicy),
			LinkColumn:    settings.Columns.Link,
			NameColumn:    settings.Columns.Name,
			FileName:      settings.CatalogFileName,
		},
		Fetch: FetchConfig{
			Timeout:   Duration{qrcatalog.DefaultFetchTimeout},
			UserAgent: util.GetUserAgent(),
		},
		Minio: MinioConfig{
			ENDPOINT: "127.0.0.1:9000",
			BUCKET:   "qrcatalog",
		},
	}
}

// GetConfig builds the configuration from defaults and environment variables.
func GetConfig() Config {
	cfg := defaults()
	applyEnvOverrides(&cfg)
	return cfg
}

// Load reads the yaml file at path over the defaults, then applies
// environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", filepath.Base(path), err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Every value already in cfg is the fallback of its variable.
func applyEnvOverrides(cfg *Config) {
	cfg.ENV = env.GetString("ENV", cfg.ENV)
	cfg.LogLevel = env.GetString("LOG_LEVEL", cfg.LogLevel)

	cfg.Server = ServerConfig{
		Host:        env.GetString("HOST", cfg.Server.Host),
		Port:        env.GetString("PORT", cfg.Server.Port),
		MaxUploadMB: env.GetInt("MAX_UPLOAD_MB", cfg.Server.MaxUploadMB),
	}

	cfg.Paths = PathConfig{
		FontMetadata: env.GetString("FONT_METADATA_PATH", cfg.Paths.FontMetadata),
		LabelDir:     env.GetString("LABEL_DIR", cfg.Paths.LabelDir),
		OutputDir:    env.GetString("OUTPUT_DIR", cfg.Paths.OutputDir),
		TmpDir:       env.GetString("TMP_DIR", cfg.Paths.TmpDir),
	}

	cfg.Catalog = CatalogConfig{
		FontName:      env.GetString("CATALOG_FONT_NAME", cfg.Catalog.FontName),
		FallbackCode:  env.GetString("CATALOG_FALLBACK_CODE", cfg.Catalog.FallbackCode),
		CellSize:      env.GetInt("CATALOG_CELL_SIZE", cfg.Catalog.CellSize),
		FailurePolicy: env.GetString("CATALOG_FAILURE_POLICY", cfg.Catalog.FailurePolicy),
		Workers:       env.GetInt("CATALOG_WORKERS", cfg.Catalog.Workers),
		LinkColumn:    env.GetString("CATALOG_LINK_COLUMN", cfg.Catalog.LinkColumn),
		NameColumn:    env.GetString("CATALOG_NAME_COLUMN", cfg.Catalog.NameColumn),
		FileName:      env.GetString("CATALOG_FILE_NAME", cfg.Catalog.FileName),
		PageNumbers:   env.GetBool("CATALOG_PAGE_NUMBERS", cfg.Catalog.PageNumbers),
		ZipLabels:     env.GetBool("CATALOG_ZIP_LABELS", cfg.Catalog.ZipLabels),
		PreviewPath:   env.GetString("CATALOG_PREVIEW_PATH", cfg.Catalog.PreviewPath),
	}

	cfg.Fetch = FetchConfig{
		Timeout:   Duration{env.GetDuration("FETCH_TIMEOUT", cfg.Fetch.Timeout.Duration)},
		UserAgent: env.GetString("FETCH_USER_AGENT", cfg.Fetch.UserAgent),
	}

	cfg.Minio = MinioConfig{
		ENABLED:    env.GetBool("MINIO_ENABLED", cfg.Minio.ENABLED),
		ENDPOINT:   env.GetString("MINIO_ENDPOINT", cfg.Minio.ENDPOINT),
		ACCESS_KEY: env.GetString("MINIO_ACCESS_KEY", cfg.Minio.ACCESS_KEY),
		SECRET_KEY: env.GetString("MINIO_SECRET_KEY", cfg.Minio.SECRET_KEY),
		BUCKET:     env.GetString("MINIO_BUCKET", cfg.Minio.BUCKET),
		USE_SSL:    env.GetBool("MINIO_USE_SSL", cfg.Minio.USE_SSL),
	}
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	if err := util.NewValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %s", util.GenerateErrorMessagesAsString(err, nil))
	}
	return nil
}

// LibraryConfig maps the paths onto the catalog library config.
func (c Config) LibraryConfig() qrcatalog.Config {
	return qrcatalog.Config{
		FontMetadataPath: c.Paths.FontMetadata,
		LabelDir:         c.Paths.LabelDir,
		OutputDir:        c.Paths.OutputDir,
		TmpDir:           c.Paths.TmpDir,
	}
}

func (c Config) Settings() qrcatalog.Settings {
	settings := qrcatalog.NewDefaultSettings()

	settings.FontName = c.Catalog.FontName
	settings.FallbackCode = c.Catalog.FallbackCode
	settings.CellSize = c.Catalog.CellSize
	settings.FailurePolicy = qrcatalog.FailurePolicy(c.Catalog.FailurePolicy)
	settings.Workers = c.Catalog.Workers
	settings.Columns = qrcatalog.SheetColumns{Link: c.Catalog.LinkColumn, Name: c.Catalog.NameColumn}
	settings.CatalogFileName = c.Catalog.FileName
	settings.PageNumbers = c.Catalog.PageNumbers
	settings.ZipLabels = c.Catalog.ZipLabels
	settings.PreviewPath = c.Catalog.PreviewPath

	return *settings
}
