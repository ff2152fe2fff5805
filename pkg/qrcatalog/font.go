package qrcatalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Matches the font the label layout was designed with.
const DefaultFontName = "Arial"

type FontMetadata struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func getFontMetadataByPath(fontPath string) (*FontMetadata, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	f, err := sfnt.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	name, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return nil, fmt.Errorf("retrieving font name: %w", err)
	}

	return &FontMetadata{
		Name: name,
		Path: fontPath,
	}, nil
}

// Scan through the directory to process .ttf and .otf files.
func ScanFontDir(dir string, logger *zap.SugaredLogger) ([]FontMetadata, error) {
	var fonts []FontMetadata

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}

		meta, err := getFontMetadataByPath(path)
		if err != nil {
			if logger != nil {
				logger.Warnf("Skipping %q: %v", path, err)
			}
			return nil
		}

		fonts = append(fonts, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fonts, nil
}

// List the available font family and its path
func GetAvailableFonts(path string) ([]*FontMetadata, error) {
	var fonts []*FontMetadata

	if path == "" {
		path = "font_metadata.json"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fonts, fmt.Errorf("error reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &fonts); err != nil {
		return fonts, fmt.Errorf("error unmarshalling %s: %w", path, err)
	}

	return fonts, nil
}

// FontLoader resolves font names to faces. Parsed fonts are cached and shared,
// faces are not: a font.Face keeps glyph state, so every caller gets its own.
type FontLoader struct {
	Cfg            *Config
	AvailableFonts []*FontMetadata
	logger         *zap.SugaredLogger

	mu     sync.Mutex
	parsed map[string]*opentype.Font
	missed map[string]bool
}

// NewFontLoader never fails: without a metadata index only direct font paths
// and the embedded fallback are available.
func NewFontLoader(cfg *Config, logger *zap.SugaredLogger) *FontLoader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fonts, err := GetAvailableFonts(cfg.FontMetadataPath)
	if err != nil {
		logger.Debugf("Font metadata unavailable, using fallback font only: %v", err)
	}

	return &FontLoader{
		Cfg:            cfg,
		AvailableFonts: fonts,
		logger:         logger,
		parsed:         make(map[string]*opentype.Font),
		missed:         make(map[string]bool),
	}
}

func (fl *FontLoader) GetAvailableFontMetadataByName(fontName string) (*FontMetadata, error) {
	for _, f := range fl.AvailableFonts {
		if strings.EqualFold(f.Name, fontName) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("font %s not found", fontName)
}

// LoadFont accepts either a family name from the metadata index or a path to a
// .ttf/.otf file.
func (fl *FontLoader) LoadFont(fontName string) (*opentype.Font, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if f, ok := fl.parsed[fontName]; ok {
		return f, nil
	}
	if fl.missed[fontName] {
		return nil, fmt.Errorf("font %s not found", fontName)
	}

	path := fontName
	if meta, err := fl.GetAvailableFontMetadataByName(fontName); err == nil {
		path = meta.Path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font file: %w", err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}

	fl.parsed[fontName] = f
	return f, nil
}

// Face returns a face for fontName at size points, falling back to the
// embedded Go Regular font when the named font cannot be loaded.
func (fl *FontLoader) Face(fontName string, size float64) font.Face {
	if fontName != "" {
		f, err := fl.LoadFont(fontName)
		if err == nil {
			if face, err := newFace(f, size); err == nil {
				return face
			}
		} else {
			fl.warnOnce(fontName, err)
		}
	}

	return FallbackFace(size)
}

func (fl *FontLoader) warnOnce(fontName string, err error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.missed[fontName] {
		return
	}
	fl.missed[fontName] = true
	fl.logger.Warnf("Font %q unavailable, falling back to default font: %v", fontName, err)
}

var (
	fallbackOnce sync.Once
	fallbackFont *opentype.Font
)

// FallbackFace returns the embedded Go Regular face at size points. If even
// that cannot be built the fixed 7x13 bitmap face is used.
func FallbackFace(size float64) font.Face {
	fallbackOnce.Do(func() {
		fallbackFont, _ = opentype.Parse(goregular.TTF)
	})

	if fallbackFont != nil {
		if face, err := newFace(fallbackFont, size); err == nil {
			return face
		}
	}

	return basicfont.Face7x13
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
