package qrcatalog

import (
	"fmt"
	"os"
)

type Config struct {
	// A path to json where it store font name and path to the font file
	FontMetadataPath string
	// Directory where the label images are written, it is cleared at the start of every batch
	LabelDir string
	// Directory where the catalog and its side products are written
	OutputDir string
	// Directory where the temporary files are stored during processing, the file will be deleted after processing
	TmpDir string
}

func NewDefaultConfig() *Config {
	cfg := Config{
		FontMetadataPath: "font_metadata.json",
		LabelDir:         "jpgs_6x6cm",
		OutputDir:        ".",
		TmpDir:           fmt.Sprintf("%s/qrcatalog/tmp", os.TempDir()),
	}

	return &cfg
}

// EnsureDirs creates the directories if they do not exist.
// 0755 mean owner can read, write and execute
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.LabelDir, c.OutputDir, c.TmpDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
