package qrcatalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPreviewSink(t *testing.T) {
	for _, ext := range []string{".png", ".svg"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			layout := NewA4Layout()
			sink := NewPreviewSink(filepath.Join(dir, "preview"+ext), layout.Page, 2)

			pages, err := ComposeCatalog(renderedLabels(13), layout, sink)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pages != 2 || len(sink.Files) != 2 {
				t.Fatalf("expected 2 preview pages, got %d pages and files %v", pages, sink.Files)
			}

			expected := []string{
				filepath.Join(dir, "preview-1"+ext),
				filepath.Join(dir, "preview-2"+ext),
			}
			for i, f := range expected {
				if sink.Files[i] != f {
					t.Errorf("expected %s, got %s", f, sink.Files[i])
				}
				info, err := os.Stat(f)
				if err != nil {
					t.Errorf("expected %s to exist: %v", f, err)
					continue
				}
				if info.Size() == 0 {
					t.Errorf("expected %s to have content", f)
				}
			}
		})
	}
}
