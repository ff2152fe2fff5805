package qrcatalog

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func addFileToZip(archive *zip.Writer, filePath, archivePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return nil
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = archivePath
	// Jpeg data does not deflate
	header.Method = zip.Store

	writer, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}

	fileReader, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer fileReader.Close()

	_, err = io.Copy(writer, fileReader)
	return err
}

// ZipLabels bundles the label files into zipFile, flat, in the given order.
func ZipLabels(labelFiles []string, zipFile string) error {
	out, err := os.Create(zipFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", zipFile, err)
	}
	defer out.Close()

	archive := zip.NewWriter(out)
	for _, filePath := range labelFiles {
		if err := addFileToZip(archive, filePath, filepath.Base(filePath)); err != nil {
			archive.Close()
			return fmt.Errorf("failed to add %s: %w", filePath, err)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", zipFile, err)
	}

	return nil
}
