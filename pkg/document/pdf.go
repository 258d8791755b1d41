package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotPDF is returned for files that are not PDF documents
	ErrNotPDF = errors.New("file is not a PDF document")
	// ErrUnrendered is returned when a PDF is given where page bitmaps are
	// expected; pages must come from the document renderer
	ErrUnrendered = errors.New("pdf must be rendered to page images first")
)

const pdfMimeType = "application/pdf"

// CheckPDF accepts only content sniffed as application/pdf. The name, if
// given, must carry a .pdf extension.
func CheckPDF(name string, header []byte) error {
	if name != "" && !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, name)
	}
	header = bytes.TrimLeft(header, "\x00\t\r\n ")
	if ct := http.DetectContentType(header); ct != pdfMimeType {
		return fmt.Errorf("%w: detected %s", ErrNotPDF, ct)
	}
	return nil
}

// CheckFile runs CheckPDF on the head of the file at path
func CheckFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return CheckPDF(path, header[:n])
}
