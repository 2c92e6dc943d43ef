package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/go-fitz"

	app_errors "github.com/docchat/cli/internal/errors"
)

// DefaultExtensions are the file types the backend accepts.
var DefaultExtensions = []string{".pdf", ".txt"}

// File is a local file that passed inspection and can be uploaded.
type File struct {
	Path  string
	Name  string
	Size  int64
	Pages int // PDFs only
}

// Describe renders the file for display, e.g. "report.pdf (1.2 MB, 12 pages)".
func (f File) Describe() string {
	size := humanize.Bytes(uint64(f.Size))
	switch {
	case f.Pages == 1:
		return fmt.Sprintf("%s (%s, 1 page)", f.Name, size)
	case f.Pages > 1:
		return fmt.Sprintf("%s (%s, %d pages)", f.Name, size, f.Pages)
	default:
		return fmt.Sprintf("%s (%s)", f.Name, size)
	}
}

// Inspect checks that path is a non-empty regular file with one of the
// allowed extensions. PDFs are opened to make sure they are readable.
func Inspect(path string, allowed []string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, app_errors.Validationf("Please select a file first.")
	}
	if len(allowed) == 0 {
		allowed = DefaultExtensions
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !hasExtension(allowed, ext) {
		return nil, app_errors.Validationf("only %s files are allowed.", describeExtensions(allowed))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, app_errors.Validationf("cannot read %s: %v", filepath.Base(path), err)
	}
	if !info.Mode().IsRegular() {
		return nil, app_errors.Validationf("%s is not a regular file.", filepath.Base(path))
	}
	if info.Size() == 0 {
		return nil, app_errors.Validationf("%s is empty.", filepath.Base(path))
	}

	f := &File{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
	}
	if ext == ".pdf" {
		pages, err := countPages(path)
		if err != nil {
			return nil, app_errors.Validationf("%s is not a readable PDF: %v", f.Name, err)
		}
		f.Pages = pages
	}
	return f, nil
}

// pdfHeaderWindow is how far into a file readers look for the "%PDF-"
// marker.
const pdfHeaderWindow = 1024

// countPages opens path with MuPDF. Files without a PDF header are rejected
// before MuPDF sees them, since it reports recognition failures on stderr,
// which corrupts the TUI screen.
func countPages(path string) (int, error) {
	if err := checkPDFHeader(path); err != nil {
		return 0, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

func checkPDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if !bytes.Contains(head[:n], []byte("%PDF-")) {
		return errors.New("missing %PDF- header")
	}
	return nil
}

func hasExtension(allowed []string, ext string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// describeExtensions turns [".pdf", ".txt"] into "PDF and txt".
func describeExtensions(allowed []string) string {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		name := strings.TrimPrefix(strings.ToLower(a), ".")
		if name == "pdf" {
			name = "PDF"
		}
		names[i] = name
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
