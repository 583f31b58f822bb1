package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser extracts text from PDF files with pdfcpu.
type PDFParser struct{}

// NewPDFParser creates a PDF parser.
func NewPDFParser() Parser {
	return &PDFParser{}
}

var pageNumberPattern = regexp.MustCompile(`(\d+)`)

// Parse extracts the PDF's text, one segment per page, joined with
// PageBreak so downstream offsets can be mapped back to pages.
func (p *PDFParser) Parse(filePath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "readly_pdf_extract_")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(filePath, tmpDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %w", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text dir: %w", err)
	}

	// pdfcpu writes one txt file per page; order them numerically so
	// page 10 sorts after page 9, not after page 1.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return pageNumberOf(names[i]) < pageNumberOf(names[j])
	})

	pages := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			continue
		}
		pages = append(pages, strings.TrimSpace(string(data)))
	}

	result := strings.Join(pages, PageBreak)
	if strings.TrimSpace(strings.ReplaceAll(result, PageBreak, "")) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return result, nil
}

// ParseReader spools the reader to a temp file; pdfcpu needs random
// access to the PDF.
func (p *PDFParser) ParseReader(r io.Reader, filename string) (string, error) {
	tmpFile, err := os.CreateTemp("", "readly_pdf_*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to spool PDF: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}

	return p.Parse(tmpFile.Name())
}

func pageNumberOf(name string) int {
	match := pageNumberPattern.FindString(name)
	if match == "" {
		return 0
	}
	n, _ := strconv.Atoi(match)
	return n
}
