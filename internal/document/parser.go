package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// PageBreak separates pages in extracted text. Single-page formats
// (markdown, plain text) produce no page breaks and are treated as one
// page downstream.
const PageBreak = "\f"

// Parser extracts plain text from a document file.
type Parser interface {
	// Parse extracts the text content of the file. Multi-page formats
	// separate pages with PageBreak.
	Parse(filePath string) (string, error)

	// ParseReader extracts text from a reader. filename determines the
	// document type.
	ParseReader(r io.Reader, filename string) (string, error)
}

// ContentType is a supported document format.
type ContentType string

const (
	PDF       ContentType = "pdf"
	Markdown  ContentType = "markdown"
	PlainText ContentType = "plaintext"
	Unknown   ContentType = "unknown"
)

// ErrUnsupportedType is returned for file extensions no parser handles.
var ErrUnsupportedType = errors.New("unsupported document type")

// ParserFactory returns the parser for a file based on its extension.
func ParserFactory(filePath string) (Parser, error) {
	switch detectContentType(filePath) {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

func detectContentType(filePath string) ContentType {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
