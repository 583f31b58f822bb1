package document

import (
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, content, ext string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "readly-test-*"+ext)
	require.NoError(t, err, "failed to create temp file")

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err, "failed to write temp file")
	require.NoError(t, tmpFile.Close())

	return tmpFile.Name()
}

func createTempPDF(t *testing.T, pages ...string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "readly-test-*.pdf")
	require.NoError(t, err, "failed to create temp PDF file")
	defer tmpFile.Close()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for _, page := range pages {
		pdf.AddPage()
		pdf.MultiCell(0, 10, page, "", "", false)
	}
	require.NoError(t, pdf.Output(tmpFile), "failed to write PDF")

	return tmpFile.Name()
}

func TestPlainTextParser(t *testing.T) {
	content := "Hello, this is a plain text file.\nSecond line."
	file := createTempFile(t, content, ".txt")

	parser := NewPlainTextParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestMarkdownParser(t *testing.T) {
	content := "# Title\n\nThis is a **markdown** file.\n\n- Item 1\n- Item 2"
	file := createTempFile(t, content, ".md")

	parser := NewMarkdownParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, text, "markdown file")
	assert.Contains(t, text, "Item 1")
	assert.NotContains(t, text, "<p>", "HTML tags must be stripped")
	assert.NotContains(t, text, "**", "markdown syntax must be stripped")
}

func TestPDFParser(t *testing.T) {
	file := createTempPDF(t, "This is a PDF test.\nSecond line.")

	parser := NewPDFParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, text, "PDF test")
}

func TestPDFParserPageBreaks(t *testing.T) {
	file := createTempPDF(t, "First page body.", "Second page body.")

	parser := NewPDFParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)

	pages := strings.Split(text, PageBreak)
	require.Len(t, pages, 2, "two pages should yield one page break")
	assert.Contains(t, pages[0], "First page")
	assert.Contains(t, pages[1], "Second page")
}

func TestParserFactory(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"plaintext", createTempFile(t, "plain text", ".txt"), "plain text"},
		{"markdown", createTempFile(t, "# Markdown", ".md"), "Markdown"},
		{"pdf", createTempPDF(t, "PDF content"), "PDF content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, err := ParserFactory(tt.file)
			require.NoError(t, err)

			text, err := parser.Parse(tt.file)
			require.NoError(t, err)
			assert.Contains(t, text, tt.want)
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ParserFactory("document.xlsx")
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
}

func TestParseReader(t *testing.T) {
	parser := NewPlainTextParser()
	text, err := parser.ParseReader(strings.NewReader("from a reader"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "from a reader", text)
}
