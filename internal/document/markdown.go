package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser extracts plain text from markdown files.
type MarkdownParser struct{}

// NewMarkdownParser creates a markdown parser.
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// Parse extracts the text content of a markdown file.
func (p *MarkdownParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open markdown file: %w", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader extracts text from markdown content. The markdown is
// rendered to HTML and the tags stripped, which flattens formatting
// while keeping the reading order.
func (p *MarkdownParser) ParseReader(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown content: %w", err)
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(content)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	htmlContent := markdown.Render(doc, renderer)

	return extractTextFromHTML(string(htmlContent)), nil
}

// extractTextFromHTML strips tags from rendered HTML. Block-level tags
// become newlines so paragraphs stay separated.
func extractTextFromHTML(htmlText string) string {
	replacements := []struct {
		old string
		new string
	}{
		{"<br>", "\n"}, {"<br/>", "\n"}, {"<br />", "\n"},
		{"<p>", ""}, {"</p>", "\n\n"},
		{"<li>", "- "}, {"</li>", "\n"},
		{"<ul>", "\n"}, {"</ul>", "\n"},
		{"<ol>", "\n"}, {"</ol>", "\n"},
	}
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		replacements = append(replacements,
			struct{ old, new string }{"<" + tag + ">", "\n\n"},
			struct{ old, new string }{"</" + tag + ">", "\n\n"})
	}

	result := htmlText
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.old, r.new)
	}

	// Drop any remaining tags.
	for {
		start := strings.Index(result, "<")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], ">")
		if end == -1 {
			break
		}
		result = result[:start] + " " + result[start+end+1:]
	}

	return normalizeWhitespace(result)
}

func normalizeWhitespace(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}
