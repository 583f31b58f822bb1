package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PageBreak is the marker the PDF parser inserts between pages of
// extracted text. Chunk boundaries can align with it so that a chunk
// rarely straddles two pages.
const PageBreak = "\f"

// Chunk is a bounded, page-tagged substring of a document's extracted
// text. Content is always the exact slice fullText[StartIndex:EndIndex].
type Chunk struct {
	Content    string // raw text of the chunk
	PageNumber int    // 1-based page the chunk starts on
	StartIndex int    // byte offset of Content in the source text
	EndIndex   int    // byte offset one past the end of Content
	ChunkIndex int    // position in the chunk sequence, ascending
	DocumentID string // owning document, set by the caller
}

// Config controls how text is split into chunks.
type Config struct {
	MaxChunkSize       int  // maximum chunk length in bytes
	OverlapSize        int  // bytes shared between consecutive chunks
	PreservePageBreaks bool // prefer page-break boundaries when close enough
}

// DefaultConfig returns the chunking configuration used for uploaded PDFs.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:       1000,
		OverlapSize:        200,
		PreservePageBreaks: true,
	}
}

// Chunker splits extracted document text into overlapping, page-aware
// chunks. It is a pure function of its input: no I/O, deterministic.
type Chunker struct {
	config Config
}

// New creates a chunker with the given configuration. Nonsensical values
// are clamped: MaxChunkSize must be positive, OverlapSize must leave room
// for the chunk to advance.
func New(config Config) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultConfig().MaxChunkSize
	}
	if config.OverlapSize < 0 {
		config.OverlapSize = 0
	}
	if config.OverlapSize >= config.MaxChunkSize {
		config.OverlapSize = config.MaxChunkSize / 2
	}
	return &Chunker{config: config}
}

// Chunk splits fullText into chunks of at most MaxChunkSize bytes,
// consecutive chunks overlapping by OverlapSize bytes. The chunk start is
// never moved, only the end boundary is snapped, so the overlap between
// chunk i and chunk i+1 is exactly the shared slice of the source text.
func (c *Chunker) Chunk(fullText string) []Chunk {
	if fullText == "" {
		return []Chunk{}
	}

	pages := pageOffsets(fullText)

	if len(fullText) <= c.config.MaxChunkSize {
		return []Chunk{{
			Content:    fullText,
			PageNumber: pageForOffset(pages, 0),
			StartIndex: 0,
			EndIndex:   len(fullText),
			ChunkIndex: 0,
		}}
	}

	var chunks []Chunk
	start := 0
	for start < len(fullText) {
		end := start + c.config.MaxChunkSize
		if end >= len(fullText) {
			end = len(fullText)
		} else {
			end = c.snapEnd(fullText, start, end)
		}

		chunks = append(chunks, Chunk{
			Content:    fullText[start:end],
			PageNumber: pageForOffset(pages, start),
			StartIndex: start,
			EndIndex:   end,
			ChunkIndex: len(chunks),
		})

		if end == len(fullText) {
			break
		}

		next := end - c.config.OverlapSize
		if next <= start {
			// Overlap would stall the scan; advance without it.
			next = end
		}
		start = next
	}

	return chunks
}

// snapEnd picks the actual end boundary for a chunk whose naive end would
// fall at maxEnd. A page break in the tail of the window wins when
// PreservePageBreaks is set and using it keeps the chunk within ~20% of
// the configured size; otherwise the boundary backs up to whitespace so
// words are not cut.
func (c *Chunker) snapEnd(text string, start, maxEnd int) int {
	if c.config.PreservePageBreaks {
		// Accept a page break no earlier than 80% of the window.
		floor := start + c.config.MaxChunkSize*4/5
		if idx := strings.LastIndex(text[start:maxEnd], PageBreak); idx >= 0 {
			breakAt := start + idx + 1 // keep the marker with the leading page
			if breakAt >= floor {
				return breakAt
			}
		}
	}

	// Back up rune by rune to the nearest whitespace so the chunk ends
	// on a word boundary. If the window contains a single unbroken
	// token, cut at maxEnd anyway, aligned back to a rune boundary so
	// the slice stays valid UTF-8.
	end := maxEnd
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if end == start {
		cut := maxEnd
		for cut > start && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == start {
			// The window is smaller than the rune at start; keep the
			// rune whole and let the chunk run long by a few bytes.
			_, size := utf8.DecodeRuneInString(text[start:])
			return start + size
		}
		return cut
	}
	return end
}

// pageOffsets returns the byte offset at which each page starts. Page 1
// starts at offset 0; page n+1 starts just past the n-th page break.
func pageOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\f' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// pageForOffset returns the 1-based page number containing the offset.
func pageForOffset(pages []int, offset int) int {
	page := 1
	for i, p := range pages {
		if offset >= p {
			page = i + 1
		} else {
			break
		}
	}
	return page
}

// PageCount reports how many pages the extracted text spans.
func PageCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, PageBreak) + 1
}
