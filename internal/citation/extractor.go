// Package citation parses inline citation markers out of generated
// answer text. The LLM is prompted to tag claims with markers of the form
// [cite:<page>:<preview>]; this package strips them from the prose and
// turns them into structured records a UI can render as reference chips.
package citation

import (
	"strconv"
	"strings"
)

const markerPrefix = "[cite:"

// Citation is one resolved marker: the page it points at, the preview
// snippet the model quoted, and where in the cleaned text the citation is
// anchored.
type Citation struct {
	PageNumber int    `json:"page_number"`
	Preview    string `json:"preview"`
	Position   int    `json:"position"`
}

// Result holds the marker-free text and the citations found in it.
type Result struct {
	CleanedText string
	Citations   []Citation
}

// Extract scans responseText for citation markers, removes every
// recognized marker and returns the cleaned text plus the citations in
// source order. Malformed markers (non-numeric page, page ranges, page 0)
// are stripped without emitting a record. Code fences, inline code and
// TeX math spans are copied through untouched, so bracketed text inside
// them is never mistaken for a citation.
//
// Extraction is idempotent: running it on CleanedText finds nothing.
func Extract(responseText string) Result {
	var out strings.Builder
	out.Grow(len(responseText))
	var citations []Citation

	i := 0
	for i < len(responseText) {
		// Verbatim regions first: the marker syntax is only recognized
		// in plain prose.
		if n := verbatimSpan(responseText[i:]); n > 0 {
			out.WriteString(responseText[i : i+n])
			i += n
			continue
		}

		if !strings.HasPrefix(responseText[i:], markerPrefix) {
			out.WriteByte(responseText[i])
			i++
			continue
		}

		end := strings.IndexByte(responseText[i:], ']')
		if end < 0 {
			// Unterminated marker: keep the rest as-is.
			out.WriteString(responseText[i:])
			break
		}
		body := responseText[i+len(markerPrefix) : i+end]
		i += end + 1

		page, preview, ok := parseMarkerBody(body)
		if !ok {
			continue // malformed: marker removed, no record
		}

		// Anchor the chip to the end of the preceding prose rather than
		// to whatever whitespace separated it from the marker.
		pos := len(strings.TrimRight(out.String(), " \t"))
		citations = append(citations, Citation{
			PageNumber: page,
			Preview:    preview,
			Position:   pos,
		})
	}

	return Result{CleanedText: out.String(), Citations: citations}
}

// parseMarkerBody splits "<page>:<preview>" and validates the page. The
// page must be a bare positive integer: ranges like "5-7" are rejected,
// as is anything non-numeric.
func parseMarkerBody(body string) (int, string, bool) {
	sep := strings.IndexByte(body, ':')
	if sep < 0 {
		return 0, "", false
	}
	pageStr := strings.TrimSpace(body[:sep])
	preview := body[sep+1:]

	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		return 0, "", false
	}
	return page, preview, true
}

// verbatimSpan reports the length of a code or math span starting at the
// beginning of s, or 0 if s does not start one. Unterminated spans run to
// the end of the text, matching how markdown renderers treat them.
func verbatimSpan(s string) int {
	for _, delim := range []string{"```", "$$", "`"} {
		if !strings.HasPrefix(s, delim) {
			continue
		}
		rest := s[len(delim):]
		end := strings.Index(rest, delim)
		if end < 0 {
			return len(s)
		}
		return len(delim) + end + len(delim)
	}

	// Inline math: a lone $ only opens a span when it closes on the same
	// line, so a dollar amount in prose is not treated as math.
	if strings.HasPrefix(s, "$") {
		rest := s[1:]
		end := strings.IndexByte(rest, '$')
		if end >= 0 && !strings.ContainsRune(rest[:end], '\n') {
			return 1 + end + 1
		}
	}
	return 0
}
