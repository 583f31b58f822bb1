package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractBasicMarker covers the canonical single-marker case.
func TestExtractBasicMarker(t *testing.T) {
	res := Extract("The study found gains [cite:5:Key findings] after launch.")

	assert.Equal(t, "The study found gains  after launch.", res.CleanedText)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, 5, res.Citations[0].PageNumber)
	assert.Equal(t, "Key findings", res.Citations[0].Preview)
	assert.Equal(t, 21, res.Citations[0].Position)
}

// TestExtractMultipleMarkers verifies citations come back in source order.
func TestExtractMultipleMarkers(t *testing.T) {
	text := "First point [cite:2:intro]. Second point [cite:10:details]. Done."
	res := Extract(text)

	assert.Equal(t, "First point . Second point . Done.", res.CleanedText)
	require.Len(t, res.Citations, 2)
	assert.Equal(t, 2, res.Citations[0].PageNumber)
	assert.Equal(t, "intro", res.Citations[0].Preview)
	assert.Equal(t, 10, res.Citations[1].PageNumber)
	assert.Equal(t, "details", res.Citations[1].Preview)
	assert.Less(t, res.Citations[0].Position, res.Citations[1].Position)
}

// TestMalformedMarkers verifies bad markers are stripped without records.
func TestMalformedMarkers(t *testing.T) {
	t.Run("non-numeric page", func(t *testing.T) {
		res := Extract("Claim [cite:abc:nope] here.")
		assert.Equal(t, "Claim  here.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("page range rejected", func(t *testing.T) {
		res := Extract("Claim [cite:5-7:span] here.")
		assert.Equal(t, "Claim  here.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("zero page", func(t *testing.T) {
		res := Extract("Claim [cite:0:zero] here.")
		assert.Equal(t, "Claim  here.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("negative page", func(t *testing.T) {
		res := Extract("Claim [cite:-3:neg] here.")
		assert.Equal(t, "Claim  here.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("missing preview separator", func(t *testing.T) {
		res := Extract("Claim [cite:5] here.")
		assert.Equal(t, "Claim  here.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("unterminated marker kept verbatim", func(t *testing.T) {
		res := Extract("Claim [cite:5:never closed")
		assert.Equal(t, "Claim [cite:5:never closed", res.CleanedText)
		assert.Empty(t, res.Citations)
	})
}

// TestCodeAndMathAreVerbatim verifies bracketed text inside code fences,
// inline code and math spans is never parsed as a citation.
func TestCodeAndMathAreVerbatim(t *testing.T) {
	t.Run("fenced code block", func(t *testing.T) {
		text := "Run this:\n```\nx = arr[cite:1:fake]\n```\nand see [cite:3:real]."
		res := Extract(text)

		assert.Contains(t, res.CleanedText, "arr[cite:1:fake]")
		require.Len(t, res.Citations, 1)
		assert.Equal(t, 3, res.Citations[0].PageNumber)
	})

	t.Run("inline code", func(t *testing.T) {
		res := Extract("Use `m[cite:9:key]` to index maps.")
		assert.Equal(t, "Use `m[cite:9:key]` to index maps.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("inline math", func(t *testing.T) {
		res := Extract("The bound $f[cite:2:n]$ holds [cite:4:proof].")
		assert.Contains(t, res.CleanedText, "$f[cite:2:n]$")
		require.Len(t, res.Citations, 1)
		assert.Equal(t, 4, res.Citations[0].PageNumber)
	})

	t.Run("display math", func(t *testing.T) {
		res := Extract("Consider $$a[cite:1:x] + b$$ as shown.")
		assert.Equal(t, "Consider $$a[cite:1:x] + b$$ as shown.", res.CleanedText)
		assert.Empty(t, res.Citations)
	})

	t.Run("dollar amount is not math", func(t *testing.T) {
		res := Extract("It costs $5 per seat [cite:7:pricing].")
		assert.Equal(t, "It costs $5 per seat .", res.CleanedText)
		require.Len(t, res.Citations, 1)
		assert.Equal(t, 7, res.Citations[0].PageNumber)
	})
}

// TestIdempotence verifies re-running extraction on cleaned text is a
// no-op with zero citations.
func TestIdempotence(t *testing.T) {
	inputs := []string{
		"Plain text with no markers at all.",
		"One marker [cite:3:here] and done.",
		"Mixed `code[cite:1:a]` and [cite:2:b] and $x[cite:3:c]$.",
		"Malformed [cite:bad:page] marker.",
	}
	for _, in := range inputs {
		first := Extract(in)
		second := Extract(first.CleanedText)
		assert.Equal(t, first.CleanedText, second.CleanedText)
		assert.Empty(t, second.Citations, "cleaned text must contain no markers: %q", in)
	}
}

// TestPositionAnchoring verifies positions point at the end of the
// preceding prose in the cleaned text.
func TestPositionAnchoring(t *testing.T) {
	res := Extract("Alpha [cite:1:a] beta [cite:2:b].")

	require.Len(t, res.Citations, 2)
	assert.Equal(t, len("Alpha"), res.Citations[0].Position)
	assert.Equal(t, len("Alpha  beta"), res.Citations[1].Position)
}

func TestEmptyInput(t *testing.T) {
	res := Extract("")
	assert.Equal(t, "", res.CleanedText)
	assert.Empty(t, res.Citations)
}

// TestPreviewVerbatim verifies the preview keeps its exact text up to the
// closing bracket, including colons.
func TestPreviewVerbatim(t *testing.T) {
	res := Extract("See [cite:12:Table 3: revenue by region] for detail.")

	require.Len(t, res.Citations, 1)
	assert.Equal(t, 12, res.Citations[0].PageNumber)
	assert.Equal(t, "Table 3: revenue by region", res.Citations[0].Preview)
}
