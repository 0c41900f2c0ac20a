// Package markup implements the article-to-image decomposition pipeline:
// extracting LLM-marked illustration blocks, substituting them with numbered
// placeholders, and reinserting generated image references.
package markup

import (
	"fmt"
	"strings"
)

const (
	// OpenMarker and CloseMarker delimit an illustration candidate span.
	// The LLM inserts these during the image-text marking stage.
	OpenMarker  = "【【【"
	CloseMarker = "】】】"

	// summaryLines is how many trailing lines of the text preceding a
	// marked span are kept as its summary.
	summaryLines = 3

	// placeholderFormat renders the 1-indexed position marker substituted
	// for a marked block. The token must not occur in natural article text.
	placeholderFormat = "[IMAGE_PLACEHOLDER_%d]"
)

// Block is one marked illustration candidate: the exact span content and the
// short summary the LLM wrote immediately before it.
type Block struct {
	Summary string
	Content string
}

// Extract scans text for delimited spans and returns them in left-to-right
// order. An opening marker without a matching close yields no block; the
// remainder of the text is discarded, never partially matched. Extraction is
// a pure scan with no state across calls.
func Extract(text string) []Block {
	var blocks []Block
	cursor := 0

	for {
		open := strings.Index(text[cursor:], OpenMarker)
		if open < 0 {
			break
		}
		open += cursor

		contentStart := open + len(OpenMarker)
		closeIdx := strings.Index(text[contentStart:], CloseMarker)
		if closeIdx < 0 {
			// Unterminated span: discard everything from the marker on.
			break
		}
		closeIdx += contentStart

		blocks = append(blocks, Block{
			Summary: trailingLines(text[cursor:open], summaryLines),
			Content: strings.TrimSpace(text[contentStart:closeIdx]),
		})

		cursor = closeIdx + len(CloseMarker)
	}

	return blocks
}

// Contents returns just the content strings of blocks, in order.
func Contents(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Content
	}
	return out
}

// trailingLines returns the last n lines of s, trimmed of surrounding
// whitespace.
func trailingLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Placeholder returns the placeholder token for the 1-indexed block position.
func Placeholder(n int) string {
	return fmt.Sprintf(placeholderFormat, n)
}

// SubstituteResult reports the outcome of a skeleton substitution.
type SubstituteResult struct {
	Skeleton string
	Matched  int
	Skipped  int
}

// Substitute replaces each block content with its numbered placeholder,
// producing the article skeleton. Contents are searched in extraction order
// from a moving cursor, so duplicate block text matches successive
// occurrences rather than the same position twice. A content string that no
// longer occurs verbatim in the document (text drift between the marking
// call and the original) is counted as skipped; its placeholder number is
// consumed, not shifted, because numbering is tied to scan order and must
// line up with the image prompts generated from the same scan.
// All non-substituted text is preserved byte-for-byte.
func Substitute(doc string, contents []string) SubstituteResult {
	var b strings.Builder
	res := SubstituteResult{}
	cursor := 0

	for i, content := range contents {
		if content == "" {
			res.Skipped++
			continue
		}
		idx := strings.Index(doc[cursor:], content)
		if idx < 0 {
			res.Skipped++
			continue
		}
		idx += cursor

		b.WriteString(doc[cursor:idx])
		b.WriteString(Placeholder(i + 1))
		cursor = idx + len(content)
		res.Matched++
	}

	b.WriteString(doc[cursor:])
	res.Skeleton = b.String()
	return res
}

// Reinsert replaces each numbered placeholder in the skeleton with a rendered
// markdown image reference, pairing refs[i] with placeholder i+1. Placeholders
// beyond the supplied refs are left untouched; extra refs are unused. The
// operation is idempotent: once a placeholder is gone, re-running with the
// same arguments is a no-op.
func Reinsert(skeleton string, refs []string) string {
	doc := skeleton
	for i, ref := range refs {
		doc = strings.Replace(doc, Placeholder(i+1), fmt.Sprintf("![配图%d](%s)", i+1, ref), 1)
	}
	return doc
}
