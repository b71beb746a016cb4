package prompt

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bowerhall/mediaqa/internal/media"
)

// MaxContentChars caps the text emitted per item.
const MaxContentChars = 2000

// Ellipsis follows every Content line, whether or not the text was cut.
const Ellipsis = "..."

// BlockSeparator joins per-item blocks.
const BlockSeparator = "\n---\n"

// Assemble renders items, in order, as one delimited context block.
func Assemble(items []media.Item) string {
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, renderItem(item))
	}
	return strings.Join(blocks, BlockSeparator)
}

func renderItem(item media.Item) string {
	var b strings.Builder
	b.WriteString("File: " + item.Name + " (" + item.Category.String() + ")\n")

	switch {
	case item.ExtractedText != "":
		writeContent(&b, item.ExtractedText)
		writeEnrichment(&b, item)
	case item.Category == media.CategoryText && item.HasText():
		writeContent(&b, item.Content)
	case item.Category == media.CategoryImage:
		b.WriteString("Image file uploaded (visual content available)\n")
	case item.Category == media.CategoryVideo:
		b.WriteString("YouTube Video Link: " + item.Content + " (visual and auditory content available)\n")
		writeEnrichment(&b, item)
	case item.Category == media.CategoryAudio:
		b.WriteString("Audio file uploaded (auditory content available)\n")
		writeEnrichment(&b, item)
	case item.Kind == media.ContentURL || media.IsLink(item.Content):
		b.WriteString("File Link: " + item.Content + " (content available via link)\n")
	default:
		b.WriteString(item.Category.String() + " file uploaded\n")
	}

	return b.String()
}

func writeContent(b *strings.Builder, text string) {
	b.WriteString("Content: " + Truncate(text, MaxContentChars) + Ellipsis + "\n")
}

func writeEnrichment(b *strings.Builder, item media.Item) {
	if summary := item.Summary(); summary != "" {
		b.WriteString("Summary: " + summary + "\n")
	}
	if sentiment := item.Sentiment(); sentiment != nil {
		if encoded, err := encodeJSON(sentiment); err == nil {
			b.WriteString("Sentiment: " + encoded + "\n")
		}
	}
}

// Truncate returns the first max characters of s. Characters are runes, so a
// cap counted in UTF-16 units would cut astral-plane text sooner.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// encodeJSON serializes v compactly without HTML escaping, matching how a
// browser would stringify the same value.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
