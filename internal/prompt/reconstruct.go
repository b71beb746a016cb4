package prompt

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bowerhall/mediaqa/internal/interaction"
)

// ErrMalformedPrompt reports that a prompt carried no recognizable context
// block or file line. It is a warning: the interaction is still recorded.
var ErrMalformedPrompt = errors.New("prompt has no recognizable file context")

var fileLine = regexp.MustCompile(`File: (.*?) \((.*?)\)`)

// Reconstruction is what the proxy can recover from a flattened prompt.
type Reconstruction struct {
	File      *interaction.FileSnapshot
	UserQuery string
	Warning   error
}

// Reconstruct parses a prompt produced by Build back into a file snapshot and
// the user query. The result is lossy: only text items get their content
// back (cut at the first "..."), everything else gets a canned description.
// Without markers the whole prompt is the query and there is no snapshot.
func Reconstruct(p string) Reconstruction {
	block, query, ok := splitPrompt(p)
	if !ok {
		return Reconstruction{UserQuery: p, Warning: ErrMalformedPrompt}
	}

	rec := Reconstruction{UserQuery: query}

	m := fileLine.FindStringSubmatch(block)
	if m == nil {
		rec.Warning = ErrMalformedPrompt
		return rec
	}

	snap := &interaction.FileSnapshot{
		Name:     m[1],
		Category: m[2],
	}
	snap.Content = describe(snap.Category, block)
	rec.File = snap

	return rec
}

// splitPrompt finds the context block between the two markers. Both parts
// must be non-empty.
func splitPrompt(p string) (block, query string, ok bool) {
	start := strings.Index(p, contextMarker)
	if start < 0 {
		return "", "", false
	}

	rest := p[start+len(contextMarker):]
	end := strings.Index(rest, queryMarker)
	if end < 0 {
		return "", "", false
	}

	block = rest[:end]
	query = rest[end+len(queryMarker):]
	if block == "" || query == "" {
		return "", "", false
	}

	return block, query, true
}

func describe(category, block string) string {
	const contentLabel = "Content:"

	switch {
	case category == "text" && strings.Contains(block, contentLabel):
		from := strings.Index(block, contentLabel) + len(contentLabel)
		body := block[from:]
		if end := strings.Index(body, Ellipsis); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	case category == "image":
		return "Image file uploaded (visual content available)"
	case category == "audio":
		return "Audio file uploaded (auditory content available)"
	case category == "video":
		return "Video file uploaded (visual and auditory content available)"
	default:
		return category + " file uploaded"
	}
}
