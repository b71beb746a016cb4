package media

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Category is the closed classification of an ingested item.
type Category string

const (
	CategoryText  Category = "text"
	CategoryImage Category = "image"
	CategoryAudio Category = "audio"
	CategoryVideo Category = "video"
	CategoryOther Category = "other"
)

var categories = []Category{CategoryText, CategoryImage, CategoryAudio, CategoryVideo, CategoryOther}

type rule struct {
	category   Category
	mimePrefix string
	extensions map[string]struct{}
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{CategoryText, "text/", set(".txt", ".md", ".pdf", ".docx", ".pptx")},
	{CategoryImage, "image/", set(".png", ".jpg", ".jpeg", ".gif", ".webp")},
	{CategoryAudio, "audio/", set(".mp3", ".wav", ".ogg")},
	{CategoryVideo, "video/", set(".mp4", ".webm", ".mov")},
}

// Classify maps a declared MIME type and a file name to a Category. The MIME
// prefix or the extension is enough for a rule to match. It never fails:
// anything unrecognized is CategoryOther.
func Classify(mimeType, name string) Category {
	ext := strings.ToLower(filepath.Ext(name))

	for _, r := range rules {
		if strings.HasPrefix(mimeType, r.mimePrefix) {
			return r.category
		}
		if _, ok := r.extensions[ext]; ok {
			return r.category
		}
	}

	return CategoryOther
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory returns the category named by s, or CategoryOther when s is
// not a known category.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

func (c Category) String() string {
	return string(c)
}

func set(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

var videoHosts = map[string]struct{}{
	"youtube.com":     {},
	"www.youtube.com": {},
	"m.youtube.com":   {},
	"youtu.be":        {},
	"vimeo.com":       {},
}

// ClassifyLink categorizes a submitted URL. Known video hosts are video;
// anything else is classified by the extension of its path.
func ClassifyLink(link string) Category {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return CategoryOther
	}
	if _, ok := videoHosts[strings.ToLower(u.Hostname())]; ok {
		return CategoryVideo
	}
	return Classify("", u.Path)
}
