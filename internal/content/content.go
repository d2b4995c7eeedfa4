package content

import (
	"embed"
	"sort"
	"strings"
)

//go:embed pages/*.md
var pagesFS embed.FS

// Page is a static legal/support/company document rendered from embedded
// text.
type Page struct {
	Slug  string
	Title string
	Body  string
}

// Get loads the embedded page for slug. The first markdown heading is the
// title, the rest is the body.
func Get(slug string) (*Page, bool) {
	raw, err := pagesFS.ReadFile("pages/" + slug + ".md")
	if err != nil {
		return nil, false
	}

	title, body := split(string(raw))
	return &Page{Slug: slug, Title: title, Body: body}, true
}

// Slugs lists every embedded page, sorted.
func Slugs() []string {
	entries, err := pagesFS.ReadDir("pages")
	if err != nil {
		return nil
	}

	var slugs []string
	for _, e := range entries {
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(slugs)
	return slugs
}

func split(raw string) (title, body string) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "# ") {
		if i := strings.IndexByte(raw, '\n'); i > 0 {
			return strings.TrimSpace(raw[2:i]), strings.TrimSpace(raw[i+1:])
		}
		return strings.TrimSpace(raw[2:]), ""
	}
	return "", raw
}
