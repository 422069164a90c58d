package site

import (
	"fmt"
	"path"
	"strings"
)

// Collision records two documents contesting one output path. The page from
// Second was re-slugged; First kept the contested path.
type Collision struct {
	Path   string
	First  string
	Second string
}

// assignOutputPaths derives each page's output path and permalink. Pages
// are visited in source-path order, so collisions resolve the same way on
// every pass: the first claimant keeps the bare slug, later ones get -2,
// -3 and so on. A silent overwrite can never happen.
func assignOutputPaths(pages []Page) []Collision {
	taken := make(map[string]string, len(pages))
	var collisions []Collision

	for i := range pages {
		candidate := outputPathFor(&pages[i], pages[i].Slug)

		if first, exists := taken[candidate]; exists {
			collisions = append(collisions, Collision{
				Path:   candidate,
				First:  first,
				Second: pages[i].SourcePath,
			})
			for n := 2; ; n++ {
				suffixed := outputPathFor(&pages[i], fmt.Sprintf("%s-%d", pages[i].Slug, n))
				if _, dup := taken[suffixed]; !dup {
					candidate = suffixed
					break
				}
			}
		}

		taken[candidate] = pages[i].SourcePath
		pages[i].OutputPath = candidate
		pages[i].Permalink = PermalinkFor(candidate)
	}
	return collisions
}

// outputPathFor maps a page to a pretty URL path. Regular documents become
// <dir>/<slug>/index.html so every page is served from a directory; index
// documents claim their own directory's index.html.
func outputPathFor(p *Page, pageSlug string) string {
	dir := path.Dir(p.SourcePath)
	if dir == "." {
		dir = ""
	}

	if p.IsIndex {
		return path.Join(dir, "index.html")
	}
	return path.Join(dir, pageSlug, "index.html")
}

// PermalinkFor converts an output path to the absolute site path templates
// link with.
func PermalinkFor(outputPath string) string {
	trimmed := strings.TrimSuffix(outputPath, "index.html")
	return "/" + trimmed
}
