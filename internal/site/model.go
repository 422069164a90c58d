// Package site assembles loaded documents into the in-memory model a build
// pass renders from. All derived structures are pure functions of the
// document set, so identical input trees model identically regardless of
// discovery order.
package site

import (
	"sort"

	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/content"
	"github.com/elyseproject/elyse/internal/slug"
)

// Page is one arena entry: a document plus its derived output location and
// chain adjacency. Adjacency is stored as indices into Site.Pages, never as
// pointers between pages.
type Page struct {
	content.Document

	OutputPath string // relative path inside the output tree
	Permalink  string // absolute site path, always "/" prefixed

	NextIndex int // newer page in the same section, -1 when none
	PrevIndex int // older page in the same section, -1 when none
}

// Site is the in-memory representation of the whole site for one build
// pass. It is discarded when the pass completes.
type Site struct {
	Title    string
	BaseURL  string
	Author   string
	Params   map[string]any
	PageSize int

	// Pages is the arena, ordered by source path.
	Pages []Page

	// ByDate holds indices of listable pages, newest first. Ties are
	// broken by source path, so the order is total.
	ByDate []int

	// Sections maps a section name to its ByDate-ordered page indices.
	Sections map[string][]int

	// Tags maps a tag slug to its ByDate-ordered page indices.
	Tags map[string][]int

	// TagNames maps a tag slug to the display name it first appeared as.
	TagNames map[string]string

	// Collisions lists output paths that were contested and re-slugged.
	Collisions []Collision
}

// Build assembles the model from loaded documents. The input order does not
// matter; documents are re-sorted by source path before any derivation.
func Build(docs []content.Document, cfg *config.Config) *Site {
	s := &Site{
		Title:    cfg.Site.Title,
		BaseURL:  cfg.Site.BaseURL,
		Author:   cfg.Site.Author,
		Params:   cfg.Site.Params,
		PageSize: cfg.Site.PageSize,
		Sections: make(map[string][]int),
		Tags:     make(map[string][]int),
		TagNames: make(map[string]string),
	}

	s.Pages = make([]Page, len(docs))
	for i, doc := range docs {
		s.Pages[i] = Page{Document: doc, NextIndex: -1, PrevIndex: -1}
	}
	sort.Slice(s.Pages, func(i, j int) bool {
		return s.Pages[i].SourcePath < s.Pages[j].SourcePath
	})

	s.Collisions = assignOutputPaths(s.Pages)

	s.deriveCollections()
	s.deriveChains()

	return s
}

// deriveCollections computes the chronological ordering and the section and
// tag indexes. Index pages render listings, so they are not listed
// themselves.
func (s *Site) deriveCollections() {
	for i := range s.Pages {
		if !s.Pages[i].IsIndex {
			s.ByDate = append(s.ByDate, i)
		}
	}
	sort.Slice(s.ByDate, func(a, b int) bool {
		pa, pb := &s.Pages[s.ByDate[a]], &s.Pages[s.ByDate[b]]
		if !pa.Date.Equal(pb.Date) {
			return pa.Date.After(pb.Date)
		}
		return pa.SourcePath < pb.SourcePath
	})

	for _, idx := range s.ByDate {
		page := &s.Pages[idx]
		s.Sections[page.Section] = append(s.Sections[page.Section], idx)

		for _, tag := range page.Tags {
			tagSlug := slug.Make(tag)
			if tagSlug == "" {
				continue
			}
			if _, seen := s.TagNames[tagSlug]; !seen {
				s.TagNames[tagSlug] = tag
			}
			s.Tags[tagSlug] = append(s.Tags[tagSlug], idx)
		}
	}
}

// deriveChains links each page to its chronological neighbors within its
// section. With lists newest first, next points toward newer pages.
func (s *Site) deriveChains() {
	for _, indices := range s.Sections {
		for pos, idx := range indices {
			if pos > 0 {
				s.Pages[idx].NextIndex = indices[pos-1]
			}
			if pos < len(indices)-1 {
				s.Pages[idx].PrevIndex = indices[pos+1]
			}
		}
	}
}

// Page returns the arena entry at idx, or nil for -1.
func (s *Site) Page(idx int) *Page {
	if idx < 0 || idx >= len(s.Pages) {
		return nil
	}
	return &s.Pages[idx]
}

// AllByDate materializes the chronological ordering.
func (s *Site) AllByDate() []*Page {
	return s.materialize(s.ByDate)
}

// PagesIn materializes a section's ordered pages.
func (s *Site) PagesIn(section string) []*Page {
	return s.materialize(s.Sections[section])
}

// PagesTagged materializes a tag's ordered pages.
func (s *Site) PagesTagged(tagSlug string) []*Page {
	return s.materialize(s.Tags[tagSlug])
}

// SectionNames returns the section names with listable pages, sorted. The
// empty name groups top-level documents.
func (s *Site) SectionNames() []string {
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TagSlugs returns the known tag slugs, sorted.
func (s *Site) TagSlugs() []string {
	slugs := make([]string, 0, len(s.Tags))
	for tagSlug := range s.Tags {
		slugs = append(slugs, tagSlug)
	}
	sort.Strings(slugs)
	return slugs
}

func (s *Site) materialize(indices []int) []*Page {
	pages := make([]*Page, len(indices))
	for i, idx := range indices {
		pages[i] = &s.Pages[idx]
	}
	return pages
}

// Paginate splits ordered indices into fixed-size groups. The final group
// may be short; size values below one yield a single group.
func Paginate(indices []int, size int) [][]int {
	if len(indices) == 0 {
		return nil
	}
	if size < 1 {
		return [][]int{indices}
	}

	groups := make([][]int, 0, (len(indices)+size-1)/size)
	for start := 0; start < len(indices); start += size {
		end := start + size
		if end > len(indices) {
			end = len(indices)
		}
		groups = append(groups, indices[start:end])
	}
	return groups
}
