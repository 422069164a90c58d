package build

import (
	"bytes"
	"path"
	"strconv"

	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/site"
	"github.com/elyseproject/elyse/internal/templates"
	"github.com/elyseproject/elyse/internal/util/sets"
)

// Listing template names, in lookup order. Sites that ship none of these
// simply get no generated listings.
const (
	homeTemplate = "home.html"
	listTemplate = "list.html"
	tagsTemplate = "tags.html"
)

// listingPage is a generated page with no backing document.
type listingPage struct {
	outputPath string
	html       []byte
}

// listItem feeds listing templates one entry per listed page.
type listItem struct {
	Page    *site.Page
	Excerpt string
}

// listData is the template context for generated listing pages.
type listData struct {
	Site    *site.Site
	Title   string
	Section string
	Tag     string // display name when a tag listing
	Items   []listItem
	PageNum int
	Total   int
	PrevURL string
	NextURL string
}

// buildListings assembles the generated home, section and tag listing pages.
// A listing is skipped when its template is absent or when a user document
// already claims the target path (an index.md always wins over a generated
// list).
func (p *pass) buildListings() []error {
	taken := sets.New[string]()
	for i := range p.site.Pages {
		taken.Add(p.site.Pages[i].OutputPath)
	}

	var errs []error
	emit := func(tmpl *templates.Template, base string, data listData, indices []int) {
		groups := site.Paginate(indices, p.site.PageSize)
		data.Total = len(groups)
		for n, group := range groups {
			data.PageNum = n + 1
			data.Items = p.listItems(group)
			data.PrevURL, data.NextURL = neighborURLs(base, n+1, len(groups))

			out := listingPath(base, n+1)
			if taken.Has(out) {
				continue
			}

			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				errs = append(errs, errors.TemplateApplyFailed(out, err))
				continue
			}
			taken.Add(out)
			p.listings = append(p.listings, listingPage{outputPath: out, html: buf.Bytes()})
		}
	}

	if tmpl, ok := lookupFirst(p.resolver, homeTemplate, listTemplate); ok {
		emit(tmpl, "", listData{Site: p.site, Title: p.site.Title}, p.site.ByDate)
	}

	if tmpl, ok := p.resolver.Lookup(listTemplate); ok {
		for _, section := range p.site.SectionNames() {
			if section == "" {
				continue
			}
			emit(tmpl, section, listData{Site: p.site, Title: section, Section: section}, p.site.Sections[section])
		}
	}

	if tmpl, ok := lookupFirst(p.resolver, tagsTemplate, listTemplate); ok {
		for _, slug := range p.site.TagSlugs() {
			name := p.site.TagNames[slug]
			emit(tmpl, path.Join("tags", slug), listData{Site: p.site, Title: name, Tag: name}, p.site.Tags[slug])
		}
	}

	return errs
}

func (p *pass) listItems(indices []int) []listItem {
	items := make([]listItem, 0, len(indices))
	for _, idx := range indices {
		items = append(items, listItem{Page: &p.site.Pages[idx], Excerpt: p.excerpts[idx]})
	}
	return items
}

func lookupFirst(r *templates.Resolver, names ...string) (*templates.Template, bool) {
	for _, name := range names {
		if tmpl, ok := r.Lookup(name); ok {
			return tmpl, true
		}
	}
	return nil, false
}

// listingPath maps a listing base and 1-based page number to an output path.
// Page 1 owns <base>/index.html, later pages go under <base>/page/N/.
func listingPath(base string, n int) string {
	if n <= 1 {
		return path.Join(base, "index.html")
	}
	return path.Join(base, "page", strconv.Itoa(n), "index.html")
}

func neighborURLs(base string, n, total int) (prev, next string) {
	if n > 1 {
		prev = site.PermalinkFor(listingPath(base, n-1))
	}
	if n < total {
		next = site.PermalinkFor(listingPath(base, n+1))
	}
	return prev, next
}
