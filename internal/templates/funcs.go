package templates

import (
	"html/template"
	"strings"
	"time"

	"github.com/elyseproject/elyse/internal/slug"
)

// DefaultFuncs returns the helper functions available to every template.
func DefaultFuncs(baseURL string) template.FuncMap {
	return template.FuncMap{
		"dateFormat": func(layout string, t time.Time) string {
			return t.Format(layout)
		},
		"absURL": func(path string) string {
			return joinURL(baseURL, path)
		},
		"slugify": slug.Make,
		"lower":   strings.ToLower,
		"upper":   strings.ToUpper,
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}
}

// joinURL joins the configured base URL with an absolute site path.
func joinURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
