package build

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/elyseproject/elyse/internal/content"
	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/pipeline"
	"github.com/elyseproject/elyse/internal/render"
	"github.com/elyseproject/elyse/internal/site"
	"github.com/elyseproject/elyse/internal/store"
	"github.com/elyseproject/elyse/internal/templates"
)

// excerptRunes bounds the plain-text excerpt fed to listing and page
// templates.
const excerptRunes = 280

// stageLoad discovers and parses the content tree. Per-file failures are
// recorded and the pass continues; only a tree that yields nothing at all
// while producing errors aborts the pass.
func (p *pass) stageLoad(ctx context.Context, rep *pipeline.BuildReport) error {
	ccfg := p.b.cfg.Content
	ccfg.Drafts = p.b.includeDrafts
	loader := content.NewLoader(p.b.contentDir, ccfg, p.b.cfg.Build.Workers)

	docs, errs := loader.Load(ctx)
	if err := ctx.Err(); err != nil {
		return pipeline.NewCanceledStageError(pipeline.StageLoad, err)
	}
	if len(docs) == 0 && len(errs) > 0 {
		return pipeline.NewFatalStageError(pipeline.StageLoad, errs[0])
	}
	for _, err := range errs {
		if p.b.abortOnError {
			return pipeline.NewFatalStageError(pipeline.StageLoad, err)
		}
		rep.AddDocumentIssue(pipeline.StageLoad, err)
	}

	p.docs = docs
	rep.Documents = len(docs)
	return nil
}

// stageModel assembles the site model and parses the template tree. Model
// failures cannot be attributed to a single document, so they are fatal.
func (p *pass) stageModel(ctx context.Context, rep *pipeline.BuildReport) error {
	p.site = site.Build(p.docs, p.b.cfg)

	for _, c := range p.site.Collisions {
		rep.AddDocumentIssue(pipeline.StageModel, errors.OutputCollision(c.Path, c.First, c.Second))
	}

	resolver, err := templates.NewResolver(p.b.templatesDir, p.b.cfg.Templates.Default,
		templates.DefaultFuncs(p.site.BaseURL))
	if err != nil {
		return pipeline.NewFatalStageError(pipeline.StageModel, err)
	}
	p.resolver = resolver

	slog.Debug("Assembled site model",
		logfields.Count(len(p.site.Pages)),
		slog.Int("sections", len(p.site.Sections)),
		slog.Int("tags", len(p.site.Tags)),
		slog.Int("templates", len(resolver.Names())))
	return nil
}

// renderResult is the per-page outcome slot written by render workers.
type renderResult struct {
	html      []byte
	excerpt   string
	fromCache bool
	err       error
}

// pageData is the template context for document pages.
type pageData struct {
	Site    *site.Site
	Page    *site.Page
	Content template.HTML
	Outline []render.Heading
	Excerpt string
	Next    *site.Page
	Prev    *site.Page
}

// stageRender renders every page in parallel, then assembles the generated
// listing pages. Workers write into per-index slots and issues are recorded
// in page order after the join, so the report is deterministic regardless
// of worker scheduling.
func (p *pass) stageRender(ctx context.Context, rep *pipeline.BuildReport) error {
	pages := p.site.Pages
	p.results = make([]renderResult, len(pages))
	p.excerpts = make([]string, len(pages))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workerCount(len(pages)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					p.results[idx] = renderResult{err: ctx.Err()}
					continue
				default:
				}
				p.results[idx] = p.renderPage(ctx, idx)
			}
		}()
	}
	for idx := range pages {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return pipeline.NewCanceledStageError(pipeline.StageRender, err)
	}

	rendered, cached := 0, 0
	for idx := range p.results {
		res := &p.results[idx]
		if res.err != nil {
			if p.b.abortOnError {
				return pipeline.NewFatalStageError(pipeline.StageRender, res.err)
			}
			rep.AddDocumentIssue(pipeline.StageRender, res.err)
			continue
		}
		p.excerpts[idx] = res.excerpt
		rendered++
		if res.fromCache {
			cached++
		}
	}
	rep.RenderedPages = rendered
	rep.CacheHits = cached

	for _, err := range p.buildListings() {
		if p.b.abortOnError {
			return pipeline.NewFatalStageError(pipeline.StageRender, err)
		}
		rep.AddDocumentIssue(pipeline.StageRender, err)
	}
	rep.ListingPages = len(p.listings)

	slog.Debug("Rendered pages",
		logfields.Count(rendered),
		slog.Int("cached", cached),
		slog.Int("listings", len(p.listings)))
	return nil
}

// renderPage renders one document into its final HTML. The markdown
// fragment is the cacheable unit; template execution is cheap and always
// runs, so template edits take effect without invalidating the cache.
func (p *pass) renderPage(ctx context.Context, idx int) renderResult {
	page := &p.site.Pages[idx]

	fragment, fromCache, err := p.fragmentFor(ctx, page)
	if err != nil {
		return renderResult{err: err}
	}

	tmpl, err := p.resolver.Resolve(page.Document)
	if err != nil {
		return renderResult{err: err}
	}

	excerpt := render.Excerpt(fragment, excerptRunes)
	data := pageData{
		Site:    p.site,
		Page:    page,
		Content: template.HTML(fragment),
		Outline: render.Outline(fragment),
		Excerpt: excerpt,
		Next:    p.site.Page(page.NextIndex),
		Prev:    p.site.Page(page.PrevIndex),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return renderResult{err: errors.TemplateApplyFailed(page.SourcePath, err)}
	}
	return renderResult{html: buf.Bytes(), excerpt: excerpt, fromCache: fromCache}
}

// fragmentFor returns the rendered markdown fragment for a page, consulting
// the fragment cache when a store is attached. Cache failures degrade to a
// plain render, never to a failed page.
func (p *pass) fragmentFor(ctx context.Context, page *site.Page) ([]byte, bool, error) {
	var key string
	if p.b.store != nil {
		key = store.FragmentKey(p.b.cfg.Markdown.HighlightStyle, page.Body)
		html, ok, err := p.b.store.Fragment(ctx, key)
		if err != nil {
			slog.Warn("Fragment cache lookup failed",
				logfields.Path(page.SourcePath), logfields.Error(err))
		} else if ok {
			return html, true, nil
		}
	}

	fragment, err := p.b.renderer.Render(page.Body)
	if err != nil {
		return nil, false, errors.RenderFailed(page.SourcePath, err)
	}
	if key != "" {
		if err := p.b.store.SaveFragment(ctx, key, fragment); err != nil {
			slog.Warn("Fragment cache save failed",
				logfields.Path(page.SourcePath), logfields.Error(err))
		}
	}
	return fragment, false, nil
}

// stageWrite materializes the staged output tree: the highlight stylesheet,
// the static files, then every rendered page and listing. The first write
// failure ends the stage; a tree that cannot be written completely will
// not be promoted, so finishing it has no value.
func (p *pass) stageWrite(ctx context.Context, rep *pipeline.BuildReport) error {
	if err := p.writeHighlightCSS(); err != nil {
		return p.failWrite(rep, err)
	}

	copied, err := p.copyStatic(ctx)
	rep.StaticFiles = copied
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.NewCanceledStageError(pipeline.StageWrite, err)
		}
		return p.failWrite(rep, err)
	}

	written := 0
	for idx := range p.site.Pages {
		select {
		case <-ctx.Done():
			return pipeline.NewCanceledStageError(pipeline.StageWrite, ctx.Err())
		default:
		}
		res := &p.results[idx]
		if res.err != nil {
			continue
		}
		if err := p.writeFile(p.site.Pages[idx].OutputPath, res.html); err != nil {
			return p.failWrite(rep, err)
		}
		written++
	}

	for _, lp := range p.listings {
		select {
		case <-ctx.Done():
			return pipeline.NewCanceledStageError(pipeline.StageWrite, ctx.Err())
		default:
		}
		if err := p.writeFile(lp.outputPath, lp.html); err != nil {
			return p.failWrite(rep, err)
		}
		written++
	}

	slog.Debug("Wrote output tree",
		logfields.Count(written),
		slog.Int("static", copied))
	return nil
}

// failWrite records a write failure and marks the staged tree as
// unpromotable. In best-effort mode the pass still finishes so the report
// and history carry the full picture; the previous output stays live.
func (p *pass) failWrite(rep *pipeline.BuildReport, err error) error {
	p.writeFailed = true
	if p.b.abortOnError {
		return pipeline.NewFatalStageError(pipeline.StageWrite, err)
	}
	rep.AddDocumentIssue(pipeline.StageWrite, err)
	return nil
}

// writeFile writes one output file under the staging directory.
func (p *pass) writeFile(relPath string, data []byte) error {
	dst := filepath.Join(p.stageDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WriteFailed(relPath, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errors.WriteFailed(relPath, err)
	}
	return nil
}

func (p *pass) workerCount(jobs int) int {
	n := p.b.cfg.Build.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}
