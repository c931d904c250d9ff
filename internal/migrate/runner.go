package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/kbhost/internal/apperr"
	"github.com/starford/kbhost/internal/bookmark"
	"github.com/starford/kbhost/internal/kbstore"
	"github.com/starford/kbhost/internal/storage"
	"github.com/starford/kbhost/internal/webpage"
)

// PageReader fetches a page as Markdown.
type PageReader interface {
	Read(ctx context.Context, url string) (*webpage.Page, error)
}

// SourceIndex reports whether a URL has been bookmarked before.
type SourceIndex interface {
	HasSourceURL(url string) (bool, error)
	EachSourceURL(fn func(url string) error) error
}

// minCatalogFilter is the smallest capacity of the catalogued-URL filter.
const minCatalogFilter = 10000

// Status values recorded in content.md.
const (
	StatusFinal   = "final"
	StatusPartial = "partial"
)

// Summary counts the outcome of a run.
type Summary struct {
	Found   int `json:"found"`
	Full    int `json:"full"`
	Partial int `json:"partial"`
	Skipped int `json:"skipped"`
}

// Runner migrates saved items into bookmark folders.
type Runner struct {
	kb          *kbstore.Store
	bookmarks   *bookmark.Store
	reader      PageReader
	index       SourceIndex
	concurrency int
	dryRun      bool
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds parallel fetches.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithDryRun reports what would be created without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithSourceIndex skips items whose URL is already catalogued.
func WithSourceIndex(idx SourceIndex) Option {
	return func(r *Runner) { r.index = idx }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func NewRunner(kb *kbstore.Store, bm *bookmark.Store, reader PageReader, opts ...Option) *Runner {
	r := &Runner{
		kb:          kb,
		bookmarks:   bm,
		reader:      reader,
		concurrency: 4,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// fetched is the outcome of reading one item's page.
type fetched struct {
	page *webpage.Page
	skip string
}

// Run reads the knowledge base at kbPath and creates one bookmark per saved
// item under baseDir. Pages are fetched concurrently; folders are created
// one at a time in document order.
func (r *Runner) Run(ctx context.Context, kbPath, baseDir string) (*Summary, error) {
	p, err := storage.ExpandPath(kbPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("migrate: %w: file not found: %s", apperr.ErrNotFound, p)
	}
	doc, err := r.kb.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	if !r.dryRun {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("migrate: create output dir: %w", err)
		}
	}

	items := Collect(doc)
	sum := &Summary{Found: len(items)}
	r.logger.Info("bookmarks found",
		slog.Int("count", len(items)),
		slog.String("output", baseDir),
		slog.Bool("dry_run", r.dryRun))

	results := make([]fetched, len(items))
	catalogued := r.loadCatalogued(len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if _, dup := seen[it.URL]; dup {
			results[i].skip = "duplicate url"
			continue
		}
		seen[it.URL] = struct{}{}

		if r.index == nil {
			continue
		}
		// A filter miss proves the URL is not catalogued; a hit is confirmed
		// by the catalog.
		if catalogued != nil && !catalogued.Test(it.URL) {
			continue
		}
		ok, err := r.index.HasSourceURL(it.URL)
		if err != nil {
			r.logger.Warn("catalog lookup failed", slog.String("url", it.URL), slog.String("error", err.Error()))
		} else if ok {
			results[i].skip = "already catalogued"
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, it := range items {
		if results[i].skip != "" {
			continue
		}
		g.Go(func() error {
			page, err := r.reader.Read(gctx, it.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn("fetch failed", slog.String("url", it.URL), slog.String("error", err.Error()))
				return nil
			}
			results[i].page = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	now := r.now().UTC()
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := results[i]
		if res.skip != "" {
			r.logger.Info("skip", slog.String("url", it.URL), slog.String("reason", res.skip))
			sum.Skipped++
			continue
		}

		d := r.document(it, res.page, now)
		err := r.create(ctx, baseDir, d)
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			r.logger.Info("skip", slog.String("slug", d.Slug), slog.String("reason", "folder already exists"))
			sum.Skipped++
		case err != nil:
			return sum, err
		case d.Status == StatusFinal:
			r.logger.Info("created", slog.String("slug", d.Slug), slog.String("content", "full"))
			sum.Full++
		default:
			r.logger.Info("created", slog.String("slug", d.Slug), slog.String("content", "metadata only"))
			sum.Partial++
		}
	}
	return sum, nil
}

// loadCatalogued fills a Bloom filter with every catalogued source URL. It
// returns nil without a catalog or when the catalog cannot be read, in which
// case every URL is looked up.
func (r *Runner) loadCatalogued(n int) *webpage.SeenFilter {
	if r.index == nil {
		return nil
	}
	f := webpage.NewSeenFilter(uint(max(n, minCatalogFilter)), 0.001)
	err := r.index.EachSourceURL(func(url string) error {
		f.Add(url)
		return nil
	})
	if err != nil {
		r.logger.Warn("catalog scan failed", slog.String("error", err.Error()))
		return nil
	}
	return f
}

func (r *Runner) document(it Item, page *webpage.Page, now time.Time) *Document {
	title := it.Title
	status := StatusPartial
	body := ""
	if page != nil {
		status = StatusFinal
		body = page.Markdown
		if title == "" {
			title = page.Title
		}
	}
	if title == "" {
		title = "Untitled"
	}
	return &Document{
		Slug:          Slug(title, it.URL, it.DatePublished, now),
		Title:         title,
		SourceURL:     it.URL,
		Platform:      it.Platform,
		AuthorName:    it.AuthorName,
		SourceName:    it.SourceName,
		DatePublished: it.DatePublished,
		BookmarkedAt:  now.Format(time.RFC3339),
		Tags:          it.Topics,
		Status:        status,
		Body:          body,
	}
}

// create writes the folder, or in a dry run only checks that it could.
func (r *Runner) create(ctx context.Context, baseDir string, d *Document) error {
	if r.dryRun {
		exists, path, err := r.bookmarks.Exists(baseDir, d.Slug)
		if err != nil {
			return err
		}
		if exists {
			return &bookmark.ExistsError{Slug: d.Slug}
		}
		r.logger.Info("dry run: would create", slog.String("path", path))
		return nil
	}
	_, err := r.bookmarks.Create(ctx, baseDir, d.Slug, BuildMeta(d), BuildContent(d))
	return err
}
