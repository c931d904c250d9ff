package webpage

import (
	"context"
	"fmt"
	"net/url"
)

// Page is a fetched page reduced to Markdown.
type Page struct {
	Title    string
	Markdown string
}

// Reader fetches a URL, extracts its main content and converts it to
// Markdown, honouring a per-domain rate limit.
type Reader struct {
	fetcher   *Fetcher
	extractor *Extractor
	converter *Converter
	limiter   *DomainLimiter
}

func NewReader(f *Fetcher, l *DomainLimiter) *Reader {
	return &Reader{
		fetcher:   f,
		extractor: NewExtractor(),
		converter: NewConverter(),
		limiter:   l,
	}
}

// Read returns the page at rawURL.
func (r *Reader) Read(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("webpage: parse url: %w", err)
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, err
		}
	}

	html, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	article, err := r.extractor.Extract(html, u)
	if err != nil {
		return nil, fmt.Errorf("webpage: extract %s: %w", rawURL, err)
	}
	md, err := r.converter.Convert(article.ContentHTML)
	if err != nil {
		return nil, fmt.Errorf("webpage: convert %s: %w", rawURL, err)
	}
	return &Page{Title: article.Title, Markdown: md}, nil
}
