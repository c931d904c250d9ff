package webpage

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ErrEmptyInput is returned for blank HTML.
var ErrEmptyInput = errors.New("webpage: empty HTML input")

// Article is the main content of a page.
type Article struct {
	Title       string
	ContentHTML string
}

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. Relative links
// are resolved against pageURL when it is non-nil.
func (e *Extractor) Extract(rawHTML string, pageURL *url.URL) (*Article, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, ErrEmptyInput
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, err
	}

	return &Article{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
