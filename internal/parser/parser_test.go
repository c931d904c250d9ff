package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - bookmarks\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) < 2 || r.Tags[0] != "go" || r.Tags[1] != "bookmarks" {
		t.Errorf("tags = %v, want [go bookmarks]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestExtractLinks_Basic(t *testing.T) {
	body := "See [Go](https://go.dev) and <https://pkg.go.dev/net/http>.\n" +
		"Also [Go again](https://go.dev \"title\") and [local](#anchor)."
	links := extractLinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2: %v", len(links), links)
	}
	if links[0] != "https://go.dev" || links[1] != "https://pkg.go.dev/net/http" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractLinks_DocumentOrder(t *testing.T) {
	links := extractLinks("<https://b.example> then [a](https://a.example)")
	if len(links) != 2 || links[0] != "https://b.example" || links[1] != "https://a.example" {
		t.Errorf("links = %v", links)
	}
}

func TestParse_BookmarkContent(t *testing.T) {
	input := []byte("---\ntitle: \"Why Go\"\nsource_url: \"https://example.com/why\"\n" +
		"author: \"Ada\"\nplatform: substack\ndate_published: 2024-05-01\nstatus: full\ntags: [go, lang]\n---\n\n" +
		"# Why Go\n\n**Source:** [Example](https://example.com/why)\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Why Go" || r.Field("author") != "Ada" || r.Field("status") != "full" {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Field("date_published") != "2024-05-01" {
		t.Errorf("date_published = %q", r.Field("date_published"))
	}
	if r.Field("missing") != "" {
		t.Errorf("missing field should be empty")
	}
	if len(r.Tags) != 2 || len(r.Links) != 1 || r.Links[0] != "https://example.com/why" {
		t.Errorf("tags = %v links = %v", r.Tags, r.Links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, fm)
	// alpha from FM, beta from body; alpha not duplicated.
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	body := "# H1 Title\ntext"
	title := deriveTitle(fm, body)
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
