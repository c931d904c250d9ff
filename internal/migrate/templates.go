package migrate

import (
	"fmt"
	"strings"

	"github.com/starford/kbhost/internal/bookmark"
)

// Generator is recorded in meta.yaml as the canonical's producer.
const Generator = "kb_manager_migration"

// NoContent stands in for the body when nothing could be extracted.
const NoContent = "*No content extracted.*"

// Document holds everything the two templates render.
type Document struct {
	Slug          string
	Title         string
	SourceURL     string
	Platform      string
	AuthorName    string
	SourceName    string
	DatePublished string
	// BookmarkedAt is a full RFC 3339 timestamp; the date part is used where
	// only a date belongs.
	BookmarkedAt string
	Tags         []string
	Status       string
	Body         string
}

func (d *Document) bookmarkedDate() string {
	date, _, _ := strings.Cut(d.BookmarkedAt, "T")
	return date
}

// escapeYAML escapes s for a double-quoted YAML scalar.
func escapeYAML(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`)
}

func tagsYAML(tags []string) string {
	if len(tags) == 0 {
		return "  []"
	}
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = "  - " + t
	}
	return strings.Join(lines, "\n")
}

// BuildMeta renders meta.yaml with the digest left as bookmark.Placeholder.
func BuildMeta(d *Document) string {
	var b strings.Builder
	at := d.BookmarkedAt
	fmt.Fprintf(&b, "doc_id: \"%s\"\n", d.Slug)
	b.WriteString("doc_type: \"bookmark\"\n")
	fmt.Fprintf(&b, "title: \"%s\"\n", escapeYAML(d.Title))
	fmt.Fprintf(&b, "created_at: \"%s\"\n", at)
	fmt.Fprintf(&b, "updated_at: \"%s\"\n", at)
	b.WriteString("language: \"en\"\n")
	b.WriteString("status: \"final\"\n")
	b.WriteString("visibility: \"private\"\n\n")

	b.WriteString("canonical:\n")
	b.WriteString("  path: \"canonicals/retrieval.md\"\n")
	b.WriteString("  generated_from: \"assets/content.md\"\n")
	fmt.Fprintf(&b, "  generator: \"%s\"\n", Generator)
	fmt.Fprintf(&b, "  generated_at: \"%s\"\n\n", at)

	b.WriteString("source_of_truth:\n")
	b.WriteString("  path: \"assets/content.md\"\n")
	fmt.Fprintf(&b, "  sha256: \"%s\"\n\n", bookmark.Placeholder)

	b.WriteString("assets:\n")
	b.WriteString("  - path: \"assets/content.md\"\n")
	b.WriteString("    media_type: \"text/markdown\"\n")
	fmt.Fprintf(&b, "    sha256: \"%s\"\n", bookmark.Placeholder)
	fmt.Fprintf(&b, "    created_at: \"%s\"\n\n", at)

	fmt.Fprintf(&b, "tags:\n%s\n\n", tagsYAML(d.Tags))

	b.WriteString("relationships:\n")
	b.WriteString("  derived_from: []\n")
	b.WriteString("  related: []\n\n")

	b.WriteString("bookmark_metadata:\n")
	fmt.Fprintf(&b, "  source_url: \"%s\"\n", escapeYAML(d.SourceURL))
	fmt.Fprintf(&b, "  platform: \"%s\"\n", d.Platform)
	fmt.Fprintf(&b, "  author_name: \"%s\"\n", escapeYAML(d.AuthorName))
	fmt.Fprintf(&b, "  source_name: \"%s\"\n", escapeYAML(d.SourceName))
	fmt.Fprintf(&b, "  date_published: \"%s\"\n", d.DatePublished)
	fmt.Fprintf(&b, "  date_bookmarked: \"%s\"\n", d.bookmarkedDate())
	return b.String()
}

// BuildContent renders content.md: YAML frontmatter, a header naming the
// source, then the body.
func BuildContent(d *Document) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"%s\"\n", escapeYAML(d.Title))
	fmt.Fprintf(&b, "source_url: \"%s\"", escapeYAML(d.SourceURL))
	if d.AuthorName != "" {
		fmt.Fprintf(&b, "\nauthor: \"%s\"", escapeYAML(d.AuthorName))
	}
	if d.SourceName != "" {
		fmt.Fprintf(&b, "\nsource: \"%s\"", escapeYAML(d.SourceName))
	}
	fmt.Fprintf(&b, "\nplatform: %s\n", d.Platform)
	fmt.Fprintf(&b, "date_published: \"%s\"\n", d.DatePublished)
	fmt.Fprintf(&b, "date_bookmarked: \"%s\"\n", d.bookmarkedDate())
	fmt.Fprintf(&b, "status: \"%s\"\n", d.Status)
	fmt.Fprintf(&b, "tags:\n%s\n---", tagsYAML(d.Tags))

	fmt.Fprintf(&b, "\n# %s\n", d.Title)
	if d.SourceName != "" {
		fmt.Fprintf(&b, "\n**Source:** [%s](%s)", d.SourceName, d.SourceURL)
	} else {
		fmt.Fprintf(&b, "\n**Source:** [%s](%s)", d.SourceURL, d.SourceURL)
	}
	if d.AuthorName != "" {
		fmt.Fprintf(&b, "\n**Author:** %s", d.AuthorName)
	}
	if d.DatePublished != "" {
		fmt.Fprintf(&b, "\n**Published:** %s", d.DatePublished)
	}
	b.WriteString("\n\n---\n\n")

	if d.Body != "" {
		b.WriteString(d.Body)
	} else {
		b.WriteString(NoContent)
	}
	return b.String()
}
