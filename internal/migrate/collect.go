// Package migrate turns the saved posts and articles of a knowledge base into
// bookmark folders.
package migrate

import (
	"github.com/starford/kbhost/internal/kbdoc"
)

// Item is one saved post or article found in the knowledge base.
type Item struct {
	URL           string
	Title         string
	Summary       string
	DatePublished string
	Topics        []string
	Platform      string
	AuthorName    string
	SourceName    string
}

// Collect walks favorite_authors and returns every saved item that has a URL,
// in document order.
func Collect(doc *kbdoc.Value) []Item {
	var items []Item
	authorsByPlatform, ok := doc.Get("favorite_authors")
	if !ok || authorsByPlatform.Kind() != kbdoc.Mapping {
		return items
	}

	for _, pf := range authorsByPlatform.Fields() {
		platform := pf.Key
		if pf.Value.Kind() != kbdoc.Sequence {
			continue
		}
		contentKey := "saved_articles"
		if platform == "x" || platform == "linkedin" {
			contentKey = "saved_posts"
		}

		for _, author := range pf.Value.Items() {
			if author.Kind() != kbdoc.Mapping {
				continue
			}
			authorName, sourceName := attribution(platform, author)

			saved, _ := author.Get(contentKey)
			for _, item := range saved.Items() {
				if item.Kind() != kbdoc.Mapping {
					continue
				}
				url := text(item, "url")
				if url == "" {
					continue
				}
				items = append(items, Item{
					URL:           url,
					Title:         text(item, "title"),
					Summary:       text(item, "summary", "preview", "text"),
					DatePublished: text(item, "date_published"),
					Topics:        stringList(item, "topics"),
					Platform:      platform,
					AuthorName:    authorName,
					SourceName:    sourceName,
				})
			}
		}
	}
	return items
}

func attribution(platform string, author *kbdoc.Value) (name, source string) {
	switch platform {
	case "x":
		return "@" + text(author, "handle"), "X (Twitter)"
	case "linkedin":
		return text(author, "name"), "LinkedIn"
	case "substack":
		return text(author, "author", "name"), text(author, "name")
	default:
		return text(author, "name"), text(author, "source")
	}
}

// text returns the first of keys present in m as scalar text.
func text(m *kbdoc.Value, keys ...string) string {
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			return v.Text()
		}
	}
	return ""
}

// stringList returns the scalar elements of the sequence at key.
func stringList(m *kbdoc.Value, key string) []string {
	v, _ := m.Get(key)
	var out []string
	for _, it := range v.Items() {
		if s := it.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
