package kbstore

import (
	"time"

	"github.com/starford/kbhost/internal/kbdoc"
)

// DateLayout is the format of the last_updated stamp.
const DateLayout = "2006-01-02"

// LastUpdatedKey is stamped on every write.
const LastUpdatedKey = "last_updated"

// Platforms are the favorite_authors buckets of a fresh knowledge base.
var Platforms = []string{"x", "substack", "linkedin", "generic_web"}

// Skeleton returns the document served when the knowledge base file does not
// exist yet.
func Skeleton(now time.Time) *kbdoc.Value {
	authors := kbdoc.NewMapping()
	for _, p := range Platforms {
		authors.Set(p, kbdoc.NewSequence())
	}

	doc := kbdoc.NewMapping()
	doc.Set("version", kbdoc.NewInt(1))
	doc.Set(LastUpdatedKey, kbdoc.NewString(now.Format(DateLayout)))
	doc.Set("my_content", kbdoc.NewMapping())
	doc.Set("favorite_authors", authors)
	doc.Set("topic_index", kbdoc.NewMapping())
	return doc
}
