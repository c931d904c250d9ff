package migrate

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// maxSlugText bounds the part of a slug after the date.
const maxSlugText = 80

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Slug names the bookmark folder for an item: <date>_<text>. The date comes
// from datePublished when it parses as an ISO date, else from now. The text
// comes from title, else from the URL path.
func Slug(title, rawURL, datePublished string, now time.Time) string {
	date := now.Format("2006-01-02")
	if t, ok := parsePublished(datePublished); ok {
		date = t.Format("2006-01-02")
	}

	text := title
	if text == "" {
		if u, err := url.Parse(rawURL); err == nil {
			text = strings.ReplaceAll(u.Path, "/", " ")
		}
	}

	s := strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if len(s) > maxSlugText {
		s = s[:maxSlugText]
	}
	return date + "_" + s
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
