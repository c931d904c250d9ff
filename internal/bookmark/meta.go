package bookmark

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Meta is the subset of meta.yaml the host understands. Unknown keys are
// ignored; the file itself is written exactly as the caller supplied it.
type Meta struct {
	DocID         string           `yaml:"doc_id"`
	DocType       string           `yaml:"doc_type"`
	Title         string           `yaml:"title"`
	CreatedAt     string           `yaml:"created_at"`
	UpdatedAt     string           `yaml:"updated_at"`
	Language      string           `yaml:"language"`
	Status        string           `yaml:"status"`
	Visibility    string           `yaml:"visibility"`
	Canonical     Canonical        `yaml:"canonical"`
	SourceOfTruth SourceOfTruth    `yaml:"source_of_truth"`
	Assets        []Asset          `yaml:"assets"`
	Tags          []string         `yaml:"tags"`
	Bookmark      BookmarkMetadata `yaml:"bookmark_metadata"`
	// SHA256 is accepted at top level for templates that do not nest it.
	SHA256 string `yaml:"sha256"`
}

type Canonical struct {
	Path          string `yaml:"path"`
	GeneratedFrom string `yaml:"generated_from"`
	Generator     string `yaml:"generator"`
	GeneratedAt   string `yaml:"generated_at"`
}

type SourceOfTruth struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

type Asset struct {
	Path      string `yaml:"path"`
	MediaType string `yaml:"media_type"`
	SHA256    string `yaml:"sha256"`
	CreatedAt string `yaml:"created_at"`
}

type BookmarkMetadata struct {
	SourceURL      string `yaml:"source_url"`
	Platform       string `yaml:"platform"`
	AuthorName     string `yaml:"author_name"`
	SourceName     string `yaml:"source_name"`
	DatePublished  string `yaml:"date_published"`
	DateBookmarked string `yaml:"date_bookmarked"`
}

// RecordedSHA256 returns the content digest the metadata claims.
func (m *Meta) RecordedSHA256() string {
	if m.SourceOfTruth.SHA256 != "" {
		return m.SourceOfTruth.SHA256
	}
	for _, a := range m.Assets {
		if a.Path == ContentFile && a.SHA256 != "" {
			return a.SHA256
		}
	}
	return m.SHA256
}

// ParseMeta decodes meta.yaml content.
func ParseMeta(data []byte) (*Meta, error) {
	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bookmark: parse meta: %w", err)
	}
	return &m, nil
}

// ReadMeta loads <docPath>/meta.yaml.
func ReadMeta(docPath string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(docPath, MetaFile))
	if err != nil {
		return nil, fmt.Errorf("bookmark: read meta: %w", err)
	}
	return ParseMeta(data)
}
