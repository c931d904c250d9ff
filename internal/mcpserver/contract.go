package mcpserver

// BookmarkFormatContract describes the bookmark document layout that LLM
// consumers should follow when creating bookmarks.
const BookmarkFormatContract = `# Bookmark Document Format Contract

Every bookmark is one folder below a base directory. The folder name is the
slug and is never reused: creating a bookmark whose slug already exists fails
with ` + "`" + `Bookmark folder already exists: <slug>` + "`" + `.

## Layout

` + "```" + `
<baseDir>/<slug>/
├── meta.yaml
├── assets/content.md
└── canonicals/retrieval.md   (symlink to ../assets/content.md)
` + "```" + `

## Rules

1. **Slug** is a single path element: ` + "`" + `<YYYY-MM-DD>_<words-joined-by-hyphens>` + "`" + `,
   lowercase ASCII letters and digits, at most 80 characters after the date.
2. **content.md** is written exactly as given (UTF-8). YAML frontmatter is
   recommended (title, source_url, author, platform, date_published,
   date_bookmarked, status, tags).
3. **meta.yaml** is written exactly as given, except that every occurrence of
   ` + "`" + `SHA256_PLACEHOLDER` + "`" + ` is replaced by the lowercase hex SHA-256 of content.md.
   Put the placeholder in ` + "`" + `source_of_truth.sha256` + "`" + ` and in the content asset entry.
4. Files are never modified after creation. ` + "`" + `verify_bookmark` + "`" + ` recomputes the
   digest and checks the symlink.

## Example meta.yaml

` + "```" + `yaml
doc_id: "2025-01-20_why-go-channels"
doc_type: "bookmark"
title: "Why Go channels"
created_at: "2025-01-20"
updated_at: "2025-01-20"
language: "en"
status: "final"
visibility: "private"

canonical:
  path: "canonicals/retrieval.md"
  generated_from: "assets/content.md"
  generator: "kb_manager"
  generated_at: "2025-01-20"

source_of_truth:
  path: "assets/content.md"
  sha256: "SHA256_PLACEHOLDER"

assets:
  - path: "assets/content.md"
    media_type: "text/markdown"
    sha256: "SHA256_PLACEHOLDER"
    created_at: "2025-01-20"

tags:
  - go

bookmark_metadata:
  source_url: "https://example.com/why-go-channels"
  platform: "generic_web"
  author_name: "Ada"
  source_name: "Example"
  date_published: "2025-01-18"
  date_bookmarked: "2025-01-20"
` + "```" + `
`
