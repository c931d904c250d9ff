package index

// BookmarkIndex defines the catalog operations. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing.
type BookmarkIndex interface {
	UpsertBookmark(b Bookmark, body string, links []string) error
	DeleteBookmark(path string) error
	GetChecksum(path string) (string, error)
	GetBookmark(path string) (*Bookmark, error)
	List(baseDir string, limit, offset int) ([]Bookmark, int, error)
	Search(query string, limit int) ([]Bookmark, error)
	Citing(url string) ([]string, error)
	HasSourceURL(url string) (bool, error)
	EachSourceURL(fn func(url string) error) error
	AllChecksums(baseDir string) (map[string]string, error)
	IndexBookmark(baseDir, slug string) error
	Close() error
}

// Verify *DB satisfies BookmarkIndex at compile time.
var _ BookmarkIndex = (*DB)(nil)
