package migrate

import (
	"path/filepath"
	"strings"

	"github.com/starford/kbhost/internal/storage"
)

// BookmarksDirName is the folder that receives migrated bookmarks.
const BookmarksDirName = "08_bookmarked_content"

// knowledgeRoot is the directory name that marks the knowledge base root.
const knowledgeRoot = "AI_KB"

// OutputDir resolves where bookmarks go. An explicit override wins. Otherwise
// the first AI_KB element of kbPath marks the root; without one the
// knowledge base file's own directory is used.
func OutputDir(kbPath, override string) (string, error) {
	if override != "" {
		return storage.ExpandPath(override)
	}
	p, err := storage.ExpandPath(kbPath)
	if err != nil {
		return "", err
	}
	p = filepath.Clean(p)

	parts := strings.Split(p, string(filepath.Separator))
	for i, part := range parts[:len(parts)-1] {
		if part == knowledgeRoot {
			root := strings.Join(parts[:i+1], string(filepath.Separator))
			if root == "" {
				root = string(filepath.Separator)
			}
			return filepath.Join(root, BookmarksDirName), nil
		}
	}
	return filepath.Join(filepath.Dir(p), BookmarksDirName), nil
}
