package bookmark

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/kbhost/internal/apperr"
)

// Placeholder is replaced in the meta template by the content digest.
const Placeholder = "SHA256_PLACEHOLDER"

// Paths inside a bookmark folder.
const (
	MetaFile      = "meta.yaml"
	AssetsDir     = "assets"
	ContentFile   = "assets/content.md"
	CanonicalsDir = "canonicals"
	RetrievalFile = "canonicals/retrieval.md"
	// RetrievalTarget is stored verbatim in the retrieval symlink so the
	// folder can be moved as a whole.
	RetrievalTarget = "../assets/content.md"
)

// ValidateSlug accepts a single, non-hidden path element.
func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return apperr.Invalid("invalid slug: empty")
	case slug == "." || slug == "..":
		return apperr.Invalid(fmt.Sprintf("invalid slug: %q", slug))
	case strings.ContainsAny(slug, `/\`) || strings.ContainsRune(slug, filepath.Separator):
		return apperr.Invalid(fmt.Sprintf("invalid slug: %q contains a path separator", slug))
	case strings.ContainsRune(slug, 0):
		return apperr.Invalid("invalid slug: contains NUL")
	case strings.HasPrefix(slug, "."):
		return apperr.Invalid(fmt.Sprintf("invalid slug: %q is hidden", slug))
	}
	return nil
}

// ExistsError reports that a slug is already taken. Its text is shown to the
// extension unchanged.
type ExistsError struct {
	Slug string
}

func (e *ExistsError) Error() string {
	return "Bookmark folder already exists: " + e.Slug
}

func (e *ExistsError) Is(target error) bool {
	return target == apperr.ErrAlreadyExists
}
