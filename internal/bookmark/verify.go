package bookmark

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/kbhost/internal/apperr"
	"github.com/starford/kbhost/internal/checksum"
	"github.com/starford/kbhost/internal/storage"
)

// Verification is the outcome of checking a bookmark folder against its
// metadata.
type Verification struct {
	Path           string   `json:"path"`
	Verified       bool     `json:"verified"`
	SHA256         string   `json:"sha256,omitempty"`
	RecordedSHA256 string   `json:"recorded_sha256,omitempty"`
	LinkOK         bool     `json:"link_ok"`
	Problems       []string `json:"problems"`
}

// Verify recomputes the content digest of a bookmark, compares it with the
// digest recorded in meta.yaml and checks the retrieval symlink. A missing
// folder is apperr.ErrNotFound; every other finding is reported as a problem.
func (s *Store) Verify(baseDir, slug string) (*Verification, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	base, err := storage.ExpandPath(baseDir)
	if err != nil {
		return nil, err
	}
	docPath := filepath.Join(base, slug)
	if info, err := os.Stat(docPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("bookmark %s: %w", slug, apperr.ErrNotFound)
	}

	v := &Verification{Path: docPath, Problems: []string{}}

	sum, err := checksum.SumFile(filepath.Join(docPath, ContentFile))
	if err != nil {
		v.Problems = append(v.Problems, "content missing: "+ContentFile)
	} else {
		v.SHA256 = sum
	}

	meta, err := ReadMeta(docPath)
	if err != nil {
		v.Problems = append(v.Problems, err.Error())
	} else {
		v.RecordedSHA256 = meta.RecordedSHA256()
		switch {
		case v.RecordedSHA256 == "":
			v.Problems = append(v.Problems, "meta.yaml records no sha256")
		case v.RecordedSHA256 == Placeholder:
			v.Problems = append(v.Problems, "meta.yaml still holds "+Placeholder)
		case v.SHA256 != "" && v.RecordedSHA256 != v.SHA256:
			v.Problems = append(v.Problems, "sha256 mismatch")
		}
	}

	v.LinkOK = s.checkLink(docPath, &v.Problems)
	v.Verified = len(v.Problems) == 0
	return v, nil
}

func (s *Store) checkLink(docPath string, problems *[]string) bool {
	link := filepath.Join(docPath, RetrievalFile)
	info, err := os.Lstat(link)
	if errors.Is(err, fs.ErrNotExist) {
		*problems = append(*problems, "retrieval link missing: "+RetrievalFile)
		return false
	}
	if err != nil {
		*problems = append(*problems, err.Error())
		return false
	}
	if info.Mode()&os.ModeSymlink == 0 {
		*problems = append(*problems, RetrievalFile+" is not a symlink")
		return false
	}

	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		*problems = append(*problems, "retrieval link is dangling")
		return false
	}
	want, err := filepath.EvalSymlinks(filepath.Join(docPath, ContentFile))
	if err != nil || resolved != want {
		*problems = append(*problems, "retrieval link does not point at "+ContentFile)
		return false
	}
	return true
}
