package host

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/kbhost/internal/apperr"
	"github.com/starford/kbhost/internal/bookmark"
	"github.com/starford/kbhost/internal/index"
	"github.com/starford/kbhost/internal/kbdoc"
	"github.com/starford/kbhost/internal/kbstore"
)

// Actions understood by the dispatcher.
const (
	ActionRead            = "read"
	ActionWrite           = "write"
	ActionTest            = "test"
	ActionCreateBookmark  = "create_bookmark"
	ActionCheckExists     = "check_exists"
	ActionPing            = "ping"
	ActionVerifyBookmark  = "verify_bookmark"
	ActionSearchBookmarks = "search_bookmarks"
	ActionListBookmarks   = "list_bookmarks"
	ActionCitingBookmarks = "citing_bookmarks"
)

// Request is one message from the extension. Fields not used by an action
// are ignored.
type Request struct {
	Action    string       `json:"action"`
	FilePath  string       `json:"filePath,omitempty"`
	Data      *kbdoc.Value `json:"data,omitempty"`
	BaseDir   string       `json:"baseDir,omitempty"`
	Slug      string       `json:"slug,omitempty"`
	MetaYAML  string       `json:"metaYaml,omitempty"`
	ContentMD string       `json:"contentMd,omitempty"`
	Query     string       `json:"query,omitempty"`
	Limit     int          `json:"limit,omitempty"`
	Offset    int          `json:"offset,omitempty"`
	URL       string       `json:"url,omitempty"`
}

// Validate checks that the fields the action needs are present. Messages are
// part of the wire contract.
func (r *Request) Validate() error {
	if err := validation.Validate(r.Action, validation.Required.Error("No action specified")); err != nil {
		return apperr.Invalid(err.Error())
	}

	var rules []*validation.FieldRules
	switch r.Action {
	case ActionRead, ActionTest:
		rules = append(rules, validation.Field(&r.FilePath, validation.Required.Error("No file path specified")))
	case ActionWrite:
		rules = append(rules,
			validation.Field(&r.FilePath, validation.Required.Error("No file path specified")),
			validation.Field(&r.Data, validation.NotNil.Error("No data to write")),
		)
	case ActionCreateBookmark:
		const msg = "Missing required fields: baseDir, slug, metaYaml, contentMd"
		rules = append(rules,
			validation.Field(&r.BaseDir, validation.Required.Error(msg)),
			validation.Field(&r.Slug, validation.Required.Error(msg)),
			validation.Field(&r.MetaYAML, validation.Required.Error(msg)),
			validation.Field(&r.ContentMD, validation.Required.Error(msg)),
		)
	case ActionCheckExists, ActionVerifyBookmark:
		const msg = "Missing required fields: baseDir, slug"
		rules = append(rules,
			validation.Field(&r.BaseDir, validation.Required.Error(msg)),
			validation.Field(&r.Slug, validation.Required.Error(msg)),
		)
	case ActionSearchBookmarks:
		rules = append(rules, validation.Field(&r.Query, validation.Required.Error("No search query specified")))
	case ActionCitingBookmarks:
		rules = append(rules, validation.Field(&r.URL, validation.Required.Error("No url specified")))
	case ActionListBookmarks:
		rules = append(rules,
			validation.Field(&r.Limit, validation.Min(0)),
			validation.Field(&r.Offset, validation.Min(0)),
		)
	}

	// Fields are checked in declaration order and the first failure wins.
	for _, fr := range rules {
		if err := validation.ValidateStruct(r, fr); err != nil {
			return apperr.Invalid(firstMessage(err))
		}
	}
	return nil
}

func firstMessage(err error) string {
	if errs, ok := err.(validation.Errors); ok {
		for _, e := range errs {
			return e.Error()
		}
	}
	return err.Error()
}

// Response is the reply to one Request. Success is always present; the other
// fields appear when the action produces them.
type Response struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    *kbdoc.Value `json:"data,omitempty"`
	Path    string       `json:"path,omitempty"`
	SHA256  string       `json:"sha256,omitempty"`
	Exists  *bool        `json:"exists,omitempty"`

	*kbstore.Diagnostics
	*bookmark.Verification
	*BookmarkList
}

// BookmarkList carries catalog results.
type BookmarkList struct {
	Bookmarks []index.Bookmark `json:"bookmarks"`
	Total     int              `json:"total,omitempty"`
}

func failure(err error) *Response {
	return &Response{Success: false, Error: err.Error(), Code: apperr.Code(err)}
}
