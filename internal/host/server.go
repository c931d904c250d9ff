// Package host dispatches native-messaging requests to the knowledge base and
// bookmark stores and runs the framed request/response loop.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/starford/kbhost/internal/apperr"
	"github.com/starford/kbhost/internal/bookmark"
	"github.com/starford/kbhost/internal/frame"
	"github.com/starford/kbhost/internal/index"
	"github.com/starford/kbhost/internal/kbstore"
)

// Catalog is the part of the bookmark index the dispatcher uses.
type Catalog interface {
	IndexBookmark(baseDir, slug string) error
	Search(query string, limit int) ([]index.Bookmark, error)
	List(baseDir string, limit, offset int) ([]index.Bookmark, int, error)
	Citing(url string) ([]string, error)
	GetBookmark(path string) (*index.Bookmark, error)
}

var errNoCatalog = &apperr.Message{Kind: apperr.ErrUnavailable, Text: "Bookmark catalog is not configured"}

// Server owns the stores and answers requests.
type Server struct {
	kb      *kbstore.Store
	bm      *bookmark.Store
	catalog Catalog
	limits  frame.Limits
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog enables the catalog actions and keeps the catalog updated
// after each created bookmark.
func WithCatalog(c Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithLimits(l frame.Limits) Option {
	return func(s *Server) { s.limits = l }
}

func NewServer(kb *kbstore.Store, bm *bookmark.Store, opts ...Option) *Server {
	s := &Server{
		kb:     kb,
		bm:     bm,
		limits: frame.DefaultLimits(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle answers one request. It never panics and never returns nil.
func (s *Server) Handle(ctx context.Context, req *Request) (resp *Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in handler", slog.String("action", req.Action), slog.Any("panic", r))
			resp = failure(fmt.Errorf("internal error: %v", r))
		}
		if !resp.Success && resp.Error != "" {
			s.logger.Warn("request failed",
				slog.String("action", req.Action),
				slog.String("code", resp.Code),
				slog.String("error", resp.Error))
		}
		s.logger.Debug("request handled",
			slog.String("action", req.Action),
			slog.Bool("success", resp.Success),
			slog.Duration("duration", time.Since(start)))
	}()

	if err := req.Validate(); err != nil {
		return failure(err)
	}

	switch req.Action {
	case ActionRead:
		doc, err := s.kb.Read(ctx, req.FilePath)
		if err != nil {
			return failure(err)
		}
		return &Response{Success: true, Data: doc}

	case ActionWrite:
		if err := s.kb.Write(ctx, req.FilePath, req.Data); err != nil {
			return failure(err)
		}
		return &Response{Success: true}

	case ActionTest:
		d := s.kb.Test(req.FilePath)
		return &Response{Success: d.OK(), Diagnostics: d}

	case ActionCreateBookmark:
		return s.createBookmark(ctx, req)

	case ActionCheckExists:
		exists, path, err := s.bm.Exists(req.BaseDir, req.Slug)
		if err != nil {
			return failure(err)
		}
		return &Response{Success: true, Exists: &exists, Path: path}

	case ActionPing:
		return &Response{Success: true, Message: "pong"}

	case ActionVerifyBookmark:
		v, err := s.bm.Verify(req.BaseDir, req.Slug)
		if err != nil {
			return failure(err)
		}
		return &Response{Success: true, Path: v.Path, SHA256: v.SHA256, Verification: v}

	case ActionSearchBookmarks:
		if s.catalog == nil {
			return failure(errNoCatalog)
		}
		hits, err := s.catalog.Search(req.Query, req.Limit)
		if err != nil {
			return failure(err)
		}
		return &Response{Success: true, BookmarkList: &BookmarkList{Bookmarks: hits}}

	case ActionListBookmarks:
		if s.catalog == nil {
			return failure(errNoCatalog)
		}
		page, total, err := s.catalog.List(req.BaseDir, req.Limit, req.Offset)
		if err != nil {
			return failure(err)
		}
		return &Response{Success: true, BookmarkList: &BookmarkList{Bookmarks: page, Total: total}}

	case ActionCitingBookmarks:
		if s.catalog == nil {
			return failure(errNoCatalog)
		}
		return s.citingBookmarks(req.URL)

	default:
		return failure(apperr.Invalid("Unknown action: " + req.Action))
	}
}

func (s *Server) createBookmark(ctx context.Context, req *Request) *Response {
	created, err := s.bm.Create(ctx, req.BaseDir, req.Slug, req.MetaYAML, req.ContentMD)
	if err != nil {
		return failure(err)
	}
	if s.catalog != nil {
		if err := s.catalog.IndexBookmark(req.BaseDir, req.Slug); err != nil {
			s.logger.Warn("catalog update failed",
				slog.String("path", created.Path),
				slog.String("error", err.Error()))
		}
	}
	return &Response{Success: true, Path: created.Path, SHA256: created.SHA256}
}

// citingBookmarks returns the catalogued bookmarks whose content links to url.
// A link row whose bookmark has gone is skipped.
func (s *Server) citingBookmarks(url string) *Response {
	paths, err := s.catalog.Citing(url)
	if err != nil {
		return failure(err)
	}
	out := make([]index.Bookmark, 0, len(paths))
	for _, p := range paths {
		b, err := s.catalog.GetBookmark(p)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return failure(err)
		}
		out = append(out, *b)
	}
	return &Response{Success: true, BookmarkList: &BookmarkList{Bookmarks: out, Total: len(out)}}
}

// Serve reads requests from r and writes one response per request to w until
// r ends. It returns nil at a clean end of stream and the framing error when
// the stream is corrupt. A frame whose payload is not a JSON request object
// is answered with a protocol error and the loop continues.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	dec := frame.NewDecoder(r, s.limits)
	enc := frame.NewEncoder(w, s.limits)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		err := dec.Decode(&req)
		switch {
		case errors.Is(err, io.EOF):
			s.logger.Debug("input closed")
			return nil
		case errors.Is(err, frame.ErrMalformed):
			s.logger.Warn("malformed message", slog.String("error", err.Error()))
			if err := enc.Encode(failure(fmt.Errorf("%w: %v", apperr.ErrProtocol, err))); err != nil {
				return err
			}
			continue
		case err != nil:
			s.logger.Error("read failed", slog.String("error", err.Error()))
			return err
		}

		if err := enc.Encode(s.Handle(ctx, &req)); err != nil {
			s.logger.Error("write failed", slog.String("error", err.Error()))
			return err
		}
	}
}
