package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/kbhost/internal/bookmark"
	"github.com/starford/kbhost/internal/host"
	"github.com/starford/kbhost/internal/kbstore"
	"github.com/starford/kbhost/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	baseDir := testutil.TestBaseDir(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	h := host.NewServer(kbstore.New(kbstore.WithLogger(logger)), bookmark.New(bookmark.WithLogger(logger)),
		host.WithCatalog(db), host.WithLogger(logger))
	return New(h, "test"), baseDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no test helper for calling a tool, so handlers are called
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_kb":
		result, err = srv.readKB(ctx, req)
	case "test_kb":
		result, err = srv.testKB(ctx, req)
	case "create_bookmark":
		result, err = srv.createBookmark(ctx, req)
	case "check_bookmark":
		result, err = srv.checkBookmark(ctx, req)
	case "verify_bookmark":
		result, err = srv.verifyBookmark(ctx, req)
	case "search_bookmarks":
		result, err = srv.searchBookmarks(ctx, req)
	case "list_bookmarks":
		result, err = srv.listBookmarks(ctx, req)
	case "citing_bookmarks":
		result, err = srv.citingBookmarks(ctx, req)
	case "get_bookmark_contract":
		result, err = srv.getBookmarkContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const meta = `title: "Channels"
source_of_truth:
  sha256: SHA256_PLACEHOLDER
bookmark_metadata:
  source_url: "https://example.com/channels"
`

func TestCreateCheckAndVerifyBookmark(t *testing.T) {
	srv, base := testServer(t)

	r := callTool(t, srv, "create_bookmark", map[string]interface{}{
		"base_dir":   base,
		"slug":       "2025-01-20_channels",
		"meta_yaml":  meta,
		"content_md": "# Channels\n\nunbuffered channels synchronise",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	var created struct {
		Path   string `json:"path"`
		SHA256 string `json:"sha256"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Path != filepath.Join(base, "2025-01-20_channels") || len(created.SHA256) != 64 {
		t.Fatalf("unexpected result %+v", created)
	}

	r = callTool(t, srv, "create_bookmark", map[string]interface{}{
		"base_dir":   base,
		"slug":       "2025-01-20_channels",
		"meta_yaml":  meta,
		"content_md": "other",
	})
	if !r.IsError || resultText(r) != "Bookmark folder already exists: 2025-01-20_channels" {
		t.Fatalf("expected exists error, got %q", resultText(r))
	}

	r = callTool(t, srv, "check_bookmark", map[string]interface{}{"base_dir": base, "slug": "2025-01-20_channels"})
	if !strings.Contains(resultText(r), `"exists": true`) {
		t.Errorf("check result = %s", resultText(r))
	}

	r = callTool(t, srv, "verify_bookmark", map[string]interface{}{"base_dir": base, "slug": "2025-01-20_channels"})
	if !strings.Contains(resultText(r), `"verified": true`) {
		t.Errorf("verify result = %s", resultText(r))
	}
}

func TestSearchFindsCreatedBookmark(t *testing.T) {
	srv, base := testServer(t)
	_ = callTool(t, srv, "create_bookmark", map[string]interface{}{
		"base_dir":   base,
		"slug":       "s1",
		"meta_yaml":  meta,
		"content_md": "zebrafish migration patterns",
	})

	r := callTool(t, srv, "search_bookmarks", map[string]interface{}{"query": "zebrafish"})
	if r.IsError || !strings.Contains(resultText(r), `"slug": "s1"`) {
		t.Errorf("search result = %s", resultText(r))
	}

	r = callTool(t, srv, "list_bookmarks", map[string]interface{}{})
	if r.IsError || !strings.Contains(resultText(r), `"total": 1`) {
		t.Errorf("list result = %s", resultText(r))
	}
}

func TestReadKBSkeleton(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_kb", map[string]interface{}{"file_path": testutil.TestKBPath(t)})
	if r.IsError || !strings.Contains(resultText(r), `"favorite_authors"`) {
		t.Errorf("read result = %s", resultText(r))
	}

	r = callTool(t, srv, "read_kb", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without file_path")
	}
}

func TestTestKB(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "test_kb", map[string]interface{}{"file_path": testutil.TestKBPath(t)})
	if r.IsError || !strings.Contains(resultText(r), `"directory_exists": true`) {
		t.Errorf("test result = %s", resultText(r))
	}
}

func TestVerifyMissingBookmark(t *testing.T) {
	srv, base := testServer(t)
	r := callTool(t, srv, "verify_bookmark", map[string]interface{}{"base_dir": base, "slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing bookmark")
	}
}

func TestCitingBookmarks(t *testing.T) {
	srv, base := testServer(t)
	_ = callTool(t, srv, "create_bookmark", map[string]interface{}{
		"base_dir":   base,
		"slug":       "c1",
		"meta_yaml":  meta,
		"content_md": "Background in [Effective Go](https://go.dev/doc/effective_go).",
	})

	r := callTool(t, srv, "citing_bookmarks", map[string]interface{}{"url": "https://go.dev/doc/effective_go"})
	if r.IsError || !strings.Contains(resultText(r), `"slug": "c1"`) {
		t.Errorf("citing result = %s", resultText(r))
	}

	r = callTool(t, srv, "citing_bookmarks", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without url")
	}
}

func TestGetBookmarkContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_bookmark_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "SHA256_PLACEHOLDER") {
		t.Error("contract does not mention the digest placeholder")
	}
}
