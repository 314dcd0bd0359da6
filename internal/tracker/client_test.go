package tracker_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torrup/internal/services"
	"torrup/internal/testsupport"
	"torrup/internal/tracker"
)

func newTestClient(t *testing.T, searchURL, uploadURL, downloadURL, announceKey string) *tracker.HTTPClient {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Tracker.SearchURL = searchURL
	cfg.Tracker.UploadURL = uploadURL
	cfg.Tracker.DownloadURL = downloadURL
	cfg.Tracker.AnnounceKey = announceKey
	return tracker.NewClient(cfg, nil)
}

func writeArtifacts(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	torrentPath := filepath.Join(dir, "release.torrent")
	nfoPath := filepath.Join(dir, "release.nfo")
	if err := os.WriteFile(torrentPath, []byte("d4:infoe"), 0o644); err != nil {
		t.Fatalf("write torrent: %v", err)
	}
	if err := os.WriteFile(nfoPath, []byte("description"), 0o644); err != nil {
		t.Fatalf("write nfo: %v", err)
	}
	return torrentPath, nfoPath
}

func TestExistsExactMatch(t *testing.T) {
	var gotQuery, gotExact string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotQuery = r.PostFormValue("query")
		gotExact = r.PostFormValue("exact")
		if r.PostFormValue("announcekey") == "" {
			t.Fatal("missing announce key")
		}
		w.Write([]byte("1\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	if !client.Exists(context.Background(), "Pink.Floyd-Animals", true) {
		t.Fatal("expected exact hit")
	}
	if gotExact != "1" {
		t.Fatalf("exact = %q", gotExact)
	}
	if gotQuery != "'Pink.Floyd-Animals'" {
		t.Fatalf("exact query should be quoted, got %q", gotQuery)
	}
}

func TestExistsFuzzyMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	if client.Exists(context.Background(), "Pink Floyd Animals", false) {
		t.Fatal("expected miss")
	}
}

func TestExistsDegradesToFalse(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1/search", "http://127.0.0.1:1/up", "http://127.0.0.1:1/dl", "key123")
	if client.Exists(context.Background(), "anything", false) {
		t.Fatal("unreachable tracker must degrade to false")
	}
}

func TestExistsWithoutAnnounceKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, server.URL, server.URL, "")
	if client.Exists(context.Background(), "anything", true) {
		t.Fatal("expected false without announce key")
	}
	if called {
		t.Fatal("no request should be sent without announce key")
	}
}

func TestSubmitReturnsTorrentID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.MultipartForm.File["torrent"] == nil || r.MultipartForm.File["nfo"] == nil {
			t.Fatal("missing file parts")
		}
		if r.FormValue("category") != "31" {
			t.Fatalf("category = %q", r.FormValue("category"))
		}
		if r.FormValue("imdb") != "" {
			t.Fatal("music upload must not carry imdb")
		}
		w.Write([]byte("123456"))
	}))
	defer server.Close()

	torrentPath, nfoPath := writeArtifacts(t)
	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	id, err := client.Submit(context.Background(), tracker.SubmitRequest{
		TorrentPath: torrentPath,
		NFOPath:     nfoPath,
		Category:    31,
		Tags:        "rock",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != 123456 {
		t.Fatalf("id = %d", id)
	}
}

func TestSubmitCarriesCrossReferences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("imdb") != "tt1375666" {
			t.Fatalf("imdb = %q", r.FormValue("imdb"))
		}
		w.Write([]byte("7"))
	}))
	defer server.Close()

	torrentPath, nfoPath := writeArtifacts(t)
	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	if _, err := client.Submit(context.Background(), tracker.SubmitRequest{
		TorrentPath: torrentPath,
		NFOPath:     nfoPath,
		Category:    14,
		IMDB:        "tt1375666",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmitNonNumericBodyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("duplicate torrent"))
	}))
	defer server.Close()

	torrentPath, nfoPath := writeArtifacts(t)
	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	_, err := client.Submit(context.Background(), tracker.SubmitRequest{
		TorrentPath: torrentPath,
		NFOPath:     nfoPath,
		Category:    31,
	})
	if err == nil {
		t.Fatal("expected error for non-numeric response")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "duplicate torrent") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestSubmitWithoutAnnounceKey(t *testing.T) {
	torrentPath, nfoPath := writeArtifacts(t)
	client := newTestClient(t, "http://127.0.0.1:1", "http://127.0.0.1:1", "http://127.0.0.1:1", "")
	_, err := client.Submit(context.Background(), tracker.SubmitRequest{
		TorrentPath: torrentPath,
		NFOPath:     nfoPath,
		Category:    31,
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFetchCanonical(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/42/42.torrent") {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte("d8:announcee"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	data, err := client.FetchCanonical(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchCanonical: %v", err)
	}
	if string(data) != "d8:announcee" {
		t.Fatalf("unexpected payload: %q", data)
	}
}

func TestFetchCanonicalNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, server.URL, server.URL, "key123")
	if _, err := client.FetchCanonical(context.Background(), 42); err == nil {
		t.Fatal("expected error for missing torrent")
	}
}
