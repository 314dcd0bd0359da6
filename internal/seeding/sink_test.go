package seeding_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"torrup/internal/logging"
	"torrup/internal/seeding"
	"torrup/internal/testsupport"
)

func writeTorrent(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Release.torrent")
	if err := os.WriteFile(path, []byte("d4:infoe"), 0o644); err != nil {
		t.Fatalf("write torrent: %v", err)
	}
	return path
}

func TestAddLogsInAndSubmits(t *testing.T) {
	var loggedIn bool
	var gotSavePath, gotTags string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/auth/login":
			if r.PostFormValue("username") != "admin" {
				t.Fatalf("username = %q", r.PostFormValue("username"))
			}
			loggedIn = true
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: "abc"})
		case "/api/v2/torrents/add":
			if !loggedIn {
				t.Fatal("add before login")
			}
			if cookie, err := r.Cookie("SID"); err != nil || cookie.Value != "abc" {
				t.Fatal("session cookie not carried")
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse multipart: %v", err)
			}
			if r.MultipartForm.File["torrents"] == nil {
				t.Fatal("missing torrent part")
			}
			gotSavePath = r.FormValue("savepath")
			gotTags = r.FormValue("tags")
			w.Write([]byte("Ok."))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.QBittorrent.URL = server.URL
	cfg.QBittorrent.Username = "admin"
	cfg.QBittorrent.Password = "secret"

	sink := seeding.NewQBittorrent(cfg, logging.NewNop())
	ok := sink.Add(context.Background(), writeTorrent(t), "/music/Artist/Album", "torrup")
	if !ok {
		t.Fatal("Add returned false")
	}
	if gotSavePath != "/music/Artist" {
		t.Fatalf("savepath = %q, want parent of content", gotSavePath)
	}
	if gotTags != "torrup" {
		t.Fatalf("tags = %q", gotTags)
	}
}

func TestAddRejectedAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/torrents/add" {
			w.Write([]byte("Fails."))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.QBittorrent.URL = server.URL

	sink := seeding.NewQBittorrent(cfg, logging.NewNop())
	if sink.Add(context.Background(), writeTorrent(t), "/music/Album", "torrup") {
		t.Fatal("expected false for rejected add")
	}
}

func TestAddUnreachableInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.QBittorrent.URL = "http://127.0.0.1:1"

	sink := seeding.NewQBittorrent(cfg, logging.NewNop())
	if sink.Add(context.Background(), writeTorrent(t), "/music/Album", "torrup") {
		t.Fatal("expected false for unreachable instance")
	}
}

func TestNopSink(t *testing.T) {
	if seeding.NewNop().Add(context.Background(), "x", "y", "z") {
		t.Fatal("nop sink must report false")
	}
}
