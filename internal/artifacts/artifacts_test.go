package artifacts

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/testsupport"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(testsupport.NewConfig(t), logging.NewNop())
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "512.0 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
		{5 << 30, "5.0 GB"},
	}
	for _, tc := range cases {
		if got := HumanSize(tc.size); got != tc.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestPieceSizeExponent(t *testing.T) {
	cases := []struct {
		bytes int64
		want  uint
	}{
		{10 << 20, 15},
		{100 << 20, 16},
		{400 << 20, 18},
		{1536 << 20, 20},
		{64 << 30, 24},
	}
	for _, tc := range cases {
		if got := pieceSizeExponent(tc.bytes); got != tc.want {
			t.Errorf("pieceSizeExponent(%d) = %d, want %d", tc.bytes, got, tc.want)
		}
	}
}

func TestEncodeBencodeSortsDictionaryKeys(t *testing.T) {
	var buf bytes.Buffer
	err := encodeBencode(&buf, map[string]any{
		"zebra": 1,
		"alpha": "x",
		"list":  []any{"a", int64(2)},
	})
	if err != nil {
		t.Fatalf("encodeBencode: %v", err)
	}
	want := "d5:alpha1:x4:listl1:ai2ee5:zebrai1ee"
	if buf.String() != want {
		t.Fatalf("encoded = %q, want %q", buf.String(), want)
	}
}

func TestAnnouncePersonalization(t *testing.T) {
	builder := newTestBuilder(t)
	builder.announceURL = "https://tracker.example.org/"
	builder.announceKey = "abc123"
	if got := builder.announce(); got != "https://tracker.example.org/a/abc123/announce" {
		t.Fatalf("announce = %q", got)
	}
	builder.announceKey = ""
	if got := builder.announce(); got != "https://tracker.example.org" {
		t.Fatalf("announce without key = %q", got)
	}
}

func TestBuildContainerSingleFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "album.flac")
	payload := bytes.Repeat([]byte("x"), 100<<10)
	if err := os.WriteFile(source, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	builder := newTestBuilder(t)
	outPath, err := builder.BuildContainer(context.Background(), source, "Test.Release", dir)
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	if filepath.Base(outPath) != "Test.Release.torrent" {
		t.Fatalf("outPath = %q", outPath)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read torrent: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("d8:announce")) {
		t.Fatalf("torrent does not start with announce: %q", data[:20])
	}
	if !bytes.Contains(data, []byte("7:privatei1e")) {
		t.Fatal("torrent is not flagged private")
	}
	if !bytes.Contains(data, []byte("6:source16:TorrentLeech.org")) {
		t.Fatal("missing source tag")
	}
	if !bytes.Contains(data, []byte("4:name10:album.flac")) {
		t.Fatal("missing name")
	}
	// 100 KB at 32 KB pieces is four pieces of 20 bytes each.
	if !bytes.Contains(data, []byte("6:pieces80:")) {
		t.Fatal("unexpected piece digest length")
	}
}

func TestBuildContainerDirectory(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "Album")
	if err := os.MkdirAll(filepath.Join(source, "CD1"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "CD1", "01.flac"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "notes.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	builder := newTestBuilder(t)
	outPath, err := builder.BuildContainer(context.Background(), source, "Album.Release", dir)
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read torrent: %v", err)
	}
	if !bytes.Contains(data, []byte("5:files")) {
		t.Fatal("directory torrent must carry a files list")
	}
	if !bytes.Contains(data, []byte("l3:CD17:01.flace")) {
		t.Fatal("nested file path missing")
	}
	if !bytes.Contains(data, []byte("4:name5:Album")) {
		t.Fatal("directory name missing")
	}
}

func TestBuildContainerEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "empty")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	builder := newTestBuilder(t)
	if _, err := builder.BuildContainer(context.Background(), source, "Empty", dir); err == nil {
		t.Fatal("expected error for empty source directory")
	}
}

func TestBuildDescription(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "book.epub")
	if err := os.WriteFile(source, []byte("book"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	builder := newTestBuilder(t)
	meta := media.Metadata{Title: "The Go Programming Language", Author: "Donovan", Year: "2015"}
	outPath, err := builder.BuildDescription(context.Background(), source, "The.Go.Programming.Language", media.TypeBooks, "torrup", meta, dir)
	if err != nil {
		t.Fatalf("BuildDescription: %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read nfo: %v", err)
	}
	text := string(content)
	for _, want := range []string{
		"The.Go.Programming.Language",
		"Release Group  : torrup",
		"METADATA",
		"Author         : Donovan",
		"Year           : 2015",
		"No media info available",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("nfo missing %q", want)
		}
	}
}

func TestBuildDescriptionAlbumArt(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "album.flac")
	if err := os.WriteFile(source, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	builder := newTestBuilder(t)
	meta := media.Metadata{
		Artist:       "Tester",
		Album:        "Release",
		AlbumArtName: "cover.jpg",
		AlbumArtSize: "1.0 KB",
	}
	outPath, err := builder.BuildDescription(context.Background(), source, "Tester-Release-2020", media.TypeMusic, "torrup", meta, dir)
	if err != nil {
		t.Fatalf("BuildDescription: %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read nfo: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "ALBUM ART") {
		t.Fatalf("nfo missing album art section:\n%s", text)
	}
	if !strings.Contains(text, "Extracted Art  : cover.jpg, 1.0 KB") {
		t.Fatalf("nfo missing extracted art line:\n%s", text)
	}

	meta.AlbumArtName = ""
	outPath, err = builder.BuildDescription(context.Background(), source, "Tester-Release-2020", media.TypeMusic, "torrup", meta, dir)
	if err != nil {
		t.Fatalf("BuildDescription: %v", err)
	}
	content, err = os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read nfo: %v", err)
	}
	if strings.Contains(string(content), "ALBUM ART") {
		t.Fatal("album art section rendered without artwork")
	}
}

func TestFilterPathLines(t *testing.T) {
	input := strings.Join([]string{
		"General",
		"Complete name : /home/user/music/song.flac",
		"Format        : FLAC",
		"Something     : /etc/leaky",
		"Duration      : 4 min",
	}, "\n")
	filtered := filterPathLines([]byte(input))
	if strings.Contains(filtered, "/home/user") || strings.Contains(filtered, "/etc/leaky") {
		t.Fatalf("paths leaked: %q", filtered)
	}
	if !strings.Contains(filtered, "Format        : FLAC") {
		t.Fatalf("kept lines missing: %q", filtered)
	}
}

func TestBuildManifest(t *testing.T) {
	dir := t.TempDir()
	builder := newTestBuilder(t)

	outPath, err := builder.BuildManifest(ManifestInput{
		ReleaseName: "Test.Release",
		MediaType:   media.TypeMusic,
		SourcePath:  "/music/Test Release",
		SizeBytes:   2048,
		TorrentPath: "/staging/Test.Release.torrent",
		NFOPath:     "/staging/Test.Release.nfo",
		Tags:        "rock",
		Metadata:    media.Metadata{Artist: "Tester", Album: "Release"},
	}, dir)
	if err != nil {
		t.Fatalf("BuildManifest: %v", err)
	}

	payload, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var doc manifestDoc
	if err := xml.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if doc.ReleaseName != "Test.Release" || doc.SizeHuman != "2.0 KB" {
		t.Fatalf("unexpected manifest: %+v", doc)
	}
	if doc.Metadata == nil || doc.Metadata.Artist != "Tester" {
		t.Fatalf("metadata missing: %+v", doc.Metadata)
	}
	if doc.ThumbPath != "" {
		t.Fatalf("thumb path should be empty, got %q", doc.ThumbPath)
	}
}

func TestPathSizeDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), bytes.Repeat([]byte("x"), 10), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b"), bytes.Repeat([]byte("y"), 20), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	size, err := PathSize(dir)
	if err != nil {
		t.Fatalf("PathSize: %v", err)
	}
	if size != 30 {
		t.Fatalf("size = %d", size)
	}
}
