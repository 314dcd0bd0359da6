package release_test

import (
	"strings"
	"testing"

	"torrup/internal/media"
	"torrup/internal/release"
)

func TestSanitizePreventsTraversal(t *testing.T) {
	got := release.Sanitize("../../etc/passwd")
	if strings.Contains(got, "..") || strings.Contains(got, "/") {
		t.Fatalf("traversal survived: %q", got)
	}
}

func TestSanitizeSpacesAndSpecials(t *testing.T) {
	got := release.Sanitize("Back In Black (Remaster)")
	if strings.ContainsAny(got, "() ") {
		t.Fatalf("unsafe characters survived: %q", got)
	}
	if got != "Back.In.Black.Remaster" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := release.Sanitize(""); got != "unnamed" {
		t.Fatalf("expected unnamed, got %q", got)
	}
	if got := release.Sanitize("!!!"); got != "unnamed" {
		t.Fatalf("expected unnamed for all-unsafe input, got %q", got)
	}
}

func TestGenerateMusicStandardFormat(t *testing.T) {
	meta := media.Metadata{
		Artist:  "Pink Floyd",
		Album:   "Dark Side of the Moon",
		Year:    "1973",
		Source:  "WEB",
		Format:  "FLAC",
		Bitrate: "16bit",
	}
	name := release.Generate(meta, media.TypeMusic, "Torrup")
	if name != "Pink.Floyd-Dark.Side.of.the.Moon-1973-WEB-FLAC-16bit-Torrup" {
		t.Fatalf("unexpected name: %q", name)
	}
}

func TestGenerateMusicOmitsMissingYear(t *testing.T) {
	meta := media.Metadata{
		Artist:  "Daft Punk",
		Album:   "Discovery",
		Source:  "WEB",
		Format:  "MP3",
		Bitrate: "V0",
	}
	name := release.Generate(meta, media.TypeMusic, "Torrup")
	if name != "Daft.Punk-Discovery-WEB-MP3-V0-Torrup" {
		t.Fatalf("unexpected name: %q", name)
	}
}

func TestGenerateMusicDefaults(t *testing.T) {
	name := release.Generate(media.Metadata{}, media.TypeMusic, "Torrup")
	if !strings.Contains(name, "Unknown") {
		t.Fatalf("expected Unknown defaults, got %q", name)
	}
	if !strings.HasSuffix(name, "-Torrup") {
		t.Fatalf("expected group suffix, got %q", name)
	}
}

func TestGenerateMusicSanitizesSpecials(t *testing.T) {
	meta := media.Metadata{
		Artist:  "AC/DC",
		Album:   "Back In Black (Remaster)",
		Year:    "1980",
		Source:  "CD",
		Format:  "FLAC",
		Bitrate: "16bit",
	}
	name := release.Generate(meta, media.TypeMusic, "Torrup")
	if strings.ContainsAny(name, "/()") {
		t.Fatalf("specials survived: %q", name)
	}
}

func TestGenerateMovie(t *testing.T) {
	name := release.Generate(media.Metadata{Title: "Inception", Year: "2010"}, media.TypeMovies, "Torrup")
	if name != "Inception.2010-Torrup" {
		t.Fatalf("unexpected name: %q", name)
	}
}

func TestGenerateMovieWithoutYear(t *testing.T) {
	name := release.Generate(media.Metadata{Title: "Inception"}, media.TypeMovies, "Torrup")
	if name != "Inception-Torrup" {
		t.Fatalf("unexpected name: %q", name)
	}
}

func TestSuggestTitleCasesFolderName(t *testing.T) {
	got := release.Suggest("/mnt/music/the_dark side-of.everything", true)
	if got != "The.Dark.Side.Of.Everything" {
		t.Fatalf("unexpected suggestion: %q", got)
	}
}

func TestSuggestStripsFileExtension(t *testing.T) {
	got := release.Suggest("/mnt/movies/inception.2010.mkv", false)
	if strings.Contains(strings.ToLower(got), "mkv") {
		t.Fatalf("extension survived: %q", got)
	}
}

func TestNeedsFallback(t *testing.T) {
	if !release.NeedsFallback("Unknown.Artist-Unknown.Album-WEB-MP3-320-torrup") {
		t.Fatal("expected fallback for Unknown name")
	}
	if release.NeedsFallback("Pink.Floyd-Animals-1977-WEB-FLAC-16bit-torrup") {
		t.Fatal("did not expect fallback for complete name")
	}
}

func TestSearchQueryMusic(t *testing.T) {
	meta := media.Metadata{Artist: "3030", Album: "Quinta Dimensao"}
	got := release.SearchQuery(meta, media.TypeMusic, "/music/3030/album", true)
	if got != "3030 Quinta Dimensao" {
		t.Fatalf("unexpected query: %q", got)
	}
}

func TestSearchQueryFallsBackToFolder(t *testing.T) {
	got := release.SearchQuery(media.Metadata{}, media.TypeMovies, "/movies/Inception (2010)", true)
	if got != "Inception (2010)" {
		t.Fatalf("unexpected query: %q", got)
	}
}

func TestIsExcluded(t *testing.T) {
	excludes := []string{"torrents", "tmp"}
	if !release.IsExcluded("/data/Torrents/album", excludes) {
		t.Fatal("expected exclusion to match case-insensitively")
	}
	if release.IsExcluded("/data/music/album", excludes) {
		t.Fatal("unexpected exclusion")
	}
}
