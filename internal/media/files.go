package media

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// audioPriority ranks audio container quality. Lower is preferred when
// selecting the file whose tags represent a music release.
var audioPriority = map[string]int{
	".flac": 0,
	".wav":  1,
	".m4a":  2,
	".mp3":  3,
	".ogg":  4,
	".opus": 5,
}

var skipSuffixes = map[string]struct{}{
	".tmp": {},
	".bak": {},
}

var typeExtensions = map[Type]map[string]struct{}{
	TypeMovies: videoExtensions(),
	TypeTV:     videoExtensions(),
	TypeMusic: {
		".flac": {}, ".wav": {}, ".m4a": {}, ".mp3": {}, ".ogg": {}, ".opus": {},
	},
	TypeBooks: {
		".epub": {}, ".pdf": {}, ".mobi": {}, ".azw3": {},
	},
	TypeMagazines: {
		".epub": {}, ".pdf": {}, ".mobi": {}, ".azw3": {},
	},
}

func videoExtensions() map[string]struct{} {
	return map[string]struct{}{".mkv": {}, ".mp4": {}, ".avi": {}, ".m4v": {}}
}

// PrimaryFile picks the file whose embedded tags best represent the release.
// For music the highest quality audio format wins; for everything else the
// first matching file is returned. Hidden and temp files are skipped. An
// empty string means no candidate was found.
func PrimaryFile(path string, mediaType Type) string {
	extensions, ok := typeExtensions[mediaType]
	if !ok {
		extensions = typeExtensions[TypeMovies]
	}

	if isRegularFile(path) {
		return path
	}

	var candidates []string
	walkErr := filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() && entry != path {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if _, skip := skipSuffixes[ext]; skip {
			return nil
		}
		if _, ok := extensions[ext]; !ok {
			return nil
		}
		candidates = append(candidates, entry)
		return nil
	})
	if walkErr != nil || len(candidates) == 0 {
		return ""
	}

	if mediaType == TypeMusic {
		sort.SliceStable(candidates, func(i, j int) bool {
			return audioRank(candidates[i]) < audioRank(candidates[j])
		})
	} else {
		sort.Strings(candidates)
	}
	return candidates[0]
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func audioRank(path string) int {
	if rank, ok := audioPriority[strings.ToLower(filepath.Ext(path))]; ok {
		return rank
	}
	return 99
}
