package artifacts

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"torrup/internal/services"
)

// BuildContainer creates a private v1 torrent for the source path and writes
// it to outDir as <releaseName>.torrent, returning the written path.
func (b *Builder) BuildContainer(ctx context.Context, sourcePath, releaseName, outDir string) (string, error) {
	totalSize, err := PathSize(sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "artifacts", "torrent", "measure source", err)
	}
	pieceLength := int64(1) << pieceSizeExponent(totalSize)

	info, err := b.buildInfoDict(ctx, sourcePath, pieceLength)
	if err != nil {
		return "", err
	}

	torrent := map[string]any{
		"announce":      b.announce(),
		"created by":    "torrup",
		"creation date": time.Now().Unix(),
		"info":          info,
	}

	var buf bytes.Buffer
	if err := encodeBencode(&buf, torrent); err != nil {
		return "", fmt.Errorf("encode torrent: %w", err)
	}

	outPath := filepath.Join(outDir, releaseName+".torrent")
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write torrent: %w", err)
	}
	return outPath, nil
}

func (b *Builder) buildInfoDict(ctx context.Context, sourcePath string, pieceLength int64) (map[string]any, error) {
	stat, err := os.Stat(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "artifacts", "torrent", "stat source", err)
	}

	info := map[string]any{
		"name":         filepath.Base(strings.TrimRight(sourcePath, string(os.PathSeparator))),
		"piece length": pieceLength,
		"private":      1,
		"source":       sourceTag,
	}

	if !stat.IsDir() {
		pieces, err := hashPieces(ctx, []string{sourcePath}, pieceLength)
		if err != nil {
			return nil, err
		}
		info["length"] = stat.Size()
		info["pieces"] = pieces
		return info, nil
	}

	paths, entries, err := collectFiles(sourcePath)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrValidation, "artifacts", "torrent", "source directory is empty", nil)
	}

	pieces, err := hashPieces(ctx, paths, pieceLength)
	if err != nil {
		return nil, err
	}
	info["files"] = entries
	info["pieces"] = pieces
	return info, nil
}

// collectFiles walks the source directory in lexical order and returns the
// absolute file paths alongside the bencode file entries.
func collectFiles(root string) ([]string, []any, error) {
	var paths []string
	var entries []any

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		components := make([]any, 0, 4)
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			components = append(components, part)
		}
		paths = append(paths, path)
		entries = append(entries, map[string]any{
			"length": info.Size(),
			"path":   components,
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, entries, nil
}

// hashPieces reads the files as one continuous stream and returns the
// concatenated SHA-1 digests of each piece.
func hashPieces(ctx context.Context, paths []string, pieceLength int64) ([]byte, error) {
	var pieces []byte
	hasher := sha1.New()
	var filled int64

	buf := make([]byte, 256<<10)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		for {
			n, readErr := file.Read(buf)
			data := buf[:n]
			for len(data) > 0 {
				take := pieceLength - filled
				if int64(len(data)) < take {
					take = int64(len(data))
				}
				hasher.Write(data[:take])
				filled += take
				data = data[take:]
				if filled == pieceLength {
					pieces = hasher.Sum(pieces)
					hasher.Reset()
					filled = 0
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				file.Close()
				return nil, fmt.Errorf("read %s: %w", path, readErr)
			}
		}
		file.Close()
	}
	if filled > 0 {
		pieces = hasher.Sum(pieces)
	}
	return pieces, nil
}
