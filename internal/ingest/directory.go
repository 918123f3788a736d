package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/cache"
)

// FSLoader reads images from the local filesystem.
type FSLoader struct {
	MaxBytes int64 // 0 -> constants.MaxImageBytes
	logger   *slog.Logger
}

func NewFSLoader(logger *slog.Logger) *FSLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSLoader{MaxBytes: constants.MaxImageBytes, logger: logger}
}

func (l *FSLoader) LoadPath(ctx context.Context, path string) (Image, error) {
	var out Image
	if err := ctx.Err(); err != nil {
		return out, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return out, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.logger.Warn("ingest.close_failed", "path", abs, "error", err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return out, err
	}
	max := l.MaxBytes
	if max <= 0 {
		max = constants.MaxImageBytes
	}
	if info.Size() > max {
		return out, fmt.Errorf("image is %d bytes, limit is %d", info.Size(), max)
	}
	if info.Size() == 0 {
		return out, errors.New("empty file")
	}

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return out, err
	}

	return Image{
		SourcePath: abs,
		FileExt:    ext,
		HashHex:    cache.Key(data),
		Size:       int64(len(data)),
		ModTime:    info.ModTime().UTC(),
		Data:       data,
	}, nil
}

// LoadDirectory walks root, skips hidden entries if requested and loads
// each image. Images with the same content are returned once.
func (l *FSLoader) LoadDirectory(ctx context.Context, root string, skipHidden bool) ([]Image, []FileError, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var (
		images []Image
		failed []FileError
		stats  DirStats
		seen   = map[string]string{}
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			failed = append(failed, FileError{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		img, err := l.LoadPath(ctx, path)
		if err != nil {
			l.logger.Warn("ingest.file_failed", "path", path, "error", err)
			failed = append(failed, FileError{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if first, dup := seen[img.HashHex]; dup {
			l.logger.Info("ingest.duplicate", "path", img.SourcePath, "same_as", first)
			return nil
		}
		seen[img.HashHex] = img.SourcePath
		images = append(images, img)
		stats.Loaded++
		return nil
	})
	if err != nil {
		return images, failed, stats, err
	}

	l.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"failed", stats.Failed,
	)
	return images, failed, stats, nil
}
