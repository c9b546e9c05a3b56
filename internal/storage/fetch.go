package storage

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// sqliteMagic is the first 16 bytes of every SQLite 3 file.
var sqliteMagic = []byte("SQLite format 3\x00")

// fetchToCache downloads the database bytes for a remote source, reusing the
// on-disk byte cache when present, and returns the local path to open.
func fetchToCache(source string, opts Options) (string, error) {
	log := opts.logger()

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create cache dir: %v", ErrSourceUnavailable, err)
	}
	cachePath := filepath.Join(cacheDir, cacheKey(source))

	if fi, err := os.Stat(cachePath); err == nil && fi.Size() > 0 {
		log.Debug("database cache hit", zap.String("source", source), zap.String("path", cachePath))
		return cachePath, nil
	}

	timeout := opts.HTTPTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	resp, err := client.Get(source)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch %s: HTTP %d", ErrSourceUnavailable, source, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, source, err)
	}

	data, err := maybeDecompress(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decompress %s: %v", ErrSourceUnavailable, source, err)
	}
	if !bytes.HasPrefix(data, sqliteMagic) {
		return "", fmt.Errorf("%w: %s is not a SQLite database", ErrSourceUnavailable, source)
	}

	// Write-then-rename so a torn download never looks like a cache hit.
	tmp, err := os.CreateTemp(cacheDir, "fetch-*.db")
	if err != nil {
		return "", fmt.Errorf("%w: cache write: %v", ErrSourceUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: cache write: %v", ErrSourceUnavailable, err)
	}
	tmp.Close()
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: cache write: %v", ErrSourceUnavailable, err)
	}

	log.Info("database fetched",
		zap.String("source", source),
		zap.Int("bytes", len(data)),
		zap.String("path", cachePath))
	return cachePath, nil
}

// maybeDecompress sniffs gzip/zstd magic and unwraps; anything else passes
// through untouched.
func maybeDecompress(data []byte) ([]byte, error) {
	switch {
	case len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case len(data) > 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return data, nil
}
