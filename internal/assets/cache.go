// Package assets caches generated media (scene images, voice-over audio)
// from the StoryReel CDN on local disk and serves it to the editor with
// HTTP range support, so audio scrubbing stays local after the first fetch.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"
)

type Cache struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[string]*sync.WaitGroup
}

func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{
		dir: dir,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger:   logger,
		inflight: make(map[string]*sync.WaitGroup),
	}, nil
}

// Fetch returns a local path for the media at rawURL, downloading it on
// first access. Concurrent fetches of the same URL share one download.
func (c *Cache) Fetch(rawURL string) (string, error) {
	local, err := c.localPath(rawURL)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}

		c.mu.Lock()
		if wg, ok := c.inflight[local]; ok {
			c.mu.Unlock()
			wg.Wait()
			continue
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		c.inflight[local] = wg
		c.mu.Unlock()

		err := c.download(rawURL, local)

		c.mu.Lock()
		delete(c.inflight, local)
		c.mu.Unlock()
		wg.Done()

		if err != nil {
			return "", err
		}
		return local, nil
	}
}

func (c *Cache) download(rawURL, local string) error {
	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		return fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset download returned HTTP %d", resp.StatusCode)
	}

	// Write to a temp file first so a partial download never looks cached.
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}

	if err := os.Rename(tmp.Name(), local); err != nil {
		return fmt.Errorf("failed to finalize asset: %w", err)
	}

	c.logger.Info("asset cached", "bytes", n, "path", filepath.Base(local))
	return nil
}

// localPath derives a stable cache filename from the URL, keeping the
// extension so content types resolve on serve.
func (c *Cache) localPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("invalid asset url %q", rawURL)
	}

	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16])
	if ext := path.Ext(u.Path); ext != "" {
		name += ext
	}
	return filepath.Join(c.dir, name), nil
}
