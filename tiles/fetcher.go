package tiles

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"

	"golang.org/x/time/rate"
)

// Options configures a Fetcher. Zero values get sensible defaults.
type Options struct {
	CacheDir   string
	RPS        float64
	Burst      int
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	Keys       map[string]string // ${KEY} values for preset URLs
}

// Fetcher downloads XYZ tiles through a rate limiter and a disk cache.
type Fetcher struct {
	Client     *http.Client
	Limiter    *rate.Limiter
	CacheDir   string
	UserAgent  string
	MaxRetries int
	Keys       map[string]string

	backoff time.Duration
}

func NewFetcher(o Options) (*Fetcher, error) {
	if o.CacheDir == "" {
		o.CacheDir = ".tile-cache"
	}
	if o.RPS <= 0 {
		o.RPS = 4
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "trackplayer/1.0 (+tiles; https://openstreetmap.org)"
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if err := os.MkdirAll(o.CacheDir, 0o755); err != nil {
		return nil, err
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: o.Timeout},
		Limiter:    rate.NewLimiter(rate.Limit(o.RPS), o.Burst),
		CacheDir:   o.CacheDir,
		UserAgent:  o.UserAgent,
		MaxRetries: o.MaxRetries,
		Keys:       o.Keys,
		backoff:    200 * time.Millisecond,
	}, nil
}

// cachePath keys the cache by URL. Keys embedded in the URL never reach
// the file name.
func (f *Fetcher) cachePath(u string) string {
	sum := sha1.Sum([]byte(u))
	hexid := hex.EncodeToString(sum[:])
	ext := ".tile"
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	if j := strings.LastIndexByte(u, '.'); j >= 0 && j > len(u)-6 {
		ext = u[j:]
		if len(ext) > 5 || strings.ContainsRune(ext, '/') {
			ext = ".tile"
		}
	}
	return filepath.Join(f.CacheDir, hexid[:2], hexid[2:4], hexid+ext)
}

// GetTile returns the raw tile bytes, from cache when present.
func (f *Fetcher) GetTile(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	cp := f.cachePath(url)
	if b, err := os.ReadFile(cp); err == nil {
		return b, nil
	}
	if err := os.MkdirAll(filepath.Dir(cp), 0o755); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < f.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.backoff * time.Duration(attempt)):
			}
		}
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := f.download(ctx, url, headers)
		if err != nil {
			lastErr = err
			continue
		}
		tmp := cp + ".tmp"
		if err := os.WriteFile(tmp, body, 0o644); err != nil {
			return nil, err
		}
		if err := os.Rename(tmp, cp); err != nil {
			return nil, err
		}
		return body, nil
	}
	return nil, lastErr
}

func (f *Fetcher) download(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("tile HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return io.ReadAll(resp.Body)
}

// Tile fetches and decodes tile z/x/y of preset p.
func (f *Fetcher) Tile(ctx context.Context, p Preset, z, x, y int) (image.Image, error) {
	u, err := p.FillURL(z, x, y, f.Keys)
	if err != nil {
		return nil, err
	}
	data, err := f.GetTile(ctx, u, p.Headers)
	if err != nil {
		return nil, fmt.Errorf("get tile %d/%d/%d: %w", z, x, y, err)
	}
	img, err := decodeTile(data)
	if err != nil {
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", z, x, y, err)
	}
	return img, nil
}

func decodeTile(b []byte) (image.Image, error) {
	// Fast path: check first bytes for PNG/JPEG
	if len(b) >= 8 && bytes.Equal(b[:8], []byte{137, 80, 78, 71, 13, 10, 26, 10}) {
		return png.Decode(bytes.NewReader(b))
	}
	if len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF {
		return jpeg.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

func ClampZoom(z int, p Preset) int {
	if z < p.MinZoom {
		return p.MinZoom
	}
	if z > p.MaxZoom {
		return p.MaxZoom
	}
	return z
}
