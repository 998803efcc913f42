package portrait

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"

	"superhero/pkg/flight"
	"superhero/pkg/utils"
)

const (
	maxImageBytes   = 10 << 20
	placeholderSize = 150
)

// Image is an encoded webp portrait.
type Image struct {
	URL         string `json:"url,omitempty"`
	Data        []byte `json:"-"`
	Placeholder bool   `json:"placeholder"`
}

// Empty reports whether there is nothing to show.
func (i Image) Empty() bool { return len(i.Data) == 0 }

// Loader downloads portraits, re-encodes them to webp and caches them in
// memory and under Dir. Load never fails; problems yield the placeholder.
type Loader struct {
	HTTP *http.Client
	Dir  string

	cache *flight.Cache[string, []byte]
}

func NewLoader(dir string, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	l := &Loader{HTTP: client, Dir: dir}
	l.cache = flight.NewCache(l.fetch)
	return l
}

// Load returns the portrait at rawURL, or the placeholder if the URL is
// unusable or the image cannot be fetched or decoded.
func (l *Loader) Load(ctx context.Context, rawURL string) Image {
	u, err := url.Parse(rawURL)
	if rawURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		log.Warn("portrait url unusable, using placeholder", "url", rawURL)
		return l.Placeholder()
	}

	data, err := l.cache.Get(ctx, rawURL)
	if err != nil {
		log.Warn("portrait load failed, using placeholder", "url", rawURL, "error", err)
		return l.Placeholder()
	}
	return Image{URL: rawURL, Data: data}
}

// Placeholder is a flat gray square shown while a portrait loads or when it
// cannot be loaded.
func (l *Loader) Placeholder() Image {
	return Image{Data: placeholder(), Placeholder: true}
}

var placeholder = sync.OnceValue(func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 229, G: 229, B: 234, A: 255}}, image.Point{}, draw.Src)

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: true}); err != nil {
		log.Error("failed to encode placeholder portrait", "error", err)
		return nil
	}
	return buf.Bytes()
})

func (l *Loader) path(rawURL string) string {
	return filepath.Join(l.Dir, utils.SanitizeFilename(rawURL)+".webp")
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if l.Dir != "" {
		if data, err := os.ReadFile(l.path(rawURL)); err == nil {
			log.Debug("cache hit for portrait", "url", rawURL)
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("portrait get %s: %s", rawURL, resp.Status)
	}

	data, err := toWebP(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}

	if l.Dir != "" {
		if err := l.save(rawURL, data); err != nil {
			log.Warn("failed to cache portrait on disk", "url", rawURL, "error", err)
		}
	}
	return data, nil
}

// toWebP decodes any registered image format (jpeg, png, webp) and
// re-encodes it as webp.
func toWebP(r io.Reader) ([]byte, error) {
	imgBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func (l *Loader) save(rawURL string, data []byte) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create image dir: %w", err)
	}
	fullPath := l.path(rawURL)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}
	return nil
}
