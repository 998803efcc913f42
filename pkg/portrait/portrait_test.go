package portrait

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gen2brain/webp"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func imageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	body := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/md/70-batman.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(body)
		case "/md/garbage.jpg":
			w.Write([]byte("definitely not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoad(t *testing.T) {
	var hits atomic.Int32
	srv := imageServer(t, &hits)
	l := NewLoader(t.TempDir(), srv.Client())

	img := l.Load(context.Background(), srv.URL+"/md/70-batman.png")
	if img.Placeholder || img.Empty() {
		t.Fatalf("expected real portrait, got placeholder=%v len=%d", img.Placeholder, len(img.Data))
	}
	decoded, err := webp.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("portrait is not webp: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("unexpected bounds %v", b)
	}

	l.Load(context.Background(), srv.URL+"/md/70-batman.png")
	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 download, got %d", n)
	}
}

func TestLoadCoalescesConcurrent(t *testing.T) {
	var hits atomic.Int32
	body := pngBytes(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write(body)
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(t.TempDir(), srv.Client())
	u := srv.URL + "/md/1-a-bomb.png"

	var wg sync.WaitGroup
	results := make([]Image, 8)
	for i := range results {
		wg.Go(func() { results[i] = l.Load(context.Background(), u) })
	}

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 download, got %d", n)
	}
	for i, img := range results {
		if img.Placeholder || !bytes.Equal(img.Data, results[0].Data) {
			t.Errorf("load %d: unexpected result placeholder=%v", i, img.Placeholder)
		}
	}
}

func TestLoadDiskCache(t *testing.T) {
	var hits atomic.Int32
	srv := imageServer(t, &hits)
	dir := t.TempDir()
	u := srv.URL + "/md/70-batman.png"

	first := NewLoader(dir, srv.Client()).Load(context.Background(), u)
	second := NewLoader(dir, srv.Client()).Load(context.Background(), u)

	if n := hits.Load(); n != 1 {
		t.Errorf("expected disk cache to serve second loader, got %d downloads", n)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Errorf("disk cache returned different bytes")
	}
}

func TestLoadFallsBackToPlaceholder(t *testing.T) {
	var hits atomic.Int32
	srv := imageServer(t, &hits)
	l := NewLoader("", srv.Client())

	for _, u := range []string{
		"",
		"not a url",
		"ftp://example.test/a.png",
		srv.URL + "/md/missing.jpg",
		srv.URL + "/md/garbage.jpg",
	} {
		img := l.Load(context.Background(), u)
		if !img.Placeholder {
			t.Errorf("Load(%q): expected placeholder", u)
		}
		if img.Empty() {
			t.Errorf("Load(%q): placeholder has no data", u)
		}
	}
}

func TestPlaceholderIsWebP(t *testing.T) {
	p := NewLoader("", nil).Placeholder()
	img, err := webp.Decode(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("placeholder is not webp: %v", err)
	}
	if b := img.Bounds(); b.Dx() != placeholderSize || b.Dy() != placeholderSize {
		t.Errorf("unexpected placeholder bounds %v", b)
	}
}
