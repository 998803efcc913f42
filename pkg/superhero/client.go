package superhero

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://akabab.github.io/superhero-api/api"
	// CatalogSize is the highest hero id the API serves.
	CatalogSize = 563

	maxBodyBytes = 1 << 20
)

// NetworkError is a transport or HTTP status failure of a hero fetch.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client talks to the superhero API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for base. A zero timeout keeps the net/http default.
func New(base string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint of hero id.
func (c *Client) URL(id int) string {
	return c.BaseURL + "/id/" + strconv.Itoa(id) + ".json"
}

// RandomID returns a uniformly random id in [1, size].
func RandomID(r *rand.Rand, size int) int {
	if size < 1 {
		size = 1
	}
	if r == nil {
		return rand.IntN(size) + 1
	}
	return r.IntN(size) + 1
}

// Fetch returns the raw body of hero id. Any failure is a *NetworkError.
func (c *Client) Fetch(ctx context.Context, id int) ([]byte, error) {
	u := c.URL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &NetworkError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{URL: u, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
