package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"beautyrec/internal/port"
)

// Fetcher reads artifacts from http(s) URLs, file:// URLs or plain paths.
type Fetcher struct {
	client *http.Client
}

var _ port.ArtifactFetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the full payload behind location.
func (f *Fetcher) Fetch(ctx context.Context, location string, progress port.ProgressFunc) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact location %q: %w", location, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, location, progress)
	case "file":
		return readFile(u.Path, progress)
	case "":
		return readFile(location, progress)
	default:
		return nil, fmt.Errorf("unsupported artifact scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string, progress port.ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s returned status %d: %s", location, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return readAll(resp.Body, resp.ContentLength, progress)
}

func readFile(path string, progress port.ProgressFunc) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	size := int64(-1)
	if info, err := fh.Stat(); err == nil {
		size = info.Size()
	}
	return readAll(fh, size, progress)
}

func readAll(r io.Reader, total int64, progress port.ProgressFunc) ([]byte, error) {
	if progress == nil {
		return io.ReadAll(r)
	}
	pr := &progressReader{r: r, total: total, fn: progress}
	data, err := io.ReadAll(pr)
	if err != nil {
		return nil, err
	}
	return data, nil
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    port.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.read, p.total)
	}
	return n, err
}
