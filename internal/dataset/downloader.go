// Package dataset fetches the movie dataset over HTTP for first-run setup.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	// ErrDownloadSkipped is returned when the destination already holds a
	// non-empty dataset and Force is off.
	ErrDownloadSkipped = errors.New("download skipped: dataset already present")

	// ErrCircuitOpen is returned when the circuit breaker is in open state
	// and rejects requests to prevent hammering a failing server.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Config holds the configuration for a Downloader.
type Config struct {
	// URL is the dataset location. Required.
	URL string

	// Dest is the file path the dataset is written to. Required.
	Dest string

	// Force re-downloads even when Dest already exists.
	Force bool

	// Attempts is the number of tries before giving up.
	// Default: 3
	Attempts int

	// Backoff is the delay after the first failed attempt; it doubles on
	// each subsequent failure.
	// Default: 1 second
	Backoff time.Duration

	// Client is the HTTP client used for the fetch.
	// Default: http.DefaultClient
	Client *http.Client
}

// Downloader fetches the dataset with retry pacing and a circuit breaker.
// The file is streamed to a temporary sibling and renamed into place only
// after the whole body arrived, so readers never observe a partial dataset.
type Downloader struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// New creates a Downloader, applying defaults for unset Config fields.
func New(cfg Config) (*Downloader, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("dataset: download URL is required")
	}
	if cfg.Dest == "" {
		return nil, fmt.Errorf("dataset: destination path is required")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}

	settings := gobreaker.Settings{
		Name:        "DatasetDownloader",
		MaxRequests: 1,
		Interval:    0, // Don't clear counts periodically
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Downloader{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}, nil
}

// Download fetches the dataset, retrying with exponential backoff. It
// returns the number of bytes written, or ErrDownloadSkipped when the
// destination is already populated.
func (d *Downloader) Download(ctx context.Context) (int64, error) {
	if !d.cfg.Force {
		if info, err := os.Stat(d.cfg.Dest); err == nil && info.Size() > 0 {
			return 0, fmt.Errorf("%w: %s (%d bytes)", ErrDownloadSkipped, d.cfg.Dest, info.Size())
		}
	}

	if err := os.MkdirAll(filepath.Dir(d.cfg.Dest), 0o755); err != nil {
		return 0, fmt.Errorf("dataset: cannot create destination directory: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.Attempts; attempt++ {
		// The limiter paces attempts globally; Wait also surfaces context
		// cancellation between attempts.
		if err := d.limiter.Wait(ctx); err != nil {
			return 0, err
		}

		n, err := d.fetchOnce(ctx)
		if err == nil {
			log.Printf("Downloaded %d bytes to %s", n, d.cfg.Dest)
			return n, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
			break
		}
		if attempt < d.cfg.Attempts {
			delay := d.cfg.Backoff << (attempt - 1)
			log.Printf("Warning: download attempt %d/%d failed: %v (retrying in %s)",
				attempt, d.cfg.Attempts, err, delay)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return 0, fmt.Errorf("download failed after %d attempts: %w", d.cfg.Attempts, lastErr)
}

// fetchOnce runs one fetch through the circuit breaker, mapping the open
// state to ErrCircuitOpen.
func (d *Downloader) fetchOnce(ctx context.Context) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	result, err := d.breaker.Execute(func() (interface{}, error) {
		return d.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, ErrCircuitOpen
		}
		return 0, err
	}
	return result.(int64), nil
}

// fetch performs a single GET and streams the body to Dest via a temporary
// file. The rename happens only after the body was fully written and the
// size matched any declared Content-Length.
func (d *Downloader) fetch(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid download URL: %w", err)
	}

	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", d.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch %s: unexpected status %s", d.cfg.URL, resp.Status)
	}

	tmp := d.cfg.Dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("cannot create %s: %w", tmp, err)
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("close %s: %w", tmp, err)
	}

	if want := resp.ContentLength; want > 0 && n != want {
		os.Remove(tmp)
		return 0, fmt.Errorf("truncated download: got %d bytes, want %d", n, want)
	}

	if err := os.Rename(tmp, d.cfg.Dest); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("cannot move dataset into place: %w", err)
	}
	return n, nil
}
