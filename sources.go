package main

// TargetSource impls, and loading a target set from one

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/regginator/hashbrute/config"
	"github.com/regginator/hashbrute/digest"
	"github.com/regginator/hashbrute/feed"
	"github.com/regginator/hashbrute/hashlist"
	"github.com/regginator/hashbrute/pool"
)

type FileSource struct {
	Path string
}

func (src *FileSource) Describe() string {
	return fmt.Sprintf("Reading hashes from '%s'..", src.Path)
}

func (src *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(src.Path)
}

type StdinSource struct {
	In io.Reader
}

func (src *StdinSource) Describe() string {
	return "Enter hash values, one per line (press Ctrl+D or Ctrl+Z to finish):"
}

// Reads from In on a separate goroutine so a cancelled ctx ends the stream even while In blocks
func (src *StdinSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := io.Copy(pw, src.In)
		pw.CloseWithError(err)
	}()

	stop := context.AfterFunc(ctx, func() {
		pw.CloseWithError(ctx.Err())
	})

	return &stdinReader{PipeReader: pr, stop: stop}, nil
}

type stdinReader struct {
	*io.PipeReader
	stop func() bool
}

func (r *stdinReader) Close() error {
	r.stop()
	return r.PipeReader.Close()
}

// Remote hash list, retried with the next proxy from the pool (if any) after every failure
type FeedSource struct {
	URL       string
	Proxy     string
	Pool      *pool.Pool
	Retries   int
	UserAgent string
	Timeout   time.Duration

	// Called after each failed attempt that will be retried
	OnRetry func(attempt int, err error)
}

func (src *FeedSource) Describe() string {
	return fmt.Sprintf("Fetching hashes from feed '%s'..", src.URL)
}

func (src *FeedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	var lastErr error

	attempt := 0
	for ; attempt <= src.Retries; attempt++ {
		if attempt > 0 && src.OnRetry != nil {
			src.OnRetry(attempt, lastErr)
		}

		client := &feed.Client{
			URL:              src.URL,
			ProxyAddr:        src.Proxy,
			UserAgent:        src.UserAgent,
			HandshakeTimeout: src.Timeout,
		}

		if src.Pool != nil {
			proxyAddr, err := src.Pool.Get()
			if err != nil {
				return nil, fmt.Errorf("failed to get proxy from pool: %w", err)
			}
			client.ProxyAddr = proxyAddr
		}

		rc, err := client.Open(ctx)
		if err == nil {
			return rc, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			attempt++
			break
		}
	}

	return nil, fmt.Errorf("giving up on feed after (%d) attempts: %w", attempt, lastErr)
}

func isFeedURL(s string) bool {
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) {
			return true
		}
	}
	return false
}

// Pick the source for the -f value: empty or "-" is stdin, a URL is a feed, anything else a file
func newTargetSource(arg string, cfg *config.Config, stdin io.Reader) (TargetSource, error) {
	switch {
	case arg == "" || arg == "-":
		return &StdinSource{In: stdin}, nil
	case isFeedURL(arg):
		src := &FeedSource{
			URL:       arg,
			Proxy:     cfg.Feed.Proxy,
			Retries:   cfg.Feed.Retries,
			UserAgent: cfg.Feed.UserAgent,
			Timeout:   cfg.Feed.Timeout,
			OnRetry: func(attempt int, err error) {
				pterm.Warning.Printf("feed attempt %d failed: %s, retrying\n", attempt, err)
			},
		}

		if cfg.Feed.Proxies != "" {
			p, err := pool.New(cfg.Feed.Proxies)
			if err != nil {
				return nil, fmt.Errorf("failed to read proxies file: %w", err)
			}
			src.Pool = p
		}

		return src, nil
	}

	return &FileSource{Path: arg}, nil
}

// Read every hash from src. Malformed lines are reported as warnings and skipped
func loadTargets(ctx context.Context, src TargetSource) (digest.Targets, error) {
	pterm.Info.Println(src.Describe())

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	targets, warnings, err := hashlist.Parse(rc)
	for _, w := range warnings {
		pterm.Warning.Printf("%s\n", w)
	}
	if err != nil {
		return nil, err
	}

	return targets, nil
}
