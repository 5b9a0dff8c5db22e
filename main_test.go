package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/regginator/hashbrute/config"
	"github.com/regginator/hashbrute/digest"
	"github.com/regginator/hashbrute/pool"
	"github.com/spf13/pflag"
)

const (
	appleMD5    = "1f3870be274f6c49b3e31a0c6728957f"
	appleSHA256 = "3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

func TestNewTargetSource(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		arg string
		want string
	}{
		{"", "*main.StdinSource"},
		{"-", "*main.StdinSource"},
		{"hashes.txt", "*main.FileSource"},
		{"http://example.com/hashes.txt", "*main.FeedSource"},
		{"HTTPS://example.com/hashes.txt", "*main.FeedSource"},
		{"wss://example.com/feed", "*main.FeedSource"},
	}
	for _, tt := range tests {
		src, err := newTargetSource(tt.arg, cfg, strings.NewReader(""))
		if err != nil {
			t.Fatalf("newTargetSource(%q): %v", tt.arg, err)
		}
		if got := fmt.Sprintf("%T", src); got != tt.want {
			t.Errorf("newTargetSource(%q) = %s, want %s", tt.arg, got, tt.want)
		}
	}
}

func TestNewTargetSourceProxies(t *testing.T) {
	cfg := config.Default()
	cfg.Feed.Proxies = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := newTargetSource("http://example.com", cfg, nil); err == nil {
		t.Error("expected error for a missing proxies file")
	}

	path := filepath.Join(t.TempDir(), "proxies.txt")
	if err := os.WriteFile(path, []byte("socks5://127.0.0.1:1080\nsocks4://127.0.0.1:1081\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg.Feed.Proxies = path
	src, err := newTargetSource("http://example.com", cfg, nil)
	if err != nil {
		t.Fatalf("newTargetSource: %v", err)
	}
	if feedSrc := src.(*FeedSource); feedSrc.Pool == nil || feedSrc.Pool.Len() != 2 {
		t.Errorf("expected a pool of 2 proxies, got %+v", feedSrc.Pool)
	}
}

func TestLoadTargetsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.txt")
	content := appleMD5 + "\nnot-a-hash\n" + strings.ToUpper(appleSHA256) + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	targets, err := loadTargets(context.Background(), &FileSource{Path: path})
	if err != nil {
		t.Fatalf("loadTargets: %v", err)
	}
	if len(targets) != 2 || targets[appleMD5] != digest.MD5 || targets[appleSHA256] != digest.SHA256 {
		t.Errorf("targets = %v", targets)
	}

	if _, err := loadTargets(context.Background(), &FileSource{Path: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("loadTargets should fail for a missing file")
	}
}

func TestLoadTargetsFromStdin(t *testing.T) {
	targets, err := loadTargets(context.Background(), &StdinSource{In: strings.NewReader(appleMD5 + "\n")})
	if err != nil {
		t.Fatalf("loadTargets: %v", err)
	}
	if len(targets) != 1 {
		t.Errorf("targets = %v, want 1 entry", targets)
	}
}

func TestLoadTargetsFromStdinCanceled(t *testing.T) {
	// Nothing is ever written, so only cancellation can end the read
	in, inWriter := io.Pipe()
	defer inWriter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := loadTargets(ctx, &StdinSource{In: in})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("loadTargets error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loadTargets kept blocking on stdin after cancellation")
	}

	if _, err := (&StdinSource{In: in}).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Open on a cancelled context = %v, want %v", err, context.Canceled)
	}
}

func TestFeedSourceRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, appleMD5+"\n")
	}))
	defer server.Close()

	var retried []int
	src := &FeedSource{
		URL:     server.URL,
		Retries: 2,
		OnRetry: func(attempt int, err error) { retried = append(retried, attempt) },
	}

	targets, err := loadTargets(context.Background(), src)
	if err != nil {
		t.Fatalf("loadTargets: %v", err)
	}
	if _, ok := targets[appleMD5]; !ok {
		t.Errorf("targets = %v, want %s", targets, appleMD5)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", retried)
	}

	requests.Store(0)
	src.Retries = 0
	if _, err := src.Open(context.Background()); err == nil || !strings.Contains(err.Error(), "(1) attempts") {
		t.Errorf("Open error = %v, want a give-up after 1 attempt", err)
	}
}

func TestFeedSourceProxyRotation(t *testing.T) {
	var dead []string
	for i := 0; i < 2; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Listen: %v", err)
		}
		dead = append(dead, "socks5://"+ln.Addr().String())
		ln.Close()
	}

	p := pool.FromList(dead)
	src := &FeedSource{URL: "http://example.invalid/hashes.txt", Pool: p, Retries: 2}
	if _, err := src.Open(context.Background()); err == nil || !strings.Contains(err.Error(), "(3) attempts") {
		t.Errorf("Open error = %v, want a give-up after 3 attempts", err)
	}

	// 3 attempts over 2 proxies leaves the pool pointing at the second one
	next, err := p.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if next != dead[1] {
		t.Errorf("next proxy = %s, want %s", next, dead[1])
	}
}

func TestSpeedup(t *testing.T) {
	if got := speedup(4*time.Second, time.Second); got != 4 {
		t.Errorf("speedup(4s, 1s) = %v, want 4", got)
	}
	if got := speedup(time.Second, 0); got != 0 {
		t.Errorf("speedup(1s, 0) = %v, want 0", got)
	}
}

func TestFoundRowsSorted(t *testing.T) {
	rows := foundRows(map[string]digest.Found{
		appleSHA256: {Digest: appleSHA256, Plaintext: "apple", Algorithm: digest.SHA256},
		appleMD5:    {Digest: appleMD5, Plaintext: "apple", Algorithm: digest.MD5},
	})

	if len(rows) != 3 {
		t.Fatalf("rows = %v, want header + 2", rows)
	}
	if rows[1][0] != appleMD5 || rows[1][1] != "MD5" || rows[2][0] != appleSHA256 || rows[2][2] != "apple" {
		t.Errorf("rows = %v", rows)
	}
}

func TestComparisonRows(t *testing.T) {
	rows := comparisonRows([]searchRun{
		{Name: "Single-threaded", Elapsed: 1500 * time.Millisecond, Found: map[string]digest.Found{appleMD5: {}}},
		{Name: "Multi-threaded", Threads: 8, Elapsed: 250 * time.Millisecond},
	})

	if rows[1][1] != "1" || rows[1][2] != "1.5s" || rows[1][3] != "1" {
		t.Errorf("sequential row = %v", rows[1])
	}
	if rows[2][1] != "8" || rows[2][2] != "250ms" || rows[2][3] != "0" {
		t.Errorf("parallel row = %v", rows[2])
	}
}

func TestBarProgressForwardOnly(t *testing.T) {
	p, err := newBarProgress("test", 100)
	if err != nil {
		t.Fatalf("newBarProgress: %v", err)
	}
	defer p.Stop()

	p.Report(40, 100)
	p.Report(30, 100)
	p.Report(55, 100)

	if p.shown != 55 || p.bar.Current != 55 {
		t.Errorf("shown = %d, bar.Current = %d, want 55", p.shown, p.bar.Current)
	}
}

func TestBarProgressHugeKeyspace(t *testing.T) {
	p, err := newBarProgress("test", math.MaxUint64)
	if err != nil {
		t.Fatalf("newBarProgress: %v", err)
	}
	defer p.Stop()

	if p.bar.Total <= 0 || uint64(p.bar.Total) > maxBarTotal {
		t.Fatalf("bar.Total = %d, want within (0, %d]", p.bar.Total, maxBarTotal)
	}

	p.Report(math.MaxUint64/2, math.MaxUint64)
	if p.bar.Current <= 0 || p.bar.Current > p.bar.Total {
		t.Errorf("bar.Current = %d, want within (0, %d]", p.bar.Current, p.bar.Total)
	}
}

func TestFlagDefaultsMatchConfig(t *testing.T) {
	cfg := config.Default()

	want := map[string]string{
		"threads": strconv.Itoa(cfg.Threads),
		"mode":    string(cfg.Mode),
		"charset": cfg.Charset,
		"length":  strconv.Itoa(cfg.Length),
		"batch":   strconv.FormatUint(cfg.Batch, 10),
		"retries": strconv.Itoa(cfg.Feed.Retries),
	}
	for name, def := range want {
		if got := pflag.Lookup(name).DefValue; got != def {
			t.Errorf("--%s default = %q, want %q", name, got, def)
		}
	}
}
