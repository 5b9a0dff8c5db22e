package feed

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

const hashList = "1f3870be274f6c49b3e31a0c6728957f\n3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b\n"

func readAll(t *testing.T, client *Client) string {
	t.Helper()
	rc, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(data)
}

func TestOpenHTTP(t *testing.T) {
	uaChan := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uaChan <- r.Header.Get("User-Agent")
		io.WriteString(w, hashList)
	}))
	defer server.Close()

	got := readAll(t, &Client{URL: server.URL, UserAgent: "hashbrute-test"})
	if got != hashList {
		t.Errorf("body = %q, want %q", got, hashList)
	}
	if gotUA := <-uaChan; gotUA != "hashbrute-test" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "hashbrute-test")
	}
}

func TestOpenHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := (&Client{URL: server.URL}).Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Open error = %v, want a 404 error", err)
	}
}

func TestOpenHTTPCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, hashList)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Client{URL: server.URL}).Open(ctx); err == nil {
		t.Error("Open with a canceled context should fail")
	}
}

func websocketServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				t.Errorf("WriteMessage: %v", err)
				return
			}
		}

		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

		// Wait for the client to close its side
		conn.ReadMessage()
	}))
}

func TestOpenWebsocket(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(hashList), "\n")
	server := websocketServer(t, lines)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	got := readAll(t, &Client{URL: wsURL})
	if got != hashList {
		t.Errorf("stream = %q, want %q", got, hashList)
	}
}

func TestOpenWebsocketSmallReads(t *testing.T) {
	server := websocketServer(t, []string{"abc", "defg"})
	defer server.Close()

	rc, err := (&Client{URL: "ws" + strings.TrimPrefix(server.URL, "http")}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	var sb strings.Builder
	buf := make([]byte, 2)
	for {
		n, err := rc.Read(buf)
		sb.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}

	if got, want := sb.String(), "abc\ndefg\n"; got != want {
		t.Errorf("stream = %q, want %q", got, want)
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{"no url", Client{}, "not specified"},
		{"bad scheme", Client{URL: "ftp://example.com/hashes.txt"}, "unsupported feed scheme"},
		{"bad proxy scheme", Client{URL: "http://example.com", ProxyAddr: "gopher://127.0.0.1:70"}, "proxy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.Open(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Open error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestSocksDialers(t *testing.T) {
	for _, addr := range []string{"socks5://127.0.0.1:1080", "socks4://127.0.0.1:1080"} {
		client := &Client{ProxyAddr: addr}
		if _, err := client.dialer(); err != nil {
			t.Errorf("dialer(%s): %v", addr, err)
		}
	}
}

func TestOpenThroughDeadProxy(t *testing.T) {
	// Grab a free port and close it so nothing is listening there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	deadAddr := ln.Addr().String()
	ln.Close()

	client := &Client{URL: "http://example.invalid/hashes.txt", ProxyAddr: "socks5://" + deadAddr}
	if _, err := client.Open(context.Background()); err == nil {
		t.Error("Open through a dead proxy should fail")
	}
}
