package feed

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bdandy/go-socks4"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
)

// Fetches newline separated hash lists from a remote feed, over plain HTTP(S) or a websocket
// where every message carries one or more lines

const DefaultHandshakeTimeout = 45 * time.Second

type Client struct {
	URL       string // http, https, ws or wss
	ProxyAddr string // Passed to url.Parse, e.g. "socks5://127.0.0.1:1080". If empty, proxy is not used
	UserAgent string

	HandshakeTimeout   time.Duration
	InsecureSkipVerify bool
}

// Returns the dialer for the configured proxy, or a direct one
func (client *Client) dialer() (proxy.Dialer, error) {
	if client.ProxyAddr == "" {
		return proxy.Direct, nil
	}

	proxyUrl, err := url.Parse(client.ProxyAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address: %w", err)
	}

	dialer, err := proxy.FromURL(proxyUrl, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
	}

	return dialer, nil
}

func dialContext(dialer proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
}

func (client *Client) handshakeTimeout() time.Duration {
	if client.HandshakeTimeout <= 0 {
		return DefaultHandshakeTimeout
	}
	return client.HandshakeTimeout
}

func (client *Client) header() http.Header {
	h := http.Header{}
	if client.UserAgent != "" {
		h.Set("User-Agent", client.UserAgent)
	}
	return h
}

// Open connects to the feed and returns its contents as a stream. The caller must close it
func (client *Client) Open(ctx context.Context) (io.ReadCloser, error) {
	if client.URL == "" {
		return nil, fmt.Errorf("client.URL not specified")
	}

	u, err := url.Parse(client.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url: %w", err)
	}

	dialer, err := client.dialer()
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		return client.openHTTP(ctx, u, dialer)
	case "ws", "wss":
		return client.openWebsocket(ctx, u, dialer)
	}

	return nil, fmt.Errorf("unsupported feed scheme %q", u.Scheme)
}

func (client *Client) openHTTP(ctx context.Context, u *url.URL, dialer proxy.Dialer) (io.ReadCloser, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext:         dialContext(dialer),
			TLSHandshakeTimeout: client.handshakeTimeout(),
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: client.InsecureSkipVerify,
			},
			DisableKeepAlives: true,
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = client.header()

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch feed: server returned %s", resp.Status)
	}

	return resp.Body, nil
}

func (client *Client) openWebsocket(ctx context.Context, u *url.URL, dialer proxy.Dialer) (io.ReadCloser, error) {
	wsDialer := &websocket.Dialer{
		HandshakeTimeout:  client.handshakeTimeout(),
		EnableCompression: true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: client.InsecureSkipVerify,
		},
		NetDialContext: dialContext(dialer),
	}

	conn, resp, err := wsDialer.DialContext(ctx, u.String(), client.header())
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open websocket feed: %w (status %s)", err, resp.Status)
		}
		return nil, fmt.Errorf("failed to open websocket feed: %w", err)
	}

	// A blocked ReadMessage only returns once the conn is closed
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})

	return &messageReader{conn: conn, stop: stop}, nil
}

// Presents websocket messages as one byte stream, with a newline after every message. A normal
// close from the server is EOF
type messageReader struct {
	conn *websocket.Conn
	stop func() bool

	buf []byte
	err error
}

func (r *messageReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}

		_, msg, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.err = io.EOF
			} else {
				r.err = err
			}
			continue
		}

		r.buf = append(msg, '\n')
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *messageReader) Close() error {
	r.stop()
	return r.conn.Close()
}
