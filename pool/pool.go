package pool

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
)

// Round robin proxy pool, used to rotate proxies between hash feed fetch attempts

type Pool struct {
	Proxies []string

	index       int
	accessMutex sync.Mutex
}

// Intialize a new pool with a proxy list file
func New(filePath string) (*Pool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Read one proxy URL per line. Blank lines and lines that don't parse as a URL with a scheme
// and host are skipped
func Parse(r io.Reader) (*Pool, error) {
	proxies := []string{}

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		} else if u, err := url.Parse(line); err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}

		proxies = append(proxies, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return FromList(proxies), nil
}

func FromList(proxies []string) *Pool {
	return &Pool{Proxies: proxies}
}

// Request a proxy from the pool
func (pool *Pool) Get() (string, error) {
	pool.accessMutex.Lock()
	defer pool.accessMutex.Unlock()

	poolLen := len(pool.Proxies)
	if poolLen == 0 {
		return "", fmt.Errorf("no proxies available in the pool")
	}

	proxy := pool.Proxies[pool.index]
	if pool.index == poolLen-1 {
		pool.index = 0
	} else {
		pool.index++
	}

	return proxy, nil
}

func (pool *Pool) Len() int {
	return len(pool.Proxies)
}
