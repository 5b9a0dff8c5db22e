package main

import (
	"context"
	"io"
)

// Interface that different hash list sources (file, stdin, feed) must implement
type TargetSource interface {
	Describe() string // Shown to the user before reading

	Open(ctx context.Context) (io.ReadCloser, error) // Newline separated hash values
}
