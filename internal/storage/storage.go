package storage

import (
	"context"
	"io"
	"time"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Downloader interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Store is what the document service depends on.
type Store interface {
	Uploader
	Downloader
	Signer
	Lister
}
