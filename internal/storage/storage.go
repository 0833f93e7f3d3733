package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jdufresne12/web-portal/pkg/slug"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload stores an object and returns the result with key and URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes an object by its key.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for the given key.
	GetURL(ctx context.Context, key string) (string, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// UploadInput holds the parameters for uploading an object.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.ReadSeeker
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string
	URL string
}

// ErrNoFileName is returned when an object URL has no final path segment.
var ErrNoFileName = errors.New("could not parse file name from url")

// Prefix returns the top-level key prefix for a record kind.
func Prefix(kind domain.RecordKind) string {
	if kind == domain.KindProduct {
		return "products"
	}
	return "sponsors"
}

// ObjectKey builds the key for a new upload:
//
//	products/{unixMillis}-{name}
//	sponsors/{ownerID}/{unixMillis}-{name}
func ObjectKey(kind domain.RecordKind, ownerID, fileName string, now time.Time) string {
	name := fmt.Sprintf("%d-%s", now.UnixMilli(), slug.FileName(fileName))
	if kind == domain.KindProduct {
		return path.Join(Prefix(kind), name)
	}
	return path.Join(Prefix(kind), ownerID, name)
}

// KeyFromURL recovers the object key of a stored medium from its public URL
// using the same prefix scheme as ObjectKey.
func KeyFromURL(kind domain.RecordKind, ownerID, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse media url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", ErrNoFileName
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if kind == domain.KindProduct {
		return path.Join(Prefix(kind), name), nil
	}
	return path.Join(Prefix(kind), ownerID, name), nil
}

// OwnedBy reports whether key sits directly under the prefix ObjectKey uses
// for the owner's uploads.
func OwnedBy(kind domain.RecordKind, ownerID, key string) bool {
	dir := Prefix(kind)
	if kind != domain.KindProduct {
		if ownerID == "" {
			return false
		}
		dir = path.Join(dir, ownerID)
	}
	return path.Clean(key) == key && path.Dir(key) == dir
}

// PublicURL joins a base URL and an object key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
