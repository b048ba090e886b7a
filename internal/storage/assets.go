// Package storage holds slide assets (images, PDFs, media) referenced by
// training content. The filesystem store is the offline default.
package storage

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type AssetStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	URL(key string) (string, error) // fs returns "file://..." for dev
}

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data/assets"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// cleanKey rejects traversal outside the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	k := filepath.Clean("/" + key)
	if strings.Contains(k, "..") {
		return "", errors.New("bad key")
	}
	return strings.TrimPrefix(k, "/"), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.base, k)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return k, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.base, k))
}

func (s *FSStore) URL(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.Join(s.base, k)}
	return u.String(), nil
}
