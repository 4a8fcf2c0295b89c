package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/irsalhamdi/coinspace/random"
)

// DefaultQuota matches the usual browser allowance for localStorage.
const DefaultQuota = 5 << 20

// File keeps every key in a single JSON document on disk. Writes go to a
// temporary file that replaces the document, so readers never observe a
// half-written file. Writers in one process are serialised; separate
// processes sharing the file are not coordinated.
//
// A document that cannot be decoded fails reads, and the next write starts
// over from an empty document.
type File struct {
	path  string
	quota int64
	log   logrus.FieldLogger
	mu    sync.Mutex
}

// NewFile returns a store backed by path. A quota <= 0 disables the limit.
// A nil log discards warnings.
func NewFile(path string, quota int64, log logrus.FieldLogger) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &File{path: path, quota: quota, log: log}, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadForWrite()
	if err != nil {
		return err
	}
	doc[key] = json.RawMessage(value)
	return f.save(doc)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.save(doc)
}

func (f *File) load() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if len(b) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &decodeError{path: f.path, err: err}
	}
	return doc, nil
}

type decodeError struct {
	path string
	err  error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decoding %s: %v", e.path, e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// loadForWrite is load, except that an undecodable document is replaced.
func (f *File) loadForWrite() (map[string]json.RawMessage, error) {
	doc, err := f.load()
	var de *decodeError
	if errors.As(err, &de) {
		f.log.WithError(de.err).WithField("path", f.path).Warn("discarding undecodable store")
		return make(map[string]json.RawMessage), nil
	}
	return doc, err
}

func (f *File) save(doc map[string]json.RawMessage) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if f.quota > 0 && int64(len(b)) > f.quota {
		return ErrQuotaExceeded
	}

	tmp := f.path + ".tmp-" + random.String(8)
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}
