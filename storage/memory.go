package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

// Memory is a content-addressed in-process store. Ids have the Arweave shape
// so records created offline pass the same format checks.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	gateway string
}

type memoryObject struct {
	data []byte
	tags []Tag
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		gateway: DefaultGateway,
	}
}

func (m *Memory) UploadContent(ctx context.Context, data []byte, contentType string, tags []Tag, opts ...UploadOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UploadError{Err: err}
	}
	cfg := applyOptions(opts)

	r := withProgress(bytes.NewReader(data), int64(len(data)), cfg.progress)
	buf, err := io.ReadAll(r)
	if err != nil {
		return "", &UploadError{Err: err}
	}

	if TagValue(tags, "Content-Type") == "" {
		tags = append([]Tag{{Name: "Content-Type", Value: contentType}}, tags...)
	}

	id := ContentID(buf)
	m.mu.Lock()
	m.objects[id] = memoryObject{data: buf, tags: append([]Tag(nil), tags...)}
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) UploadMetadata(ctx context.Context, v any) (string, error) {
	return uploadMetadata(ctx, m, v)
}

func (m *Memory) ResolveURL(id string) string {
	return m.gateway + id
}

func (m *Memory) FetchContent(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	m.mu.RLock()
	obj, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &FetchError{ID: id, Status: http.StatusNotFound}
	}
	return append([]byte(nil), obj.data...), nil
}

// Tags returns the tags stored with id.
func (m *Memory) Tags(id string) []Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Tag(nil), m.objects[id].tags...)
}
