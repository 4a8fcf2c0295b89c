// Package storage uploads module content and metadata to content-addressed
// networks and reads it back. Clients never retry: a failed call surfaces as
// an UploadError or FetchError and the caller decides whether to try again.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	AppName    = "Coinspace"
	AppVersion = "1.0.0"

	MetadataContentType = "application/json"
)

type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Client interface {
	UploadContent(ctx context.Context, data []byte, contentType string, tags []Tag, opts ...UploadOption) (string, error)
	UploadMetadata(ctx context.Context, v any) (string, error)
	ResolveURL(id string) string
	FetchContent(ctx context.Context, id string) ([]byte, error)
}

// ContentTags are attached to every uploaded module file.
func ContentTags(fileName, contentType string) []Tag {
	return []Tag{
		{Name: "Content-Type", Value: contentType},
		{Name: "App-Name", Value: AppName},
		{Name: "App-Version", Value: AppVersion},
		{Name: "File-Name", Value: fileName},
		{Name: "Upload-Type", Value: "Educational-Content"},
	}
}

// Titled metadata documents get a Module-Title tag.
type Titled interface {
	ModuleTitle() string
}

func MetadataTags(v any) []Tag {
	title := "Unknown"
	if t, ok := v.(Titled); ok && t.ModuleTitle() != "" {
		title = t.ModuleTitle()
	}
	return []Tag{
		{Name: "Content-Type", Value: MetadataContentType},
		{Name: "App-Name", Value: AppName},
		{Name: "App-Version", Value: AppVersion},
		{Name: "Data-Type", Value: "NFT-Metadata"},
		{Name: "Module-Title", Value: title},
	}
}

// TagValue returns the first tag called name.
func TagValue(tags []Tag, name string) string {
	for _, t := range tags {
		if t.Name == name {
			return t.Value
		}
	}
	return ""
}

type contentUploader interface {
	UploadContent(ctx context.Context, data []byte, contentType string, tags []Tag, opts ...UploadOption) (string, error)
}

// uploadMetadata is shared by every backend: metadata is just content with a
// fixed content type.
func uploadMetadata(ctx context.Context, c contentUploader, v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("encoding metadata: %w", err)}
	}
	return c.UploadContent(ctx, b, MetadataContentType, MetadataTags(v))
}

// ProgressFunc receives the uploaded fraction, from 0 to 1.
type ProgressFunc func(fraction float64)

type uploadConfig struct {
	progress ProgressFunc
}

type UploadOption func(*uploadConfig)

func WithProgress(fn ProgressFunc) UploadOption {
	return func(c *uploadConfig) { c.progress = fn }
}

func applyOptions(opts []UploadOption) uploadConfig {
	var c uploadConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}
