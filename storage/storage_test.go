package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type moduleMeta struct {
	Title string `json:"moduleTitle"`
}

func (m moduleMeta) ModuleTitle() string { return m.Title }

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte("%PDF-1.4 lesson one")
	var fractions []float64
	id, err := m.UploadContent(ctx, data, "application/pdf", ContentTags("lesson.pdf", "application/pdf"),
		WithProgress(func(f float64) { fractions = append(fractions, f) }))
	if err != nil {
		t.Fatal(err)
	}
	if !ValidArweaveID(id) {
		t.Fatalf("id %q does not have the arweave shape", id)
	}
	if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
		t.Fatalf("progress did not reach 1: %v", fractions)
	}

	got, err := m.FetchContent(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("fetched %q, uploaded %q", got, data)
	}

	again, err := m.UploadContent(ctx, data, "application/pdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Fatalf("same payload produced ids %s and %s", id, again)
	}

	if got := m.ResolveURL(id); got != "https://arweave.net/"+id {
		t.Fatalf("unexpected url %s", got)
	}

	_, err = m.FetchContent(ctx, strings.Repeat("a", 43))
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Fatalf("expected 404 fetch error, got %v", err)
	}
}

func TestMetadataTags(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.UploadMetadata(ctx, moduleMeta{Title: "Move 101"})
	if err != nil {
		t.Fatal(err)
	}

	tags := m.Tags(id)
	exp := map[string]string{
		"Content-Type": "application/json",
		"App-Name":     "Coinspace",
		"App-Version":  "1.0.0",
		"Data-Type":    "NFT-Metadata",
		"Module-Title": "Move 101",
	}
	for name, val := range exp {
		if got := TagValue(tags, name); got != val {
			t.Errorf("tag %s: got %q, want %q", name, got, val)
		}
	}

	data, _ := m.FetchContent(ctx, id)
	if !bytes.Contains(data, []byte("\n  \"moduleTitle\"")) {
		t.Fatalf("metadata is not indented: %s", data)
	}

	untitled, _ := m.UploadMetadata(ctx, map[string]int{"a": 1})
	if got := TagValue(m.Tags(untitled), "Module-Title"); got != "Unknown" {
		t.Fatalf("untitled metadata tagged %q", got)
	}
}

func TestContentTags(t *testing.T) {
	got := ContentTags("intro.epub", "application/epub+zip")
	exp := []Tag{
		{Name: "Content-Type", Value: "application/epub+zip"},
		{Name: "App-Name", Value: "Coinspace"},
		{Name: "App-Version", Value: "1.0.0"},
		{Name: "File-Name", Value: "intro.epub"},
		{Name: "Upload-Type", Value: "Educational-Content"},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestValidArweaveID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"YwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbd", true},
		{"YwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPb", false},
		{"YwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbd1", false},
		{"YwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnP+d", false},
		{"AR_k2j3h4k5j6h7", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := ValidArweaveID(tc.id); got != tc.valid {
			t.Errorf("ValidArweaveID(%q) = %v", tc.id, got)
		}
	}
}

// gateway is a fake bundler plus gateway.
type gateway struct {
	mu      sync.Mutex
	objects map[string][]byte
	tags    map[string][]Tag
	fail    int
}

func newGateway() *gateway {
	return &gateway{objects: map[string][]byte{}, tags: map[string][]Tag{}}
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		if g.fail != 0 {
			w.WriteHeader(g.fail)
			return
		}
		data, _ := io.ReadAll(r.Body)
		tags, err := DecodeTags(r.Header.Get(TagsHeader))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		id := ContentID(data)
		g.objects[id] = data
		g.tags[id] = tags
		json.NewEncoder(w).Encode(map[string]string{"id": id})
	case r.Method == http.MethodGet:
		id := strings.TrimPrefix(r.URL.Path, "/")
		data, ok := g.objects[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestArweave(t *testing.T) {
	ctx := context.Background()
	g := newGateway()
	srv := httptest.NewServer(g)
	defer srv.Close()

	a, err := NewArweave(ArweaveConfig{UploadURL: srv.URL + "/upload", Gateway: srv.URL, RequestsPerSecond: 100, Burst: 10})
	if err != nil {
		t.Fatal(err)
	}

	data := bytes.Repeat([]byte("chapter "), 4096)
	var (
		mu   sync.Mutex
		last float64
	)
	id, err := a.UploadContent(ctx, data, "text/plain", ContentTags("book.txt", "text/plain"),
		WithProgress(func(f float64) {
			mu.Lock()
			last = f
			mu.Unlock()
		}))
	if err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	if last != 1 {
		t.Fatalf("final progress %v", last)
	}
	mu.Unlock()

	g.mu.Lock()
	tags := g.tags[id]
	g.mu.Unlock()
	if got := TagValue(tags, "File-Name"); got != "book.txt" {
		t.Fatalf("gateway saw File-Name %q", got)
	}

	got, err := a.FetchContent(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("fetched content differs from upload")
	}
	if url := a.ResolveURL(id); url != srv.URL+"/"+id {
		t.Fatalf("unexpected url %s", url)
	}

	_, err = a.FetchContent(ctx, strings.Repeat("b", 43))
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Fatalf("expected 404 fetch error, got %v", err)
	}

	g.mu.Lock()
	g.fail = http.StatusBadGateway
	g.mu.Unlock()
	_, err = a.UploadContent(ctx, data, "text/plain", nil)
	var ue *UploadError
	if !errors.As(err, &ue) || ue.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 upload error, got %v", err)
	}
}

func TestArweaveMalformedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"AR_mock123"}`))
	}))
	defer srv.Close()

	a, err := NewArweave(ArweaveConfig{UploadURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.UploadContent(context.Background(), []byte("x"), "text/plain", nil)
	var ue *UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("expected upload error, got %v", err)
	}
}

func TestIPFS(t *testing.T) {
	ctx := context.Background()
	var (
		mu     sync.Mutex
		stored []byte
		lie    bool
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/api/v0/add":
			if r.URL.Query().Get("cid-version") != "1" || r.URL.Query().Get("raw-leaves") != "true" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			mr, err := r.MultipartReader()
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			part, err := mr.NextPart()
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			stored, _ = io.ReadAll(part)
			c, _ := RawCID(stored)
			if lie {
				c, _ = RawCID([]byte("something else"))
			}
			json.NewEncoder(w).Encode(addResponse{Name: part.FileName(), Hash: c.String()})
		case "/api/v0/cat":
			w.Write(stored)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewIPFS(IPFSConfig{APIURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("an introduction to move")
	id, err := c.UploadContent(ctx, data, "text/plain", ContentTags("move.txt", "text/plain"))
	if err != nil {
		t.Fatal(err)
	}
	if !ValidCID(id) {
		t.Fatalf("%q is not a cid", id)
	}
	got, err := c.FetchContent(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("fetched content differs from upload")
	}

	mu.Lock()
	lie = true
	mu.Unlock()
	_, err = c.UploadContent(ctx, data, "text/plain", nil)
	var ue *UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("expected mismatched cid to fail, got %v", err)
	}

	if _, err := c.FetchContent(ctx, "not-a-cid"); err == nil {
		t.Fatal("expected malformed cid to fail")
	}
}

type countingClient struct {
	*Memory
	fetches int
}

func (c *countingClient) FetchContent(ctx context.Context, id string) ([]byte, error) {
	c.fetches++
	return c.Memory.FetchContent(ctx, id)
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{Memory: NewMemory()}
	c, err := NewCached(inner, 2)
	if err != nil {
		t.Fatal(err)
	}

	id, err := c.UploadContent(ctx, []byte("cached"), "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		got, err := c.FetchContent(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "cached" {
			t.Fatalf("got %q", got)
		}
	}
	if inner.fetches != 1 {
		t.Fatalf("expected one backend fetch, got %d", inner.fetches)
	}

	if _, err := c.FetchContent(ctx, strings.Repeat("z", 43)); err == nil {
		t.Fatal("missing content should not be cached as success")
	}
}

