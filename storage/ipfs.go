package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"golang.org/x/time/rate"
)

const (
	DefaultIPFSGateway = "https://ipfs.io/ipfs/"

	// An add of at most this many bytes with raw leaves produces a single
	// raw block whose CID we can compute ourselves.
	ipfsChunkSize = 262144
)

type IPFSConfig struct {
	// APIURL is the node's RPC root, e.g. http://127.0.0.1:5001.
	APIURL            string
	Gateway           string
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// IPFS adds content through a node's HTTP RPC API. Tags have no place in the
// IPFS data model and are dropped.
type IPFS struct {
	api     string
	gateway string
	client  *http.Client
	limiter *rate.Limiter
}

func NewIPFS(cfg IPFSConfig) (*IPFS, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("ipfs api url is required")
	}
	gateway := cfg.Gateway
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	return &IPFS{
		api:     strings.TrimSuffix(cfg.APIURL, "/"),
		gateway: gateway,
		client:  client,
		limiter: limiter,
	}, nil
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func (c *IPFS) UploadContent(ctx context.Context, data []byte, contentType string, tags []Tag, opts ...UploadOption) (string, error) {
	cfg := applyOptions(opts)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &UploadError{Err: err}
	}

	name := TagValue(tags, "File-Name")
	if name == "" {
		name = "content"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, name)},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return "", &UploadError{Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &UploadError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &UploadError{Err: err}
	}

	q := url.Values{}
	q.Set("cid-version", "1")
	q.Set("raw-leaves", "true")
	q.Set("pin", "true")

	size := int64(body.Len())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api+"/api/v0/add?"+q.Encode(), withProgress(&body, size, cfg.progress))
	if err != nil {
		return "", &UploadError{Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &UploadError{Status: resp.StatusCode}
	}

	var out addResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &UploadError{Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	got, err := cid.Decode(out.Hash)
	if err != nil {
		return "", &UploadError{Status: resp.StatusCode, Err: fmt.Errorf("malformed cid %q: %w", out.Hash, err)}
	}
	if len(data) <= ipfsChunkSize {
		want, err := RawCID(data)
		if err != nil {
			return "", &UploadError{Err: err}
		}
		if !got.Equals(want) {
			return "", &UploadError{Status: resp.StatusCode, Err: fmt.Errorf("node returned %s, content hashes to %s", got, want)}
		}
	}

	return got.String(), nil
}

func (c *IPFS) UploadMetadata(ctx context.Context, v any) (string, error) {
	return uploadMetadata(ctx, c, v)
}

func (c *IPFS) ResolveURL(id string) string {
	return c.gateway + id
}

func (c *IPFS) FetchContent(ctx context.Context, id string) ([]byte, error) {
	if !ValidCID(id) {
		return nil, &FetchError{ID: id, Err: errors.New("malformed cid")}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	return fetch(ctx, c.client, http.MethodPost, c.api+"/api/v0/cat?arg="+url.QueryEscape(id), id)
}
