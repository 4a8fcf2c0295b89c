package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultGateway = "https://arweave.net/"

	// TagsHeader carries the base64url encoded JSON tag list of an upload.
	TagsHeader = "X-Arweave-Tags"
)

type ArweaveConfig struct {
	// UploadURL is the bundler endpoint that accepts raw data and returns {"id": ...}.
	UploadURL string
	// Gateway serves uploaded data at Gateway + id.
	Gateway string
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Arweave talks to an Arweave bundler for uploads and to a gateway for reads.
type Arweave struct {
	uploadURL string
	gateway   string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewArweave(cfg ArweaveConfig) (*Arweave, error) {
	if cfg.UploadURL == "" {
		return nil, errors.New("arweave upload url is required")
	}
	gateway := cfg.Gateway
	if gateway == "" {
		gateway = DefaultGateway
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
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Arweave{
		uploadURL: cfg.UploadURL,
		gateway:   gateway,
		client:    client,
		limiter:   limiter,
	}, nil
}

type uploadResponse struct {
	ID string `json:"id"`
}

func (a *Arweave) UploadContent(ctx context.Context, data []byte, contentType string, tags []Tag, opts ...UploadOption) (string, error) {
	cfg := applyOptions(opts)

	if err := a.limiter.Wait(ctx); err != nil {
		return "", &UploadError{Err: err}
	}

	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("encoding tags: %w", err)}
	}

	body := withProgress(bytes.NewReader(data), int64(len(data)), cfg.progress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.uploadURL, body)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(TagsHeader, base64.RawURLEncoding.EncodeToString(encoded))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return "", &UploadError{Status: resp.StatusCode}
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &UploadError{Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if !ValidArweaveID(out.ID) {
		return "", &UploadError{Status: resp.StatusCode, Err: fmt.Errorf("malformed transaction id %q", out.ID)}
	}

	return out.ID, nil
}

func (a *Arweave) UploadMetadata(ctx context.Context, v any) (string, error) {
	return uploadMetadata(ctx, a, v)
}

func (a *Arweave) ResolveURL(id string) string {
	return a.gateway + id
}

func (a *Arweave) FetchContent(ctx context.Context, id string) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	return fetch(ctx, a.client, http.MethodGet, a.ResolveURL(id), id)
}

// TxStatus is the gateway view of a transaction.
type TxStatus struct {
	BlockHeight   int64  `json:"block_height"`
	BlockHash     string `json:"block_indep_hash"`
	Confirmations int64  `json:"number_of_confirmations"`
}

// Status reports whether id has been mined. A pending transaction returns a
// nil status and no error.
func (a *Arweave) Status(ctx context.Context, id string) (*TxStatus, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.gateway+"tx/"+id+"/status", nil)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusAccepted:
		return nil, nil
	default:
		return nil, &FetchError{ID: id, Status: resp.StatusCode}
	}

	var st TxStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, &FetchError{ID: id, Status: resp.StatusCode, Err: err}
	}
	return &st, nil
}

func fetch(ctx context.Context, client *http.Client, method, url, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{ID: id, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{ID: id, Status: resp.StatusCode, Err: err}
	}
	return data, nil
}

// DecodeTags reverses the TagsHeader encoding.
func DecodeTags(header string) ([]Tag, error) {
	raw, err := base64.RawURLEncoding.DecodeString(header)
	if err != nil {
		return nil, err
	}
	var tags []Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
