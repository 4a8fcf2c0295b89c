package storage

import (
	"fmt"
	"net/http"
)

// UploadError reports a failed upload. Status is the HTTP status returned by
// the network, or 0 when the request never completed.
type UploadError struct {
	Status int
	Err    error
}

func (e *UploadError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("upload failed with status %d: %v", e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("upload failed: %v", e.Err)
	default:
		return fmt.Sprintf("upload failed with status %d", e.Status)
	}
}

func (e *UploadError) Unwrap() error { return e.Err }

type FetchError struct {
	ID     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("fetching %s: %d %s", e.ID, e.Status, http.StatusText(e.Status))
}

func (e *FetchError) Unwrap() error { return e.Err }
