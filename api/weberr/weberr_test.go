package weberr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewError(t *testing.T) {
	cause := errors.New("boom")
	err := BadRequest(cause, "Please provide a valid email address", WithFields(map[string]interface{}{"field": "email"}))

	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through the wrappers")
	}

	body, status, ok := Response(err)
	if !ok {
		t.Fatal("expected a response")
	}
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	want := &ErrorResponse{Success: false, Message: "Please provide a valid email address"}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}

	fields, ok := Fields(err)
	if !ok || fields["field"] != "email" {
		t.Fatalf("expected fields to survive, got %v", fields)
	}
}

func TestResponseMissing(t *testing.T) {
	if _, _, ok := Response(errors.New("plain")); ok {
		t.Fatal("plain errors carry no response")
	}
}

func TestWithFieldsMerges(t *testing.T) {
	err := Wrap(errors.New("slow down"),
		WithFields(map[string]interface{}{"client": "10.0.0.1", "route": "/api/modules"}),
		WithFields(map[string]interface{}{"route": "/api/newsletter"}),
	)

	fields, ok := Fields(err)
	if !ok {
		t.Fatal("expected fields")
	}
	want := map[string]interface{}{"client": "10.0.0.1", "route": "/api/newsletter"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	if Wrap(nil, WithFields(want)) != nil {
		t.Fatal("wrapping nil produced an error")
	}
}
