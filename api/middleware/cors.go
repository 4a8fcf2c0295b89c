package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/coinspace/api/web"
)

func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Credentials", "true")
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			hdr.Add("Vary", "Origin")

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
