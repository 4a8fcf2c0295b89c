package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/irsalhamdi/coinspace/api/web"
	"github.com/irsalhamdi/coinspace/api/weberr"
	"github.com/irsalhamdi/coinspace/rate"
)

// RateLimit rejects clients that went over their window with 429.
func RateLimit(lim *rate.Window, trustProxy bool) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			client := ClientAddress(r, trustProxy)
			res := lim.Check(client)

			hdr := w.Header()
			hdr.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			hdr.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			hdr.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

			if !res.Allowed {
				retry := int(math.Ceil(time.Until(res.Reset).Seconds()))
				if retry < 0 {
					retry = 0
				}
				hdr.Set("Retry-After", strconv.Itoa(retry))
				return weberr.TooManyRequests(
					fmt.Errorf("client %s over the limit of %d requests", client, res.Limit),
					weberr.WithFields(map[string]interface{}{"client": client}),
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// ClientAddress identifies the caller by IP. X-Forwarded-For is only honoured
// when trustProxy is set.
func ClientAddress(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first := strings.TrimSpace(strings.Split(fwd, ",")[0])
			if first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
