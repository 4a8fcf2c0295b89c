package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/coinspace/api/web"
	"github.com/irsalhamdi/coinspace/api/weberr"
	"github.com/irsalhamdi/coinspace/core/content"
)

// Listing is the data of a catalog page: the matches and the catalog size.
type Listing struct {
	Modules []content.Record `json:"modules"`
	Total   int              `json:"total"`
}

func HandleList(records []content.Record) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		q := Query{
			Text:     web.Query(r, "search"),
			Category: web.Query(r, "category"),
			Kind:     web.Query(r, "type"),
		}
		if active(q.Kind) && !content.Kind(q.Kind).Valid() {
			return weberr.BadRequest(errors.New("unknown module type"), "Please provide a valid module type")
		}

		listing := Listing{
			Modules: Filter(records, q),
			Total:   len(records),
		}
		return web.Respond(ctx, w, web.Envelope{Success: true, Data: listing}, http.StatusOK)
	}
}

func HandleCategories(records []content.Record) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, web.Envelope{Success: true, Data: Categories(records)}, http.StatusOK)
	}
}
