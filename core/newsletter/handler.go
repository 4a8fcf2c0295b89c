package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irsalhamdi/coinspace/api/web"
	"github.com/irsalhamdi/coinspace/api/weberr"
)

// HandleSubscribe validates a signup and logs it. Nothing is persisted.
func HandleSubscribe(log logrus.FieldLogger, now func() time.Time) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var sn SubscriptionNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding subscription: %w", err), "Invalid request body")
		}

		if err := sn.Check(); err != nil {
			var ie *InvalidError
			if errors.As(err, &ie) {
				return weberr.BadRequest(err, ie.Message, weberr.WithFields(map[string]interface{}{"field": ie.Field}))
			}
			return fmt.Errorf("validating subscription: %w", err)
		}

		sub := sn.Subscribe(now())
		log.WithFields(logrus.Fields{
			"email": sub.Email,
			"name":  sn.Name,
		}).Info("newsletter subscription")

		return web.Respond(ctx, w, web.Envelope{Success: true, Message: MsgSubscribed, Data: sub}, http.StatusOK)
	}
}

type Health struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func HandleHealth(now func() time.Time) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, Health{Success: true, Message: MsgHealthy, Timestamp: now().UTC()}, http.StatusOK)
	}
}
