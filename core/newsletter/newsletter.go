package newsletter

import (
	"errors"
	"time"

	"github.com/irsalhamdi/coinspace/validate"
)

const (
	MsgInvalidEmail = "Please provide a valid email address"
	MsgInvalidName  = "Please provide a valid name"
	MsgSubscribed   = "Successfully subscribed to newsletter!"
	MsgHealthy      = "Coinspace Newsletter API is running"
)

// SubscriptionNew is a signup request. An empty name means none was given.
type SubscriptionNew struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100,alphaspace"`
}

type Subscription struct {
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// InvalidError carries the message shown to the subscriber.
type InvalidError struct {
	Field   string
	Message string
}

func (e *InvalidError) Error() string { return e.Message }

// Check validates sn. Email problems are reported before name problems.
func (sn SubscriptionNew) Check() error {
	err := validate.Check(sn)
	if err == nil {
		return nil
	}

	var fe *validate.FieldError
	if !errors.As(err, &fe) {
		return err
	}
	if fe.Field == "name" {
		return &InvalidError{Field: "name", Message: MsgInvalidName}
	}
	return &InvalidError{Field: "email", Message: MsgInvalidEmail}
}

// Subscribe turns a valid request into a subscription made at now.
func (sn SubscriptionNew) Subscribe(now time.Time) Subscription {
	s := Subscription{Email: sn.Email, SubscribedAt: now.UTC()}
	if sn.Name != "" {
		name := sn.Name
		s.Name = &name
	}
	return s
}
