package publish

import (
	"errors"
	"strings"

	"github.com/irsalhamdi/coinspace/chain"
	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/validate"
)

// Details is the form filled in after the upload.
type Details struct {
	Title         string         `json:"title" validate:"required,max=200"`
	AuthorName    string         `json:"authorName" validate:"required,max=100"`
	Description   string         `json:"description" validate:"max=5000"`
	Category      string         `json:"category" validate:"max=64"`
	Kind          content.Kind   `json:"kind" validate:"required,oneof=Free Paid"`
	Price         int64          `json:"price"`
	Policy        content.Policy `json:"policy" validate:"required,oneof=unique editioned"`
	TotalEditions int            `json:"totalEditions"`

	// PayoutAddress receives the price of a paid module. Empty means the
	// connected account.
	PayoutAddress string `json:"payoutAddress"`
}

// ValidationError names the first offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// check validates d and returns it normalised. Free forces a zero price and
// unique forces a single edition.
func (d Details) check() (Details, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.AuthorName = strings.TrimSpace(d.AuthorName)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.PayoutAddress = strings.TrimSpace(d.PayoutAddress)

	if err := validate.Check(d); err != nil {
		var fe *validate.FieldError
		if errors.As(err, &fe) {
			msg := fe.Message
			if fe.Tag == "required" {
				msg = "Please fill in all required fields"
			}
			return Details{}, &ValidationError{Field: fe.Field, Message: msg}
		}
		return Details{}, err
	}

	switch d.Kind {
	case content.Free:
		d.Price = 0
		d.PayoutAddress = ""
	case content.Paid:
		if d.Price <= 0 {
			return Details{}, &ValidationError{Field: "price", Message: "Please enter a valid price for paid modules"}
		}
		if d.PayoutAddress != "" {
			addr, err := chain.NormalizeAddress(d.PayoutAddress)
			if err != nil {
				return Details{}, &ValidationError{Field: "payoutAddress", Message: "Please enter a valid payout address"}
			}
			d.PayoutAddress = addr
		}
	}

	switch d.Policy {
	case content.Unique:
		d.TotalEditions = 1
	case content.Editioned:
		if d.TotalEditions < 1 || d.TotalEditions > content.MaxEditions {
			return Details{}, &ValidationError{Field: "totalEditions", Message: "Please enter a valid number of editions"}
		}
	}

	return d, nil
}
