package chain

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	FunctionMintFree = "mint_free"
	FunctionMintPaid = "mint_paid"
)

// ModuleFields are the arguments shared by both mint entry points.
type ModuleFields struct {
	Title       string `json:"moduleTitle"`
	AuthorName  string `json:"authorName"`
	StorageID   string `json:"storageId"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (f ModuleFields) validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return errors.New("module title is required")
	case strings.TrimSpace(f.AuthorName) == "":
		return errors.New("author name is required")
	case strings.TrimSpace(f.StorageID) == "":
		return errors.New("storage id is required")
	}
	return nil
}

// Intent is one of MintFree or MintPaid.
type Intent interface {
	Function() string
	Details() ModuleFields
	Sender() string
	isIntent()
}

type MintFree struct {
	ModuleFields
	Caller string `json:"caller"`
}

func NewMintFree(fields ModuleFields, caller string) (MintFree, error) {
	if err := fields.validate(); err != nil {
		return MintFree{}, err
	}
	if !ValidAddress(caller) {
		return MintFree{}, fmt.Errorf("invalid caller address %q", caller)
	}
	return MintFree{ModuleFields: fields, Caller: caller}, nil
}

func (MintFree) Function() string { return FunctionMintFree }
func (m MintFree) Details() ModuleFields { return m.ModuleFields }
func (m MintFree) Sender() string { return m.Caller }
func (MintFree) isIntent() {}

type MintPaid struct {
	ModuleFields
	Price   uint64 `json:"price"`
	Creator string `json:"originalCreatorAddress"`
	Caller  string `json:"caller"`
}

func NewMintPaid(fields ModuleFields, price uint64, creator, caller string) (MintPaid, error) {
	if err := fields.validate(); err != nil {
		return MintPaid{}, err
	}
	if price == 0 {
		return MintPaid{}, errors.New("paid module needs a price above zero")
	}
	if !ValidAddress(creator) {
		return MintPaid{}, fmt.Errorf("invalid creator address %q", creator)
	}
	if !ValidAddress(caller) {
		return MintPaid{}, fmt.Errorf("invalid caller address %q", caller)
	}
	return MintPaid{ModuleFields: fields, Price: price, Creator: creator, Caller: caller}, nil
}

func (MintPaid) Function() string { return FunctionMintPaid }
func (m MintPaid) Details() ModuleFields { return m.ModuleFields }
func (m MintPaid) Sender() string { return m.Caller }
func (MintPaid) isIntent() {}

// Fingerprint identifies an intent by value. Two intents with the same
// fingerprint would mint the same thing.
func Fingerprint(i Intent) string {
	b, _ := json.Marshal(struct {
		Function string `json:"function"`
		Intent   Intent `json:"intent"`
	}{i.Function(), i})
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
