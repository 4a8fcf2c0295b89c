package content

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	Free Kind = "Free"
	Paid Kind = "Paid"
)

func (k Kind) Valid() bool { return k == Free || k == Paid }

type Policy string

const (
	Unique    Policy = "unique"
	Editioned Policy = "editioned"
)

func (p Policy) Valid() bool { return p == Unique || p == Editioned }

const (
	MaxEditions = 10000
	MistPerSui  = 1_000_000_000
)

// Record is a published learning module.
type Record struct {
	Title          string    `json:"moduleTitle"`
	AuthorName     string    `json:"authorName"`
	StorageID      string    `json:"storageId"`
	MetadataID     string    `json:"metadataId,omitempty"`
	Kind           Kind      `json:"moduleType"`
	CreatorAddress string    `json:"originalCreatorAddress"`
	Price          uint64    `json:"price"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	Policy         Policy    `json:"mintingType"`
	TotalEditions  int       `json:"totalEditions"`
	CreatedAt      time.Time `json:"createdAt"`

	Owner    string     `json:"owner,omitempty"`
	Digest   string     `json:"transactionDigest,omitempty"`
	MintedAt *time.Time `json:"mintedAt,omitempty"`
}

func (r Record) ModuleTitle() string { return r.Title }

// Normalize applies the rules every stored record obeys: free modules cost
// nothing and unique modules have exactly one edition.
func (r Record) Normalize() Record {
	r.Title = strings.TrimSpace(r.Title)
	r.AuthorName = strings.TrimSpace(r.AuthorName)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	if r.Kind == Free {
		r.Price = 0
	}
	if r.Policy == Unique || r.Policy == "" {
		r.Policy = Unique
		r.TotalEditions = 1
	}
	return r
}

// DisplayPrice is what cards and the cart show for a record.
func (r Record) DisplayPrice() string {
	if r.Kind == Free {
		return "Free"
	}
	return FormatPrice(r.Price) + " SUI"
}

// Sui converts an amount of MIST to SUI.
func Sui(mist uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(mist), -9)
}

// FormatPrice renders MIST as SUI with two decimals.
func FormatPrice(mist uint64) string {
	return Sui(mist).StringFixed(2)
}

// ToMist parses a SUI amount such as "1.5" into MIST.
func ToMist(sui string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(sui))
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", sui, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", sui)
	}
	mist := d.Shift(9)
	if !mist.Equal(mist.Truncate(0)) {
		return 0, fmt.Errorf("amount %q is finer than one MIST", sui)
	}
	bi := mist.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %q is too large", sui)
	}
	return bi.Uint64(), nil
}
