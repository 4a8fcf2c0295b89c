package chain

import (
	"encoding/json"
	"strconv"
)

const StatusSuccess = "success"

type BalanceChange struct {
	Owner    string
	CoinType string
	Amount   int64
}

// Receipt is the node's account of an executed transaction.
type Receipt struct {
	Digest         string
	Status         string
	Error          string
	BalanceChanges []BalanceChange
}

func (r Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Received is the net SUI balance change of owner, negative when owner paid.
func (r Receipt) Received(owner string) int64 {
	want, err := NormalizeAddress(owner)
	if err != nil {
		return 0
	}
	var total int64
	for _, c := range r.BalanceChanges {
		if c.CoinType != SuiCoinType {
			continue
		}
		if got, err := NormalizeAddress(c.Owner); err == nil && got == want {
			total += c.Amount
		}
	}
	return total
}

type txResponse struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
	BalanceChanges []struct {
		Owner    json.RawMessage `json:"owner"`
		CoinType string          `json:"coinType"`
		Amount   string          `json:"amount"`
	} `json:"balanceChanges"`
}

func (t txResponse) receipt() Receipt {
	r := Receipt{Digest: t.Digest}
	if t.Effects != nil {
		r.Status = t.Effects.Status.Status
		r.Error = t.Effects.Status.Error
	}
	for _, c := range t.BalanceChanges {
		amt, err := strconv.ParseInt(c.Amount, 10, 64)
		if err != nil {
			continue
		}
		r.BalanceChanges = append(r.BalanceChanges, BalanceChange{
			Owner:    ownerAddress(c.Owner),
			CoinType: c.CoinType,
			Amount:   amt,
		})
	}
	return r
}

// ownerAddress unpacks {"AddressOwner": "0x.."}. Shared and immutable owners
// have no address.
func ownerAddress(raw json.RawMessage) string {
	var o struct {
		AddressOwner string `json:"AddressOwner"`
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return ""
	}
	return o.AddressOwner
}
