// Package wallet holds the process-wide wallet session and submits signed
// mint transactions through a Provider.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/coinspace/chain"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Session is what the rest of the application sees of the wallet.
type Session struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
	Balance   string `json:"balance"`
}

// Execution is the outcome of a signed and submitted transaction.
// Transferred is what the receipt shows the mint's creator receiving.
type Execution struct {
	Receipt     chain.Receipt
	Transferred uint64
}

// Provider is the wallet extension or key holder that approves accounts and
// signs transactions.
type Provider interface {
	RequestAccount(ctx context.Context) (string, error)
	Revoke(ctx context.Context, address string) error
	Balance(ctx context.Context, address string) (uint64, error)
	SignAndExecute(ctx context.Context, address string, intent chain.Intent) (Execution, error)
}

// Result mirrors what the wallet reports back for a submission.
type Result struct {
	Success     bool
	Digest      string
	Error       string
	Receipt     chain.Receipt
	Transferred uint64
}

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrRejected     = errors.New("request rejected by user")
	ErrSuperseded   = errors.New("connection attempt superseded")
	ErrPending      = errors.New("transaction already pending")
	ErrWrongSender  = errors.New("transaction sender is not the connected account")
)

// AlreadySubmittedError is returned when an intent that already produced a
// digest is submitted again.
type AlreadySubmittedError struct {
	Digest string
}

func (e *AlreadySubmittedError) Error() string {
	return fmt.Sprintf("transaction already submitted as %s", e.Digest)
}

// TransactionError is a rejected, failed or aborted submission. Digest is
// empty when nothing reached the chain.
type TransactionError struct {
	Digest string
	Reason string
	Err    error
}

func (e *TransactionError) Error() string {
	if e.Digest != "" {
		return fmt.Sprintf("transaction %s failed: %s", e.Digest, e.Reason)
	}
	return "transaction failed: " + e.Reason
}

func (e *TransactionError) Unwrap() error { return e.Err }
