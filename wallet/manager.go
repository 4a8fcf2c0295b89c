package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irsalhamdi/coinspace/chain"
)

// Manager owns the wallet session. The mutex is never held across a
// provider call.
type Manager struct {
	provider Provider
	log      logrus.FieldLogger

	mu      sync.Mutex
	state   State
	address string
	balance string
	// attempt is bumped by every connect and disconnect so a late provider
	// answer can tell it has been overtaken.
	attempt   uint64
	inflight  map[string]bool
	submitted map[string]string
}

func NewManager(p Provider, log logrus.FieldLogger) *Manager {
	return &Manager{
		provider:  p,
		log:       log,
		balance:   "0",
		inflight:  make(map[string]bool),
		submitted: make(map[string]string),
	}
}

func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session()
}

func (m *Manager) session() Session {
	s := Session{Balance: "0"}
	if m.state == Connected {
		s.Connected = true
		s.Address = m.address
		s.Balance = m.balance
	}
	return s
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect asks the provider for an account. The caller's context is the only
// deadline. A newer Connect or a Disconnect while this one is pending wins.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	m.mu.Lock()
	m.attempt++
	attempt := m.attempt
	m.state = Connecting
	m.address = ""
	m.balance = "0"
	m.mu.Unlock()

	addr, err := m.provider.RequestAccount(ctx)

	m.mu.Lock()
	if attempt != m.attempt {
		m.mu.Unlock()
		return Session{}, ErrSuperseded
	}
	if err != nil {
		m.state = Disconnected
		m.mu.Unlock()
		return Session{}, fmt.Errorf("connecting wallet: %w", err)
	}
	m.state = Connected
	m.address = addr
	m.mu.Unlock()

	m.log.WithField("address", addr).Info("wallet connected")

	m.RefreshBalance(ctx)
	return m.Session(), nil
}

// Disconnect always clears the session. Revocation failures are logged.
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	addr := m.address
	m.reset()
	m.mu.Unlock()

	if addr == "" {
		return
	}
	if err := m.provider.Revoke(ctx, addr); err != nil {
		m.log.WithError(err).WithField("address", addr).Warn("revoking wallet access")
	}
	m.log.WithField("address", addr).Info("wallet disconnected")
}

// Revoked resets the session after the provider withdrew access on its own.
func (m *Manager) Revoked() {
	m.mu.Lock()
	addr := m.address
	m.reset()
	m.mu.Unlock()

	m.log.WithField("address", addr).Info("wallet access revoked")
}

func (m *Manager) reset() {
	m.attempt++
	m.state = Disconnected
	m.address = ""
	m.balance = "0"
}

// RefreshBalance is best effort: on failure the balance reads "0".
func (m *Manager) RefreshBalance(ctx context.Context) {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return
	}
	addr, attempt := m.address, m.attempt
	m.mu.Unlock()

	display := "0"
	mist, err := m.provider.Balance(ctx, addr)
	if err != nil {
		m.log.WithError(err).WithField("address", addr).Warn("fetching balance")
	} else {
		display = FormatSui(mist)
	}

	m.mu.Lock()
	if attempt == m.attempt {
		m.balance = display
	}
	m.mu.Unlock()
}

// FormatSui renders an amount of MIST as SUI.
func FormatSui(mist uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(mist), -9).String()
}

// SignAndSubmit has the provider sign and execute intent. It never retries.
// Once an intent has executed successfully, submitting it again returns
// AlreadySubmittedError. A failed execution leaves the intent free to be
// submitted again.
func (m *Manager) SignAndSubmit(ctx context.Context, intent chain.Intent) (Result, error) {
	fp := chain.Fingerprint(intent)

	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return Result{}, ErrNotConnected
	}
	if digest, ok := m.submitted[fp]; ok {
		m.mu.Unlock()
		return Result{}, &AlreadySubmittedError{Digest: digest}
	}
	if m.inflight[fp] {
		m.mu.Unlock()
		return Result{}, ErrPending
	}
	if !strings.EqualFold(intent.Sender(), m.address) {
		m.mu.Unlock()
		return Result{}, ErrWrongSender
	}
	addr := m.address
	m.inflight[fp] = true
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{
		"address":  addr,
		"function": intent.Function(),
	})

	exec, err := m.provider.SignAndExecute(ctx, addr, intent)
	digest := exec.Receipt.Digest

	m.mu.Lock()
	delete(m.inflight, fp)
	if err == nil && exec.Receipt.Succeeded() {
		m.submitted[fp] = digest
	}
	m.mu.Unlock()

	res := Result{
		Digest:      digest,
		Receipt:     exec.Receipt,
		Transferred: exec.Transferred,
	}

	if err != nil {
		res.Error = err.Error()
		log.WithError(err).Warn("transaction not executed")
		return res, &TransactionError{Digest: digest, Reason: err.Error(), Err: err}
	}
	if !exec.Receipt.Succeeded() {
		reason := exec.Receipt.Error
		if reason == "" {
			reason = fmt.Sprintf("status %q", exec.Receipt.Status)
		}
		res.Error = reason
		log.WithField("digest", digest).Warn("transaction failed: " + reason)
		return res, &TransactionError{Digest: digest, Reason: reason}
	}

	res.Success = true
	log.WithField("digest", digest).Info("transaction executed")

	m.RefreshBalance(ctx)
	return res, nil
}
