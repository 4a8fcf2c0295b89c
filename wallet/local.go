package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/irsalhamdi/coinspace/chain"
)

// KeyFile is the on-disk form of a local account.
type KeyFile struct {
	Address    string    `json:"address"`
	PrivateKey string    `json:"privateKey"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GenerateKey creates a new key file at path. An existing file is never
// overwritten.
func GenerateKey(path string) (KeyFile, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyFile{}, err
	}
	kf := KeyFile{
		Address:    chain.AddressFromPublicKey(pub),
		PrivateKey: base64.StdEncoding.EncodeToString(priv.Seed()),
		CreatedAt:  time.Now().UTC(),
	}

	b, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return KeyFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return KeyFile{}, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return KeyFile{}, fmt.Errorf("creating key file: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return KeyFile{}, err
	}
	return kf, f.Close()
}

func loadKey(path string) (ed25519.PrivateKey, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading key file: %w", err)
	}
	var kf KeyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return nil, "", fmt.Errorf("decoding key file: %w", err)
	}
	seed, err := base64.StdEncoding.DecodeString(kf.PrivateKey)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, "", errors.New("key file holds a malformed private key")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	addr := chain.AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	if kf.Address != "" && !strings.EqualFold(kf.Address, addr) {
		return nil, "", errors.New("key file address does not match its key")
	}
	return priv, addr, nil
}

// Node is the part of the chain client a local wallet needs.
type Node interface {
	Balance(ctx context.Context, owner string) (uint64, error)
	Execute(ctx context.Context, txBytes []byte, signatures []string) (chain.Receipt, error)
}

// Approver asks the user to approve a request. Connect requests have a zero
// Transaction.
type Approver func(ctx context.Context, req Approval) (bool, error)

type Approval struct {
	Address     string
	Intent      chain.Intent
	Transaction chain.Transaction
}

type LocalConfig struct {
	KeyPath string
	Node    Node
	Chain   chain.Config
	Approve Approver
}

// Local is a Provider backed by an ed25519 key file.
type Local struct {
	cfg LocalConfig

	mu      sync.Mutex
	key     ed25519.PrivateKey
	address string
	granted bool
}

func NewLocal(cfg LocalConfig) *Local {
	return &Local{cfg: cfg}
}

func (l *Local) RequestAccount(ctx context.Context) (string, error) {
	priv, addr, err := loadKey(l.cfg.KeyPath)
	if err != nil {
		return "", err
	}
	if err := l.approve(ctx, Approval{Address: addr}); err != nil {
		return "", err
	}

	l.mu.Lock()
	l.key, l.address, l.granted = priv, addr, true
	l.mu.Unlock()
	return addr, nil
}

func (l *Local) Revoke(ctx context.Context, address string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !strings.EqualFold(address, l.address) {
		return fmt.Errorf("account %s is not connected", address)
	}
	l.granted = false
	return nil
}

func (l *Local) Balance(ctx context.Context, address string) (uint64, error) {
	return l.cfg.Node.Balance(ctx, address)
}

func (l *Local) SignAndExecute(ctx context.Context, address string, intent chain.Intent) (Execution, error) {
	l.mu.Lock()
	priv, granted, own := l.key, l.granted, l.address
	l.mu.Unlock()
	if !granted || !strings.EqualFold(address, own) {
		return Execution{}, ErrNotConnected
	}

	tx, err := chain.Build(intent, l.cfg.Chain)
	if err != nil {
		return Execution{}, err
	}
	if err := l.approve(ctx, Approval{Address: own, Intent: intent, Transaction: tx}); err != nil {
		return Execution{}, err
	}

	b, err := tx.Bytes()
	if err != nil {
		return Execution{}, err
	}
	receipt, err := l.cfg.Node.Execute(ctx, b, []string{Sign(priv, b)})
	if err != nil {
		return Execution{}, err
	}
	return Execution{Receipt: receipt, Transferred: transferred(intent, receipt)}, nil
}

// transferred reads the creator's payment off the receipt's balance changes.
// A creator that is also the sender nets out to zero or less.
func transferred(intent chain.Intent, receipt chain.Receipt) uint64 {
	m, ok := intent.(chain.MintPaid)
	if !ok {
		return 0
	}
	if got := receipt.Received(m.Creator); got > 0 {
		return uint64(got)
	}
	return 0
}

func (l *Local) approve(ctx context.Context, req Approval) error {
	if l.cfg.Approve == nil {
		return nil
	}
	ok, err := l.cfg.Approve(ctx, req)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	return nil
}

// transactionIntent is prepended to transaction bytes before hashing so a
// signature over a transaction cannot be replayed as any other message.
var transactionIntent = []byte{0, 0, 0}

// Sign returns the serialized signature flag || sig || pubkey in base64.
func Sign(priv ed25519.PrivateKey, txBytes []byte) string {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(priv, digest[:])
	pub := priv.Public().(ed25519.PublicKey)

	out := make([]byte, 0, 1+len(sig)+len(pub))
	out = append(out, chain.Ed25519Flag)
	out = append(out, sig...)
	out = append(out, pub...)
	return base64.StdEncoding.EncodeToString(out)
}

// Verify checks a signature produced by Sign and returns the signer address.
func Verify(txBytes []byte, signature string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(raw) != 1+ed25519.SignatureSize+ed25519.PublicKeySize || raw[0] != chain.Ed25519Flag {
		return "", false
	}
	sig := raw[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])

	msg := append(append([]byte{}, transactionIntent...), txBytes...)
	digest := blake2b.Sum256(msg)
	if !ed25519.Verify(pub, digest[:], sig) {
		return "", false
	}
	return chain.AddressFromPublicKey(pub), true
}
