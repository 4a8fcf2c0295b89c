package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irsalhamdi/coinspace/chain"
	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/storage"
	"github.com/irsalhamdi/coinspace/wallet"
)

type Step int

const (
	SelectFile Step = iota
	Uploading
	Uploaded
	CollectingDetails
	Minting
	Complete
)

var stepNames = [...]string{"select file", "uploading", "uploaded", "collecting details", "minting", "complete"}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", int(s))
}

const (
	ServiceFee   = 10_000_000
	EstimatedGas = 5_000_000
)

// EstimatedCost is shown before minting: the service fee plus expected gas.
func EstimatedCost() uint64 {
	return ServiceFee + EstimatedGas
}

var (
	ErrWalletNotConnected = wallet.ErrNotConnected
	ErrAbandoned          = errors.New("step abandoned")
)

// StateError is returned when an operation is called from the wrong step.
type StateError struct {
	Step    Step
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s (current step: %s)", e.Message, e.Step)
}

type DuplicateContentError struct {
	StorageID string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("content %s has already been minted", e.StorageID)
}

// PaymentError reports a paid mint whose signed payment fell short of the
// price.
type PaymentError struct {
	Digest      string
	Price       uint64
	Transferred uint64
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("transaction %s paid %d MIST, price is %d MIST", e.Digest, e.Transferred, e.Price)
}

// Wallet is the part of the wallet manager publishing needs.
type Wallet interface {
	Session() wallet.Session
	SignAndSubmit(ctx context.Context, intent chain.Intent) (wallet.Result, error)
}

type Config struct {
	Limits   Limits
	Storage  storage.Client
	Wallet   Wallet
	Registry *Registry
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Metadata is the JSON document uploaded next to the content.
type Metadata struct {
	content.Record
	ArweaveID  string          `json:"arweaveId"`
	ServiceFee decimal.Decimal `json:"serviceFee"`
}

// Snapshot is a read-only view of the workflow.
type Snapshot struct {
	Step      Step
	FileName  string
	Progress  float64
	StorageID string
	Details   *Details
	Record    *content.Record
}

// Workflow walks one document from file selection to a minted module. The
// mutex is never held across network calls; gen changes whenever pending
// work must be dropped.
type Workflow struct {
	cfg Config

	mu        sync.Mutex
	step      Step
	gen       uint64
	file      *File
	progress  float64
	storageID string
	details   *Details
	record    *content.Record
}

func NewWorkflow(cfg Config) *Workflow {
	if cfg.Limits.MaxSize == 0 {
		cfg.Limits = RichLimits
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Workflow{cfg: cfg}
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Step:      w.step,
		Progress:  w.progress,
		StorageID: w.storageID,
	}
	if w.file != nil {
		s.FileName = w.file.Name
	}
	if w.details != nil {
		d := *w.details
		s.Details = &d
	}
	if w.record != nil {
		r := *w.record
		s.Record = &r
	}
	return s
}

// SelectFile replaces any previous selection. A pending upload is abandoned
// and its late result discarded. A rejected file leaves nothing selected.
func (w *Workflow) SelectFile(f File) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == Minting || w.step == Complete {
		return &StateError{Step: w.step, Message: "cannot select a file now"}
	}

	w.gen++
	w.step = SelectFile
	w.file = nil
	w.progress = 0
	w.storageID = ""

	checked, err := w.cfg.Limits.Check(f)
	if err != nil {
		return err
	}
	w.file = &checked
	return nil
}

// UploadSelectedFile sends the selected file to storage. On failure the file
// stays selected and the workflow is back at SelectFile.
func (w *Workflow) UploadSelectedFile(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.step != SelectFile || w.file == nil {
		step := w.step
		w.mu.Unlock()
		return "", &StateError{Step: step, Message: "Please select a file first"}
	}
	w.gen++
	gen := w.gen
	f := *w.file
	w.step = Uploading
	w.progress = 0
	w.mu.Unlock()

	track := storage.WithProgress(func(fraction float64) {
		w.mu.Lock()
		if gen == w.gen {
			w.progress = fraction
		}
		w.mu.Unlock()
	})

	id, err := w.cfg.Storage.UploadContent(ctx, f.Data, f.ContentType, storage.ContentTags(f.Name, f.ContentType), track)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		return "", ErrAbandoned
	}
	if err != nil {
		w.step = SelectFile
		w.progress = 0
		return "", fmt.Errorf("uploading %s: %w", f.Name, err)
	}

	w.step = Uploaded
	w.progress = 1
	w.storageID = id
	w.cfg.Log.WithFields(logrus.Fields{
		"file":       f.Name,
		"storage_id": id,
	}).Info("content uploaded")
	return id, nil
}

// SubmitDetails validates d as a whole. On error nothing is stored.
func (w *Workflow) SubmitDetails(d Details) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != Uploaded && w.step != CollectingDetails {
		return &StateError{Step: w.step, Message: "Please complete the upload process first"}
	}
	w.step = CollectingDetails

	checked, err := d.check()
	if err != nil {
		return err
	}
	w.details = &checked
	return nil
}

// Mint uploads the metadata, has the wallet sign the mint and records the
// result. Any failure returns the workflow to CollectingDetails with the
// details kept.
func (w *Workflow) Mint(ctx context.Context) (content.Record, error) {
	w.mu.Lock()
	if w.step != CollectingDetails || w.details == nil {
		step := w.step
		w.mu.Unlock()
		return content.Record{}, &StateError{Step: step, Message: "Please fill in all required fields"}
	}
	if w.storageID == "" {
		w.mu.Unlock()
		return content.Record{}, &StateError{Step: w.step, Message: "Please complete the upload process first"}
	}
	session := w.cfg.Wallet.Session()
	if !session.Connected {
		w.mu.Unlock()
		return content.Record{}, ErrWalletNotConnected
	}
	storageID, d := w.storageID, *w.details
	w.step = Minting
	w.gen++
	w.mu.Unlock()

	rec, err := w.mint(ctx, session.Address, storageID, d)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.step = CollectingDetails
		return content.Record{}, err
	}
	w.step = Complete
	w.record = &rec
	return rec, nil
}

func (w *Workflow) mint(ctx context.Context, addr, storageID string, d Details) (content.Record, error) {
	if w.cfg.Registry.Minted(ctx, storageID) {
		return content.Record{}, &DuplicateContentError{StorageID: storageID}
	}

	rec := content.Record{
		Title:          d.Title,
		AuthorName:     d.AuthorName,
		StorageID:      storageID,
		Kind:           d.Kind,
		CreatorAddress: payee(addr, d),
		Price:          uint64(d.Price),
		Description:    d.Description,
		Category:       d.Category,
		Policy:         d.Policy,
		TotalEditions:  d.TotalEditions,
		CreatedAt:      w.cfg.Now().UTC(),
	}.Normalize()

	metaID, err := w.cfg.Storage.UploadMetadata(ctx, Metadata{
		Record:     rec,
		ArweaveID:  storageID,
		ServiceFee: content.Sui(ServiceFee),
	})
	if err != nil {
		return content.Record{}, fmt.Errorf("uploading metadata: %w", err)
	}
	rec.MetadataID = metaID

	fields := chain.ModuleFields{
		Title:       rec.Title,
		AuthorName:  rec.AuthorName,
		StorageID:   rec.StorageID,
		Description: rec.Description,
		Category:    rec.Category,
	}
	var intent chain.Intent
	if rec.Kind == content.Paid {
		intent, err = chain.NewMintPaid(fields, rec.Price, rec.CreatorAddress, addr)
	} else {
		intent, err = chain.NewMintFree(fields, addr)
	}
	if err != nil {
		return content.Record{}, fmt.Errorf("building mint: %w", err)
	}

	res, err := w.cfg.Wallet.SignAndSubmit(ctx, intent)
	if err != nil {
		return content.Record{}, err
	}

	minted := w.cfg.Now().UTC()
	rec.Owner = addr
	rec.Digest = res.Digest
	rec.MintedAt = &minted

	log := w.cfg.Log.WithFields(logrus.Fields{
		"storage_id": rec.StorageID,
		"digest":     rec.Digest,
		"owner":      addr,
	})

	// The module exists on chain from here on, so it is registered even
	// when the payment fell short.
	if err := w.cfg.Registry.Add(ctx, rec); err != nil {
		log.WithError(err).Warn("recording minted module")
	}

	// A payment to oneself nets out of the balance changes and cannot be
	// checked against them.
	if rec.Kind == content.Paid && rec.CreatorAddress != normalized(addr) && res.Transferred < rec.Price {
		log.WithFields(logrus.Fields{
			"price":       rec.Price,
			"transferred": res.Transferred,
		}).Warn("payment short of price")
		return content.Record{}, &PaymentError{Digest: res.Digest, Price: rec.Price, Transferred: res.Transferred}
	}
	log.Info("module minted")

	return rec, nil
}

// payee is the address paid for a paid module.
func payee(addr string, d Details) string {
	if d.PayoutAddress != "" {
		return d.PayoutAddress
	}
	return normalized(addr)
}

func normalized(addr string) string {
	if n, err := chain.NormalizeAddress(addr); err == nil {
		return n
	}
	return addr
}

// Reset starts over. It is refused while a mint is in flight.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == Minting {
		return &StateError{Step: w.step, Message: "cannot reset while minting"}
	}
	w.gen++
	w.step = SelectFile
	w.file = nil
	w.progress = 0
	w.storageID = ""
	w.details = nil
	w.record = nil
	return nil
}
