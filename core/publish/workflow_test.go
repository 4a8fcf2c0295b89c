package publish

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/irsalhamdi/coinspace/chain"
	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/storage"
	"github.com/irsalhamdi/coinspace/store"
	"github.com/irsalhamdi/coinspace/wallet"
)

const (
	owner  = "0x1111111111111111111111111111111111111111111111111111111111111111"
	payout = "0x2222222222222222222222222222222222222222222222222222222222222222"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeWallet struct {
	mu      sync.Mutex
	session wallet.Session
	intents []chain.Intent
	result  wallet.Result
	err     error
}

func (f *fakeWallet) Session() wallet.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeWallet) SignAndSubmit(ctx context.Context, intent chain.Intent) (wallet.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intent)
	if f.err != nil {
		return wallet.Result{}, f.err
	}
	return f.result, nil
}

type env struct {
	wf      *Workflow
	storage *storage.Memory
	wallet  *fakeWallet
	reg     *Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log, _ := test.NewNullLogger()
	e := &env{
		storage: storage.NewMemory(),
		wallet: &fakeWallet{
			session: wallet.Session{Connected: true, Address: owner, Balance: "5"},
			result:  wallet.Result{Success: true, Digest: "DIGEST1"},
		},
		reg: NewRegistry(store.NewMemory()),
	}
	e.wf = NewWorkflow(Config{
		Storage:  e.storage,
		Wallet:   e.wallet,
		Registry: e.reg,
		Log:      log,
		Now:      func() time.Time { return now },
	})
	return e
}

var pdf = File{Name: "move.pdf", ContentType: TypePDF, Data: []byte("%PDF-1.4 move basics")}

func freeDetails() Details {
	return Details{
		Title:       "Introduction to Move",
		AuthorName:  "Alex Rodriguez",
		Description: "Basics",
		Category:    "Smart Contracts",
		Kind:        content.Free,
		Price:       12,
		Policy:      content.Unique,
	}
}

func (e *env) uploaded(t *testing.T) string {
	t.Helper()
	if err := e.wf.SelectFile(pdf); err != nil {
		t.Fatal(err)
	}
	id, err := e.wf.UploadSelectedFile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSelectFile(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name       string
		file       File
		constraint string
	}{
		{"image", File{Name: "a.png", ContentType: "image/png", Data: []byte("x")}, "type"},
		{"empty", File{Name: "a.pdf", ContentType: TypePDF}, "empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := e.wf.SelectFile(pdf); err != nil {
				t.Fatal(err)
			}
			err := e.wf.SelectFile(tc.file)
			var fe *InvalidFileError
			if !errors.As(err, &fe) || fe.Constraint != tc.constraint {
				t.Fatalf("expected %s rejection, got %v", tc.constraint, err)
			}
			if s := e.wf.Snapshot(); s.FileName != "" || s.Step != SelectFile {
				t.Fatalf("rejected file left state %+v", s)
			}
		})
	}

	if err := e.wf.SelectFile(File{Name: "notes.txt", Data: []byte("plain notes about move")}); err != nil {
		t.Fatalf("sniffed text file rejected: %v", err)
	}
}

func TestLegacyLimits(t *testing.T) {
	doc := File{Name: "a.doc", ContentType: TypeDOC, Data: []byte("x")}
	if _, err := LegacyLimits.Check(doc); err == nil {
		t.Fatal("legacy limits accepted a doc file")
	}
	if _, err := RichLimits.Check(doc); err != nil {
		t.Fatal(err)
	}
	if LegacyLimits.MaxSize != 50<<20 || RichLimits.MaxSize != 100<<20 {
		t.Fatal("unexpected size ceilings")
	}

	small := Limits{MaxSize: 1 << 20, Types: []string{TypePDF}, Label: "a PDF"}
	big := File{Name: "a.pdf", ContentType: TypePDF, Data: make([]byte, 2<<20)}
	_, err := small.Check(big)
	var fe *InvalidFileError
	if !errors.As(err, &fe) || fe.Constraint != "size" || fe.Message != "File size must be less than 1MB" {
		t.Fatalf("expected size rejection, got %v", err)
	}
}

func TestUpload(t *testing.T) {
	e := newEnv(t)

	if _, err := e.wf.UploadSelectedFile(context.Background()); err == nil {
		t.Fatal("upload without a file")
	}

	id := e.uploaded(t)
	if !storage.ValidArweaveID(id) {
		t.Fatalf("storage id %s", id)
	}
	s := e.wf.Snapshot()
	if s.Step != Uploaded || s.StorageID != id || s.Progress != 1 {
		t.Fatalf("snapshot %+v", s)
	}
	if got := storage.TagValue(e.storage.Tags(id), "File-Name"); got != "move.pdf" {
		t.Fatalf("File-Name tag %q", got)
	}
}

type failingStorage struct {
	*storage.Memory
}

func (failingStorage) UploadContent(ctx context.Context, data []byte, contentType string, tags []storage.Tag, opts ...storage.UploadOption) (string, error) {
	return "", &storage.UploadError{Status: 500}
}

func TestUploadFailure(t *testing.T) {
	e := newEnv(t)
	e.wf.cfg.Storage = failingStorage{storage.NewMemory()}

	if err := e.wf.SelectFile(pdf); err != nil {
		t.Fatal(err)
	}
	_, err := e.wf.UploadSelectedFile(context.Background())
	var ue *storage.UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if s := e.wf.Snapshot(); s.Step != SelectFile || s.FileName != "move.pdf" {
		t.Fatalf("snapshot %+v", s)
	}
}

type blockingStorage struct {
	*storage.Memory
	started chan struct{}
	release chan struct{}
}

func (b blockingStorage) UploadContent(ctx context.Context, data []byte, contentType string, tags []storage.Tag, opts ...storage.UploadOption) (string, error) {
	close(b.started)
	<-b.release
	return b.Memory.UploadContent(ctx, data, contentType, tags, opts...)
}

func TestReselectAbandonsUpload(t *testing.T) {
	e := newEnv(t)
	bs := blockingStorage{Memory: storage.NewMemory(), started: make(chan struct{}), release: make(chan struct{})}
	e.wf.cfg.Storage = bs

	if err := e.wf.SelectFile(pdf); err != nil {
		t.Fatal(err)
	}
	done := make(chan error)
	go func() {
		_, err := e.wf.UploadSelectedFile(context.Background())
		done <- err
	}()
	<-bs.started

	other := File{Name: "other.txt", ContentType: TypeText, Data: []byte("other")}
	if err := e.wf.SelectFile(other); err != nil {
		t.Fatal(err)
	}
	close(bs.release)

	if err := <-done; !errors.Is(err, ErrAbandoned) {
		t.Fatalf("expected abandoned upload, got %v", err)
	}
	if s := e.wf.Snapshot(); s.Step != SelectFile || s.StorageID != "" || s.FileName != "other.txt" {
		t.Fatalf("late upload result leaked into %+v", s)
	}
}

func TestSubmitDetails(t *testing.T) {
	e := newEnv(t)

	if err := e.wf.SubmitDetails(freeDetails()); err == nil {
		t.Fatal("details accepted before upload")
	}
	e.uploaded(t)

	tests := []struct {
		name  string
		edit  func(*Details)
		field string
	}{
		{"missing title", func(d *Details) { d.Title = " " }, "title"},
		{"missing author", func(d *Details) { d.AuthorName = "" }, "authorName"},
		{"paid without price", func(d *Details) { d.Kind = content.Paid; d.Price = 0 }, "price"},
		{"negative price", func(d *Details) { d.Kind = content.Paid; d.Price = -5 }, "price"},
		{"no editions", func(d *Details) { d.Policy = content.Editioned; d.TotalEditions = 0 }, "totalEditions"},
		{"too many editions", func(d *Details) { d.Policy = content.Editioned; d.TotalEditions = 10001 }, "totalEditions"},
		{"bad kind", func(d *Details) { d.Kind = "Gift" }, "kind"},
		{"long category", func(d *Details) { d.Category = strings.Repeat("c", 65) }, "category"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := freeDetails()
			tc.edit(&d)
			err := e.wf.SubmitDetails(d)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected %s error, got %v", tc.field, err)
			}
			if s := e.wf.Snapshot(); s.Step != CollectingDetails || s.Details != nil {
				t.Fatalf("snapshot %+v", s)
			}
		})
	}

	if err := e.wf.SubmitDetails(freeDetails()); err != nil {
		t.Fatal(err)
	}
	got := e.wf.Snapshot().Details
	if got.Price != 0 || got.TotalEditions != 1 {
		t.Fatalf("free unique details not normalised: %+v", got)
	}

	d := freeDetails()
	d.Policy = content.Editioned
	d.TotalEditions = 10000
	if err := e.wf.SubmitDetails(d); err != nil {
		t.Fatalf("10000 editions rejected: %v", err)
	}
}

func TestMintFree(t *testing.T) {
	e := newEnv(t)
	id := e.uploaded(t)
	if err := e.wf.SubmitDetails(freeDetails()); err != nil {
		t.Fatal(err)
	}

	rec, err := e.wf.Mint(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	exp := content.Record{
		Title:          "Introduction to Move",
		AuthorName:     "Alex Rodriguez",
		StorageID:      id,
		MetadataID:     rec.MetadataID,
		Kind:           content.Free,
		CreatorAddress: owner,
		Description:    "Basics",
		Category:       "Smart Contracts",
		Policy:         content.Unique,
		TotalEditions:  1,
		CreatedAt:      now,
		Owner:          owner,
		Digest:         "DIGEST1",
		MintedAt:       &now,
	}
	if diff := cmp.Diff(exp, rec); diff != "" {
		t.Fatal(diff)
	}

	meta, err := e.storage.FetchContent(context.Background(), rec.MetadataID)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(meta, &m); err != nil {
		t.Fatal(err)
	}
	if m["moduleTitle"] != "Introduction to Move" || m["arweaveId"] != id || m["serviceFee"] != "0.01" {
		t.Fatalf("metadata %s", meta)
	}
	if got := storage.TagValue(e.storage.Tags(rec.MetadataID), "Module-Title"); got != "Introduction to Move" {
		t.Fatalf("Module-Title tag %q", got)
	}

	if len(e.wallet.intents) != 1 || e.wallet.intents[0].Function() != chain.FunctionMintFree {
		t.Fatalf("intents %+v", e.wallet.intents)
	}
	if s := e.wf.Snapshot(); s.Step != Complete || s.Record == nil {
		t.Fatalf("snapshot %+v", s)
	}
	if !e.reg.Minted(context.Background(), id) {
		t.Fatal("storage id not registered")
	}
	if lib := e.reg.Library(context.Background(), owner); len(lib) != 1 || lib[0].Digest != "DIGEST1" {
		t.Fatalf("library %+v", lib)
	}

	if err := e.wf.Reset(); err != nil {
		t.Fatal(err)
	}
	if s := e.wf.Snapshot(); s.Step != SelectFile || s.StorageID != "" || s.Details != nil {
		t.Fatalf("after reset %+v", s)
	}
}

func TestMintPaid(t *testing.T) {
	e := newEnv(t)
	e.wallet.result.Transferred = 2_000_000_000
	e.uploaded(t)
	d := freeDetails()
	d.Kind = content.Paid
	d.Price = 2_000_000_000
	d.PayoutAddress = payout
	if err := e.wf.SubmitDetails(d); err != nil {
		t.Fatal(err)
	}

	rec, err := e.wf.Mint(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec.Price != 2_000_000_000 || rec.Kind != content.Paid || rec.CreatorAddress != payout {
		t.Fatalf("record %+v", rec)
	}
	paid, ok := e.wallet.intents[0].(chain.MintPaid)
	if !ok || paid.Price != 2_000_000_000 || paid.Creator != payout || paid.Caller != owner {
		t.Fatalf("intent %+v", e.wallet.intents[0])
	}
}

func TestMintPaidToSelf(t *testing.T) {
	e := newEnv(t)
	e.uploaded(t)
	d := freeDetails()
	d.Kind = content.Paid
	d.Price = 2_000_000_000
	if err := e.wf.SubmitDetails(d); err != nil {
		t.Fatal(err)
	}

	// Nothing reaches another account, so the receipt shows no transfer.
	rec, err := e.wf.Mint(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec.CreatorAddress != owner {
		t.Fatalf("record %+v", rec)
	}
	paid, ok := e.wallet.intents[0].(chain.MintPaid)
	if !ok || paid.Creator != owner {
		t.Fatalf("intent %+v", e.wallet.intents[0])
	}
}

func TestMintUnderpaid(t *testing.T) {
	tests := []struct {
		name        string
		transferred uint64
	}{
		{"nothing received", 0},
		{"partial payment", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.wallet.result.Transferred = tt.transferred
			id := e.uploaded(t)
			d := freeDetails()
			d.Kind = content.Paid
			d.Price = 2_000_000_000
			d.PayoutAddress = payout
			if err := e.wf.SubmitDetails(d); err != nil {
				t.Fatal(err)
			}

			_, err := e.wf.Mint(context.Background())
			var pe *PaymentError
			if !errors.As(err, &pe) || pe.Transferred != tt.transferred || pe.Price != 2_000_000_000 {
				t.Fatalf("expected payment error, got %v", err)
			}
			if s := e.wf.Snapshot(); s.Step != CollectingDetails || s.Details == nil {
				t.Fatalf("snapshot %+v", s)
			}

			if !e.reg.Minted(context.Background(), id) {
				t.Fatal("minted storage id not registered after short payment")
			}
			if _, err := e.wf.Mint(context.Background()); !errors.As(err, new(*DuplicateContentError)) {
				t.Fatalf("expected duplicate on retry, got %v", err)
			}
			if len(e.wallet.intents) != 1 {
				t.Fatalf("retry reached the wallet: %d intents", len(e.wallet.intents))
			}
		})
	}
}

func TestSubmitDetailsPayoutAddress(t *testing.T) {
	e := newEnv(t)
	e.uploaded(t)
	d := freeDetails()
	d.Kind = content.Paid
	d.Price = 1
	d.PayoutAddress = "not-an-address"

	var ve *ValidationError
	if err := e.wf.SubmitDetails(d); !errors.As(err, &ve) || ve.Field != "payoutAddress" {
		t.Fatalf("expected payout address error, got %v", err)
	}

	d.PayoutAddress = " 0x2 "
	if err := e.wf.SubmitDetails(d); err != nil {
		t.Fatal(err)
	}
	want := "0x" + strings.Repeat("0", 63) + "2"
	if s := e.wf.Snapshot(); s.Details == nil || s.Details.PayoutAddress != want {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestMintRequiresWallet(t *testing.T) {
	e := newEnv(t)
	e.wallet.session = wallet.Session{}
	e.uploaded(t)
	if err := e.wf.SubmitDetails(freeDetails()); err != nil {
		t.Fatal(err)
	}

	if _, err := e.wf.Mint(context.Background()); !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("expected wallet error, got %v", err)
	}
	if len(e.wallet.intents) != 0 {
		t.Fatal("intent submitted without a wallet")
	}
	if s := e.wf.Snapshot(); s.Step != CollectingDetails || s.Details == nil {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestMintDuplicate(t *testing.T) {
	e := newEnv(t)
	e.uploaded(t)
	if err := e.wf.SubmitDetails(freeDetails()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.wf.Mint(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.wf.Reset(); err != nil {
		t.Fatal(err)
	}

	id := e.uploaded(t)
	if err := e.wf.SubmitDetails(freeDetails()); err != nil {
		t.Fatal(err)
	}
	_, err := e.wf.Mint(context.Background())
	var de *DuplicateContentError
	if !errors.As(err, &de) || de.StorageID != id {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if len(e.wallet.intents) != 1 {
		t.Fatalf("duplicate reached the wallet: %d intents", len(e.wallet.intents))
	}
}

func TestMintWalletFailure(t *testing.T) {
	e := newEnv(t)
	e.wallet.err = &wallet.TransactionError{Reason: "request rejected by user", Err: wallet.ErrRejected}
	e.uploaded(t)
	if err := e.wf.SubmitDetails(freeDetails()); err != nil {
		t.Fatal(err)
	}

	_, err := e.wf.Mint(context.Background())
	if !errors.Is(err, wallet.ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	s := e.wf.Snapshot()
	if s.Step != CollectingDetails || s.Details == nil || s.Details.Title != "Introduction to Move" {
		t.Fatalf("details lost after failure: %+v", s)
	}
	if e.reg.Minted(context.Background(), s.StorageID) {
		t.Fatal("failed mint was registered")
	}
}

func TestEstimatedCost(t *testing.T) {
	if got := content.Sui(EstimatedCost()).String(); got != "0.015" {
		t.Fatalf("estimated cost %s", got)
	}
}
