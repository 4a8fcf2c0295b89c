package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/storage"
)

func titles(recs []content.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func TestFilter(t *testing.T) {
	seed := Seed()

	tests := []struct {
		name string
		q    Query
		exp  []string
	}{
		{"no filter", Query{}, titles(seed)},
		{"all everywhere", Query{Category: All, Kind: All}, titles(seed)},
		{"title match ignores case", Query{Text: "MOVE"}, []string{"Smart Contract Development with Move"}},
		{"author match", Query{Text: "kim"}, []string{"NFT Creation and Marketplace Strategies"}},
		{"description match", Query{Text: "yield farming"}, []string{"DeFi Fundamentals and Protocols"}},
		{"kind", Query{Kind: "Paid"}, []string{"Smart Contract Development with Move", "DeFi Fundamentals and Protocols"}},
		{"category", Query{Category: "NFTs"}, []string{"NFT Creation and Marketplace Strategies"}},
		{"and", Query{Text: "learn", Kind: "Free"}, []string{"NFT Creation and Marketplace Strategies"}},
		{"no match", Query{Text: "quantum"}, []string{}},
		{"category is exact", Query{Category: "defi"}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.exp, titles(Filter(seed, tc.q))); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	recs := append(Seed(), content.Record{Title: "x"}, content.Record{Title: "y", Category: "DeFi"})
	exp := []string{All, "Blockchain Basics", "Smart Contracts", "DeFi", "NFTs"}
	if diff := cmp.Diff(exp, Categories(recs)); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{All}, Categories(nil)); diff != "" {
		t.Fatal(diff)
	}
}

func TestSeed(t *testing.T) {
	for _, r := range Seed() {
		if !storage.ValidArweaveID(r.StorageID) {
			t.Errorf("%s: storage id %q", r.Title, r.StorageID)
		}
		if !cmp.Equal(r, r.Normalize()) {
			t.Errorf("%s is not normalised", r.Title)
		}
	}
}
