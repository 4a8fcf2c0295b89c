package catalog

import (
	"strings"
	"time"

	"github.com/irsalhamdi/coinspace/core/content"
)

// All disables a category or kind filter.
const All = "All"

type Query struct {
	Text     string `json:"search"`
	Category string `json:"category"`
	Kind     string `json:"type"`
}

func active(v string) bool {
	return v != "" && v != All
}

// Filter keeps the records matching every part of q, in their original order.
// Text matches title, author or description without regard to case.
func Filter(records []content.Record, q Query) []content.Record {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]content.Record, 0, len(records))
	for _, r := range records {
		if text != "" &&
			!strings.Contains(strings.ToLower(r.Title), text) &&
			!strings.Contains(strings.ToLower(r.AuthorName), text) &&
			!strings.Contains(strings.ToLower(r.Description), text) {
			continue
		}
		if active(q.Category) && r.Category != q.Category {
			continue
		}
		if active(q.Kind) && string(r.Kind) != q.Kind {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories lists All followed by each distinct non-empty category in the
// order first seen.
func Categories(records []content.Record) []string {
	cats := []string{All}
	seen := map[string]bool{}
	for _, r := range records {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		cats = append(cats, r.Category)
	}
	return cats
}

var seededAt = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// Seed is the catalog shown before anything has been minted.
func Seed() []content.Record {
	return []content.Record{
		{
			Title:          "Introduction to Blockchain Technology",
			AuthorName:     "Dr. Sarah Chen",
			StorageID:      "YwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbd",
			Kind:           content.Free,
			CreatorAddress: "0x1234567890abcdef1234567890abcdef12345678",
			Description:    "A comprehensive introduction to blockchain technology, covering fundamentals, consensus mechanisms, and real-world applications.",
			Category:       "Blockchain Basics",
			Policy:         content.Unique,
			TotalEditions:  1,
			CreatedAt:      seededAt,
		},
		{
			Title:          "Smart Contract Development with Move",
			AuthorName:     "Alex Rodriguez",
			StorageID:      "PK1s3pNYLi9ERiq3BDxKa4XosgWwFRQUydHUtz4Ygpq",
			Kind:           content.Paid,
			CreatorAddress: "0xabcdef1234567890abcdef1234567890abcdef12",
			Price:          2_000_000_000,
			Description:    "Learn to develop smart contracts using the Move programming language on the Sui blockchain.",
			Category:       "Smart Contracts",
			Policy:         content.Unique,
			TotalEditions:  1,
			CreatedAt:      seededAt,
		},
		{
			Title:          "DeFi Fundamentals and Protocols",
			AuthorName:     "Maria Gonzalez",
			StorageID:      "NLei78zWmzUdbeRB3CiUfAizWUrbeeZh5K1rhAQKCh5",
			Kind:           content.Paid,
			CreatorAddress: "0x9876543210fedcba9876543210fedcba98765432",
			Price:          1_500_000_000,
			Description:    "Explore decentralized finance protocols, yield farming, liquidity mining, and DeFi investment strategies.",
			Category:       "DeFi",
			Policy:         content.Unique,
			TotalEditions:  1,
			CreatedAt:      seededAt,
		},
		{
			Title:          "NFT Creation and Marketplace Strategies",
			AuthorName:     "David Kim",
			StorageID:      "RAQB6YaCyidP37UdDnjFY5vQuiBrcqdyoW1CuDgwxkD",
			Kind:           content.Free,
			CreatorAddress: "0x5555666677778888999900001111222233334444",
			Description:    "Learn how to create, mint, and market NFTs effectively in the digital marketplace.",
			Category:       "NFTs",
			Policy:         content.Unique,
			TotalEditions:  1,
			CreatedAt:      seededAt,
		},
	}
}
