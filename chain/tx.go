package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const (
	DefaultModule    = "coinspace_nft"
	DefaultGasBudget = 10_000_000

	SuiCoinType = "0x2::sui::SUI"
	MistPerSui  = 1_000_000_000
)

type Config struct {
	PackageID string
	Module    string
	GasBudget uint64
}

func (c Config) withDefaults() Config {
	if c.Module == "" {
		c.Module = DefaultModule
	}
	if c.GasBudget == 0 {
		c.GasBudget = DefaultGasBudget
	}
	return c
}

// Target is the fully qualified Move function an intent calls.
func (c Config) Target(i Intent) string {
	c = c.withDefaults()
	return fmt.Sprintf("%s::%s::%s_module", c.PackageID, c.Module, i.Function())
}

type ArgKind string

const (
	ArgGas    ArgKind = "gas"
	ArgPure   ArgKind = "pure"
	ArgResult ArgKind = "result"
)

type Arg struct {
	Kind   ArgKind `json:"kind"`
	Type   string  `json:"type,omitempty"`
	Value  string  `json:"value,omitempty"`
	Result int     `json:"result,omitempty"`
}

func pureString(s string) Arg { return Arg{Kind: ArgPure, Type: "string", Value: s} }
func pureU64(v uint64) Arg { return Arg{Kind: ArgPure, Type: "u64", Value: strconv.FormatUint(v, 10)} }
func pureAddress(a string) Arg { return Arg{Kind: ArgPure, Type: "address", Value: a} }

type CommandKind string

const (
	CommandSplitCoins CommandKind = "SplitCoins"
	CommandMoveCall   CommandKind = "MoveCall"
)

type Command struct {
	Kind      CommandKind `json:"kind"`
	Target    string      `json:"target,omitempty"`
	Coin      *Arg        `json:"coin,omitempty"`
	Arguments []Arg       `json:"arguments"`
}

// Transaction is a programmable transaction: commands run in order and a
// command may consume an earlier command's result.
type Transaction struct {
	Sender    string    `json:"sender"`
	GasBudget uint64    `json:"gasBudget"`
	Commands  []Command `json:"commands"`
}

// Build turns an intent into the transaction the wallet signs.
func Build(i Intent, cfg Config) (Transaction, error) {
	cfg = cfg.withDefaults()
	if !ValidAddress(cfg.PackageID) {
		return Transaction{}, fmt.Errorf("invalid package id %q", cfg.PackageID)
	}

	f := i.Details()
	args := []Arg{
		pureString(f.Title),
		pureString(f.AuthorName),
		pureString(f.StorageID),
		pureString(f.Description),
		pureString(f.Category),
	}

	tx := Transaction{Sender: i.Sender(), GasBudget: cfg.GasBudget}

	switch m := i.(type) {
	case MintFree:
	case MintPaid:
		gas := Arg{Kind: ArgGas}
		tx.Commands = append(tx.Commands, Command{
			Kind:      CommandSplitCoins,
			Coin:      &gas,
			Arguments: []Arg{pureU64(m.Price)},
		})
		args = append(args, Arg{Kind: ArgResult, Result: 0}, pureAddress(m.Creator))
	default:
		return Transaction{}, fmt.Errorf("unsupported intent %T", i)
	}

	tx.Commands = append(tx.Commands, Command{
		Kind:      CommandMoveCall,
		Target:    cfg.Target(i),
		Arguments: args,
	})
	return tx, nil
}

// Bytes is the encoding that gets signed and submitted.
func (tx Transaction) Bytes() ([]byte, error) {
	return json.Marshal(tx)
}

func DecodeTransaction(b []byte) (Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(b, &tx); err != nil {
		return Transaction{}, fmt.Errorf("decoding transaction: %w", err)
	}
	if len(tx.Commands) == 0 {
		return Transaction{}, errors.New("transaction has no commands")
	}
	return tx, nil
}

// Payment sums the coins split from gas, which is what the sender pays on top
// of gas.
func (tx Transaction) Payment() uint64 {
	var total uint64
	for _, c := range tx.Commands {
		if c.Kind != CommandSplitCoins || c.Coin == nil || c.Coin.Kind != ArgGas {
			continue
		}
		for _, a := range c.Arguments {
			if a.Kind != ArgPure || a.Type != "u64" {
				continue
			}
			v, err := strconv.ParseUint(a.Value, 10, 64)
			if err != nil {
				continue
			}
			total += v
		}
	}
	return total
}
