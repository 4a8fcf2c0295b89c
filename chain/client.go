package chain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/filecoin-project/go-jsonrpc"
)

const (
	TestnetURL = "https://fullnode.testnet.sui.io:443"
	MainnetURL = "https://fullnode.mainnet.sui.io:443"
)

// RPCError is an error object returned by the node.
type RPCError = jsonrpc.JSONRPCError

type balanceResult struct {
	CoinType     string `json:"coinType"`
	TotalBalance string `json:"totalBalance"`
}

type ownedQuery struct {
	Filter  map[string]string `json:"filter"`
	Options map[string]bool   `json:"options"`
}

type ownedPage struct {
	Data []struct {
		Data struct {
			ObjectID string `json:"objectId"`
			Type     string `json:"type"`
			Content  struct {
				Fields map[string]any `json:"fields"`
			} `json:"content"`
		} `json:"data"`
	} `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// nodeAPI is filled in by go-jsonrpc. Every field names its Sui method.
type nodeAPI struct {
	GetBalance func(ctx context.Context, owner, coinType string) (balanceResult, error) `rpc_method:"suix_getBalance"`

	ExecuteTransactionBlock func(ctx context.Context, txBytes string, signatures []string, options map[string]bool, requestType string) (txResponse, error) `rpc_method:"sui_executeTransactionBlock"`

	GetTransactionBlock func(ctx context.Context, digest string, options map[string]bool) (txResponse, error) `rpc_method:"sui_getTransactionBlock"`

	GetOwnedObjects func(ctx context.Context, owner string, query ownedQuery, cursor *string, limit int) (ownedPage, error) `rpc_method:"suix_getOwnedObjects"`
}

// Client is a JSON-RPC 2.0 client for a Sui full node.
type Client struct {
	api nodeAPI
}

// NewClient connects to the node at url over HTTP(S). The returned closer
// releases the client.
func NewClient(ctx context.Context, url string, hc *http.Client) (*Client, jsonrpc.ClientCloser, error) {
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}

	var c Client
	closer, err := jsonrpc.NewMergeClient(ctx, url, "sui", []interface{}{&c.api}, nil,
		jsonrpc.WithHTTPClient(hc),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to node[%s]: %w", url, err)
	}
	return &c, closer, nil
}

// Balance returns the total SUI balance of owner in MIST.
func (c *Client) Balance(ctx context.Context, owner string) (uint64, error) {
	out, err := c.api.GetBalance(ctx, owner, SuiCoinType)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(out.TotalBalance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing balance %q: %w", out.TotalBalance, err)
	}
	return v, nil
}

var responseOptions = map[string]bool{
	"showEffects":        true,
	"showBalanceChanges": true,
}

// Execute submits signed transaction bytes and waits for local execution.
func (c *Client) Execute(ctx context.Context, txBytes []byte, signatures []string) (Receipt, error) {
	if len(signatures) == 0 {
		return Receipt{}, errors.New("transaction is not signed")
	}
	out, err := c.api.ExecuteTransactionBlock(ctx,
		base64.StdEncoding.EncodeToString(txBytes),
		signatures,
		responseOptions,
		"WaitForLocalExecution",
	)
	if err != nil {
		return Receipt{}, err
	}
	return out.receipt(), nil
}

// Transaction looks up an executed transaction by digest.
func (c *Client) Transaction(ctx context.Context, digest string) (Receipt, error) {
	out, err := c.api.GetTransactionBlock(ctx, digest, responseOptions)
	if err != nil {
		return Receipt{}, err
	}
	return out.receipt(), nil
}

// Object is an owned on-chain object with its Move fields.
type Object struct {
	ID     string
	Type   string
	Fields map[string]any
}

const ownedPageSize = 50

// OwnedObjects lists the objects of structType held by owner, following
// pagination until the node reports no further pages.
func (c *Client) OwnedObjects(ctx context.Context, owner, structType string) ([]Object, error) {
	query := ownedQuery{
		Filter:  map[string]string{"StructType": structType},
		Options: map[string]bool{"showType": true, "showContent": true},
	}

	var (
		objects []Object
		cursor  *string
	)
	for {
		page, err := c.api.GetOwnedObjects(ctx, owner, query, cursor, ownedPageSize)
		if err != nil {
			return nil, err
		}
		for _, d := range page.Data {
			objects = append(objects, Object{
				ID:     d.Data.ObjectID,
				Type:   d.Data.Type,
				Fields: d.Data.Content.Fields,
			})
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return objects, nil
		}
		cursor = page.NextCursor
	}
}

// ModuleType is the struct type minted by the coinspace_nft module.
func (c Config) ModuleType() string {
	c = c.withDefaults()
	return fmt.Sprintf("%s::%s::CoinspaceModule", c.PackageID, c.Module)
}
