package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type rpcCall struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func rpcServer(t *testing.T, handle func(call rpcCall) (any, *RPCError)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result, rpcErr := handle(call)
		resp := map[string]any{"jsonrpc": "2.0", "id": call.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, closer, err := NewClient(context.Background(), url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(closer)
	return c
}

func TestClientBalance(t *testing.T) {
	srv := rpcServer(t, func(call rpcCall) (any, *RPCError) {
		if call.Method != "suix_getBalance" {
			return nil, &RPCError{Code: -32601, Message: "method not found"}
		}
		var coin string
		json.Unmarshal(call.Params[1], &coin)
		if coin != SuiCoinType {
			return nil, &RPCError{Code: -32602, Message: "bad coin type"}
		}
		return map[string]string{"coinType": coin, "totalBalance": "2500000000"}, nil
	})

	c := newTestClient(t, srv.URL)
	got, err := c.Balance(context.Background(), caller)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2_500_000_000 {
		t.Fatalf("balance %d", got)
	}
}

func TestClientExecute(t *testing.T) {
	tx := []byte(`{"sender":"0x1"}`)
	srv := rpcServer(t, func(call rpcCall) (any, *RPCError) {
		if call.Method != "sui_executeTransactionBlock" {
			return nil, &RPCError{Code: -32601, Message: "method not found"}
		}
		var encoded string
		json.Unmarshal(call.Params[0], &encoded)
		if b, _ := base64.StdEncoding.DecodeString(encoded); string(b) != string(tx) {
			return nil, &RPCError{Code: -32602, Message: "unexpected bytes"}
		}
		return map[string]any{
			"digest": "8fGx3",
			"effects": map[string]any{
				"status": map[string]string{"status": "success"},
			},
			"balanceChanges": []map[string]any{
				{"owner": map[string]string{"AddressOwner": creator}, "coinType": SuiCoinType, "amount": "2000000000"},
				{"owner": "Immutable", "coinType": SuiCoinType, "amount": "1"},
			},
		}, nil
	})

	c := newTestClient(t, srv.URL)
	got, err := c.Execute(context.Background(), tx, []string{"sig"})
	if err != nil {
		t.Fatal(err)
	}
	exp := Receipt{
		Digest: "8fGx3",
		Status: StatusSuccess,
		BalanceChanges: []BalanceChange{
			{Owner: creator, CoinType: SuiCoinType, Amount: 2_000_000_000},
			{Owner: "", CoinType: SuiCoinType, Amount: 1},
		},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatal(diff)
	}

	if _, err := c.Execute(context.Background(), tx, nil); err == nil {
		t.Fatal("unsigned transaction submitted")
	}
}

func TestClientRPCError(t *testing.T) {
	srv := rpcServer(t, func(call rpcCall) (any, *RPCError) {
		return nil, &RPCError{Code: -32000, Message: "Could not find the referenced transaction"}
	})

	c := newTestClient(t, srv.URL)
	_, err := c.Transaction(context.Background(), "missing")
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32000 {
		t.Fatalf("expected rpc error, got %v", err)
	}
}

func TestClientOwnedObjects(t *testing.T) {
	var calls atomic.Int32
	srv := rpcServer(t, func(call rpcCall) (any, *RPCError) {
		calls.Add(1)
		var cursor *string
		json.Unmarshal(call.Params[2], &cursor)
		obj := func(id string) map[string]any {
			return map[string]any{"data": map[string]any{
				"objectId": id,
				"type":     pkg + "::coinspace_nft::CoinspaceModule",
				"content":  map[string]any{"fields": map[string]any{"module_title": "t-" + id}},
			}}
		}
		if cursor == nil {
			next := "page2"
			return map[string]any{"data": []any{obj("0xa")}, "nextCursor": next, "hasNextPage": true}, nil
		}
		return map[string]any{"data": []any{obj("0xb")}, "nextCursor": nil, "hasNextPage": false}, nil
	})

	c := newTestClient(t, srv.URL)
	cfg := Config{PackageID: pkg}
	got, err := c.OwnedObjects(context.Background(), caller, cfg.ModuleType())
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 || len(got) != 2 || got[0].ID != "0xa" || got[1].ID != "0xb" {
		t.Fatalf("unexpected objects after %d calls: %+v", calls.Load(), got)
	}
	if got[1].Fields["module_title"] != "t-0xb" {
		t.Fatalf("fields %v", got[1].Fields)
	}
}
