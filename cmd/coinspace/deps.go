package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/chain"
	"github.com/irsalhamdi/coinspace/storage"
	"github.com/irsalhamdi/coinspace/store"
	"github.com/irsalhamdi/coinspace/wallet"
)

const keyFileName = "key.json"

func keyPath(c *cli.Context) string {
	return filepath.Join(c.String("home"), keyFileName)
}

// openStore returns the local state backend and a function releasing it.
func openStore(c *cli.Context) (store.Store, func(), error) {
	switch c.String("store") {
	case "file":
		s, err := store.NewFile(filepath.Join(c.String("home"), "state.json"), store.DefaultQuota, logrus.StandardLogger())
		if err != nil {
			return nil, nil, fmt.Errorf("opening state file: %w", err)
		}
		return s, func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.String("redis-addr")})
		if err := rdb.Ping(c.Context).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connecting to redis[%s]: %w", c.String("redis-addr"), err)
		}
		return store.NewRedis(rdb, "coinspace:"), func() { rdb.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", c.String("store"))
	}
}

func openStorage(c *cli.Context) (storage.Client, error) {
	var (
		client storage.Client
		err    error
	)
	switch c.String("storage") {
	case "memory":
		client = storage.NewMemory()
	case "arweave":
		client, err = storage.NewArweave(storage.ArweaveConfig{
			UploadURL:         c.String("arweave-upload-url"),
			Gateway:           c.String("arweave-gateway"),
			RequestsPerSecond: c.Float64("storage-rps"),
			Burst:             1,
		})
	case "ipfs":
		client, err = storage.NewIPFS(storage.IPFSConfig{
			APIURL:            c.String("ipfs-api"),
			RequestsPerSecond: c.Float64("storage-rps"),
			Burst:             1,
		})
	case "bucket":
		client, err = storage.NewBucket(c.Context, storage.BucketConfig{
			Endpoint:  c.String("bucket-endpoint"),
			AccessKey: c.String("bucket-access-key"),
			SecretKey: c.String("bucket-secret-key"),
			Bucket:    c.String("bucket-name"),
			UseSSL:    c.Bool("bucket-ssl"),
		})
	default:
		return nil, fmt.Errorf("unknown storage %q", c.String("storage"))
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", c.String("storage"), err)
	}
	cached, err := storage.NewCached(client, storage.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func chainConfig(c *cli.Context) chain.Config {
	return chain.Config{PackageID: c.String("package-id")}
}

func openNode(c *cli.Context) (*chain.Client, func(), error) {
	node, closer, err := chain.NewClient(c.Context, c.String("rpc-url"), nil)
	if err != nil {
		return nil, nil, err
	}
	return node, closer, nil
}

// connectWallet opens the local key as a wallet and connects it. The returned
// function disconnects it again.
func connectWallet(c *cli.Context) (*wallet.Manager, func(), error) {
	if c.String("package-id") == "" {
		logrus.Warn("no package id configured, transactions will target an empty package")
	}

	approve := prompter(c.App.Reader, c.App.Writer)
	if c.Bool("yes") {
		approve = func(context.Context, wallet.Approval) (bool, error) { return true, nil }
	}

	node, closeNode, err := openNode(c)
	if err != nil {
		return nil, nil, err
	}

	local := wallet.NewLocal(wallet.LocalConfig{
		KeyPath: keyPath(c),
		Node:    node,
		Chain:   chainConfig(c),
		Approve: approve,
	})

	m := wallet.NewManager(local, logrus.StandardLogger())
	if _, err := m.Connect(c.Context); err != nil {
		closeNode()
		return nil, nil, fmt.Errorf("connecting wallet: %w", err)
	}
	return m, func() {
		m.Disconnect(context.Background())
		closeNode()
	}, nil
}

// prompter asks on out and reads a yes or no answer from in.
func prompter(in io.Reader, out io.Writer) wallet.Approver {
	rd := bufio.NewReader(in)
	return func(ctx context.Context, req wallet.Approval) (bool, error) {
		if req.Intent == nil {
			fmt.Fprintf(out, "Connect account %s? [y/N] ", req.Address)
		} else {
			d := req.Intent.Details()
			fmt.Fprintf(out, "Sign %s for %q from %s", req.Intent.Function(), d.Title, req.Address)
			if pay := req.Transaction.Payment(); pay > 0 {
				fmt.Fprintf(out, ", paying %s SUI", wallet.FormatSui(pay))
			}
			fmt.Fprint(out, "? [y/N] ")
		}

		line, err := rd.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
