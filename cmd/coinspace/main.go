package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/chain"
	"github.com/irsalhamdi/coinspace/core/newsletter"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func defaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".coinspace"
	}
	return filepath.Join(dir, ".coinspace")
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "coinspace",
		Usage: "publish and collect learning modules on Sui",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "home",
				Usage:   "directory holding the key file and local state",
				EnvVars: []string{"COINSPACE_HOME"},
				Value:   defaultHome(),
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"COINSPACE_LOG_LEVEL"},
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "local state backend; values: 'file', 'redis'",
				EnvVars: []string{"COINSPACE_STORE"},
				Value:   "file",
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				EnvVars: []string{"COINSPACE_REDIS_ADDR"},
				Value:   "localhost:6379",
			},
			&cli.StringFlag{
				Name:    "storage",
				Usage:   "content storage backend; values: 'arweave', 'ipfs', 'bucket', 'memory'",
				EnvVars: []string{"COINSPACE_STORAGE"},
				Value:   "arweave",
			},
			&cli.StringFlag{
				Name:    "arweave-upload-url",
				EnvVars: []string{"COINSPACE_ARWEAVE_UPLOAD_URL"},
				Value:   "https://upload.ardrive.io/v1/tx",
			},
			&cli.StringFlag{
				Name:    "arweave-gateway",
				EnvVars: []string{"COINSPACE_ARWEAVE_GATEWAY"},
				Value:   "https://arweave.net/",
			},
			&cli.StringFlag{
				Name:    "ipfs-api",
				EnvVars: []string{"COINSPACE_IPFS_API"},
				Value:   "http://127.0.0.1:5001",
			},
			&cli.StringFlag{
				Name:    "bucket-endpoint",
				EnvVars: []string{"COINSPACE_BUCKET_ENDPOINT"},
				Value:   "localhost:9000",
			},
			&cli.StringFlag{
				Name:    "bucket-name",
				EnvVars: []string{"COINSPACE_BUCKET_NAME"},
				Value:   "coinspace",
			},
			&cli.StringFlag{
				Name:    "bucket-access-key",
				EnvVars: []string{"COINSPACE_BUCKET_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:    "bucket-secret-key",
				EnvVars: []string{"COINSPACE_BUCKET_SECRET_KEY"},
			},
			&cli.BoolFlag{
				Name:    "bucket-ssl",
				EnvVars: []string{"COINSPACE_BUCKET_SSL"},
			},
			&cli.Float64Flag{
				Name:    "storage-rps",
				Usage:   "outbound requests per second to the storage gateway; 0 disables throttling",
				EnvVars: []string{"COINSPACE_STORAGE_RPS"},
				Value:   5,
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Sui fullnode JSON-RPC endpoint",
				EnvVars: []string{"COINSPACE_RPC_URL"},
				Value:   chain.TestnetURL,
			},
			&cli.StringFlag{
				Name:    "package-id",
				Usage:   "id of the published coinspace_nft package",
				EnvVars: []string{"COINSPACE_PACKAGE_ID"},
			},
			&cli.StringFlag{
				Name:    "newsletter-url",
				EnvVars: []string{"COINSPACE_NEWSLETTER_URL"},
				Value:   newsletter.DefaultURL,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "approve wallet requests without prompting",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				return fmt.Errorf("parsing log level: %w", err)
			}
			logrus.SetLevel(level)
			logrus.SetOutput(c.App.ErrWriter)
			return nil
		},
		Commands: []*cli.Command{
			walletCmd,
			publishCmd,
			modulesCmd,
			categoriesCmd,
			libraryCmd,
			cartCmd,
			languageCmd,
			subscribeCmd,
		},
	}
}
