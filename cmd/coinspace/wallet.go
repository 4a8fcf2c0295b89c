package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/wallet"
)

var walletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "manage the local account",
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "generate a key file in the home directory",
			Action: func(c *cli.Context) error {
				kf, err := wallet.GenerateKey(keyPath(c))
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Created account %s\n", kf.Address)
				return nil
			},
		},
		{
			Name:  "connect",
			Usage: "connect the local account and show the session",
			Action: func(c *cli.Context) error {
				m, disconnect, err := connectWallet(c)
				if err != nil {
					return err
				}
				defer disconnect()

				s := m.Session()
				fmt.Fprintf(c.App.Writer, "%s %s\n", m.State(), s.Address)
				fmt.Fprintf(c.App.Writer, "Balance: %s SUI\n", s.Balance)
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "show the account address and balance without connecting",
			Action: func(c *cli.Context) error {
				b, err := os.ReadFile(keyPath(c))
				if err != nil {
					return fmt.Errorf("reading key file: %w", err)
				}
				var kf wallet.KeyFile
				if err := json.Unmarshal(b, &kf); err != nil {
					return fmt.Errorf("decoding key file: %w", err)
				}

				fmt.Fprintf(c.App.Writer, "Address: %s\n", kf.Address)
				fmt.Fprintf(c.App.Writer, "Created: %s\n", kf.CreatedAt.Format("2006-01-02"))

				node, closeNode, err := openNode(c)
				if err != nil {
					return err
				}
				defer closeNode()

				bal, err := node.Balance(c.Context, kf.Address)
				if err != nil {
					fmt.Fprintf(c.App.Writer, "Balance: unavailable (%v)\n", err)
					return nil
				}
				fmt.Fprintf(c.App.Writer, "Balance: %s SUI\n", wallet.FormatSui(bal))
				return nil
			},
		},
	},
}
