package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/core/cart"
	"github.com/irsalhamdi/coinspace/store"
)

// withCart opens the local store for the duration of fn.
func withCart(fn func(c *cli.Context, st store.Store, crt *cart.Cart) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		st, closeStore, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeStore()
		return fn(c, st, cart.New(st))
	}
}

var cartCmd = &cli.Command{
	Name:  "cart",
	Usage: "manage the shopping cart",
	Subcommands: []*cli.Command{
		{
			Name: "list",
			Action: withCart(func(c *cli.Context, st store.Store, crt *cart.Cart) error {
				items := crt.Items(c.Context)
				printRecords(c.App.Writer, items)
				fmt.Fprintf(c.App.Writer, "\nTotal: %s SUI\n", crt.Total(c.Context).StringFixed(2))
				return nil
			}),
		},
		{
			Name:      "add",
			ArgsUsage: "<storage id>",
			Action: withCart(func(c *cli.Context, st store.Store, crt *cart.Cart) error {
				id := c.Args().First()
				rec, ok := findRecord(catalogRecords(c.Context, st, localAddress(c)), id)
				if !ok {
					return fmt.Errorf("no module with storage id %q", id)
				}
				if err := crt.Add(c.Context, rec); err != nil {
					if errors.Is(err, cart.ErrAlreadyInCart) {
						fmt.Fprintf(c.App.Writer, "Warning: %q is already in the cart\n", rec.Title)
						return nil
					}
					return err
				}
				fmt.Fprintf(c.App.Writer, "Added %q\n", rec.Title)
				return nil
			}),
		},
		{
			Name:      "remove",
			ArgsUsage: "<storage id>",
			Action: withCart(func(c *cli.Context, st store.Store, crt *cart.Cart) error {
				return crt.Remove(c.Context, c.Args().First())
			}),
		},
		{
			Name: "clear",
			Action: withCart(func(c *cli.Context, st store.Store, crt *cart.Cart) error {
				return crt.Clear(c.Context)
			}),
		},
		{
			Name: "total",
			Action: withCart(func(c *cli.Context, st store.Store, crt *cart.Cart) error {
				fmt.Fprintf(c.App.Writer, "%s SUI\n", crt.Total(c.Context).StringFixed(2))
				return nil
			}),
		},
	},
}
