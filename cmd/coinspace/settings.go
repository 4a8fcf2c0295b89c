package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/core/newsletter"
	"github.com/irsalhamdi/coinspace/core/profile"
)

var languageCmd = &cli.Command{
	Name:  "language",
	Usage: "show or change the interface language",
	Subcommands: []*cli.Command{
		{
			Name: "get",
			Action: func(c *cli.Context) error {
				st, closeStore, err := openStore(c)
				if err != nil {
					return err
				}
				defer closeStore()

				fmt.Fprintln(c.App.Writer, profile.New(st).Language(c.Context))
				return nil
			},
		},
		{
			Name:      "set",
			ArgsUsage: "<code>",
			Action: func(c *cli.Context) error {
				st, closeStore, err := openStore(c)
				if err != nil {
					return err
				}
				defer closeStore()

				return profile.New(st).SetLanguage(c.Context, profile.Language(c.Args().First()))
			},
		},
		{
			Name: "list",
			Action: func(c *cli.Context) error {
				for _, l := range profile.Languages {
					fmt.Fprintf(c.App.Writer, "%s\t%s\n", l.Code, l.Name)
				}
				return nil
			},
		},
	},
}

var subscribeCmd = &cli.Command{
	Name:      "subscribe",
	Usage:     "subscribe an email address to the newsletter",
	ArgsUsage: "<email>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name"},
	},
	Action: func(c *cli.Context) error {
		st, closeStore, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeStore()

		client := newsletter.NewClient(c.String("newsletter-url"), nil, st)
		sub, err := client.Subscribe(c.Context, c.Args().First(), c.String("name"))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s %s\n", newsletter.MsgSubscribed, sub.Email)
		return nil
	},
}
