package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/core/catalog"
	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/core/publish"
	"github.com/irsalhamdi/coinspace/store"
	"github.com/irsalhamdi/coinspace/wallet"
)

var modulesCmd = &cli.Command{
	Name:  "modules",
	Usage: "browse the module catalog",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
		&cli.StringFlag{Name: "category", Value: catalog.All},
		&cli.StringFlag{
			Name:  "type",
			Usage: "values: 'All', 'Free', 'Paid'",
			Value: catalog.All,
		},
	},
	Action: func(c *cli.Context) error {
		kind := c.String("type")
		if kind != catalog.All && !content.Kind(kind).Valid() {
			return fmt.Errorf("unknown module type %q", kind)
		}

		st, closeStore, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeStore()

		all := catalogRecords(c.Context, st, localAddress(c))
		found := catalog.Filter(all, catalog.Query{
			Text:     c.String("search"),
			Category: c.String("category"),
			Kind:     kind,
		})
		printRecords(c.App.Writer, found)
		fmt.Fprintf(c.App.Writer, "\n%d of %d modules\n", len(found), len(all))
		return nil
	},
}

var categoriesCmd = &cli.Command{
	Name:  "categories",
	Usage: "list the catalog categories",
	Action: func(c *cli.Context) error {
		st, closeStore, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeStore()

		for _, cat := range catalog.Categories(catalogRecords(c.Context, st, localAddress(c))) {
			fmt.Fprintln(c.App.Writer, cat)
		}
		return nil
	},
}

var libraryCmd = &cli.Command{
	Name:  "library",
	Usage: "list the modules minted by the local account",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "chain",
			Usage: "also list the module objects the account owns on chain",
		},
	},
	Action: func(c *cli.Context) error {
		addr := localAddress(c)
		if addr == "" {
			return wallet.ErrNotConnected
		}

		st, closeStore, err := openStore(c)
		if err != nil {
			return err
		}
		defer closeStore()

		recs := publish.NewRegistry(st).Library(c.Context, addr)
		printRecords(c.App.Writer, recs)

		if !c.Bool("chain") {
			return nil
		}
		node, closeNode, err := openNode(c)
		if err != nil {
			return err
		}
		defer closeNode()

		objs, err := node.OwnedObjects(c.Context, addr, chainConfig(c).ModuleType())
		if err != nil {
			return fmt.Errorf("listing owned modules: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "\n%d module objects on chain\n", len(objs))
		for _, o := range objs {
			fmt.Fprintf(c.App.Writer, "  %s %v\n", o.ID, o.Fields["module_title"])
		}
		return nil
	},
}

// localAddress is the address in the key file, or empty when there is none.
func localAddress(c *cli.Context) string {
	b, err := os.ReadFile(keyPath(c))
	if err != nil {
		return ""
	}
	var kf wallet.KeyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return ""
	}
	return kf.Address
}

// catalogRecords is the seeded catalog followed by what owner minted locally.
func catalogRecords(ctx context.Context, st store.Store, owner string) []content.Record {
	recs := catalog.Seed()
	if owner != "" {
		recs = append(recs, publish.NewRegistry(st).Library(ctx, owner)...)
	}
	return recs
}

func findRecord(recs []content.Record, storageID string) (content.Record, bool) {
	for _, r := range recs {
		if r.StorageID == storageID {
			return r, true
		}
	}
	return content.Record{}, false
}

func printRecords(out io.Writer, recs []content.Record) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tAUTHOR\tCATEGORY\tPRICE\tSTORAGE ID")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Title, r.AuthorName, r.Category, r.DisplayPrice(), r.StorageID)
	}
	tw.Flush()
}
