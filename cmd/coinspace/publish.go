package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/core/publish"
	"github.com/irsalhamdi/coinspace/wallet"
)

var publishCmd = &cli.Command{
	Name:      "publish",
	Usage:     "upload a document and mint it as a learning module",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "title", Required: true},
		&cli.StringFlag{Name: "author", Required: true},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "category"},
		&cli.StringFlag{
			Name:  "price",
			Usage: "price in SUI; omit for a free module",
		},
		&cli.StringFlag{
			Name:  "payout",
			Usage: "address paid for a paid module; defaults to the connected account",
		},
		&cli.IntFlag{
			Name:  "editions",
			Usage: "mint an editioned module with this many editions",
		},
		&cli.BoolFlag{
			Name:  "legacy",
			Usage: "apply the 50MB PDF/EPUB/text upload limits",
		},
	},
	Action: runPublish,
}

func runPublish(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one file argument")
	}
	path := c.Args().First()

	details, err := detailsFromFlags(c)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	st, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := openStorage(c)
	if err != nil {
		return err
	}

	w, disconnect, err := connectWallet(c)
	if err != nil {
		return err
	}
	defer disconnect()

	limits := publish.RichLimits
	if c.Bool("legacy") {
		limits = publish.LegacyLimits
	}
	flow := publish.NewWorkflow(publish.Config{
		Limits:   limits,
		Storage:  client,
		Wallet:   w,
		Registry: publish.NewRegistry(st),
		Log:      logrus.StandardLogger(),
	})

	out := c.App.Writer
	file := publish.File{
		Name:        filepath.Base(path),
		ContentType: publish.DetectType(data),
		Data:        data,
	}
	if err := flow.SelectFile(file); err != nil {
		return err
	}

	fmt.Fprintf(out, "Uploading %s (%s, %d bytes)\n", file.Name, file.ContentType, len(data))
	id, err := uploadWithProgress(c.Context, flow, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stored as %s\n", id)

	if err := flow.SubmitDetails(details); err != nil {
		return err
	}

	fmt.Fprintf(out, "Estimated cost: %s SUI (service fee plus gas)\n", wallet.FormatSui(publish.EstimatedCost()))
	if details.Kind == content.Paid {
		fmt.Fprintf(out, "Price: %s SUI\n", content.FormatPrice(uint64(details.Price)))
	}

	rec, err := flow.Mint(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Minted %q\n", rec.Title)
	fmt.Fprintf(out, "  digest:   %s\n", rec.Digest)
	fmt.Fprintf(out, "  content:  %s\n", client.ResolveURL(rec.StorageID))
	fmt.Fprintf(out, "  metadata: %s\n", client.ResolveURL(rec.MetadataID))
	return nil
}

func detailsFromFlags(c *cli.Context) (publish.Details, error) {
	d := publish.Details{
		Title:         c.String("title"),
		AuthorName:    c.String("author"),
		Description:   c.String("description"),
		Category:      c.String("category"),
		Kind:          content.Free,
		Policy:        content.Unique,
		TotalEditions: 1,
	}
	if p := c.String("price"); p != "" {
		mist, err := content.ToMist(p)
		if err != nil {
			return publish.Details{}, fmt.Errorf("parsing price: %w", err)
		}
		d.Kind = content.Paid
		d.Price = int64(mist)
		d.PayoutAddress = c.String("payout")
	}
	if c.IsSet("editions") {
		d.Policy = content.Editioned
		d.TotalEditions = c.Int("editions")
	}
	return d, nil
}

// uploadWithProgress runs the upload while printing the progress the
// workflow reports.
func uploadWithProgress(ctx context.Context, flow *publish.Workflow, out io.Writer) (string, error) {
	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := flow.UploadSelectedFile(ctx)
		done <- result{id, err}
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case res := <-done:
			if res.err == nil {
				fmt.Fprintln(out, "  100%")
			}
			return res.id, res.err
		case <-ticker.C:
			pct := int(flow.Snapshot().Progress * 100)
			if pct != last {
				fmt.Fprintf(out, "  %d%%\n", pct)
				last = pct
			}
		}
	}
}
