package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/hsiuhsiu/hegossip-go/internal/store"
)

func historyCommand(args []string, stdout io.Writer) error {
	cfg, fs, err := loadConfig("history", args, func(fs *pflag.FlagSet) {
		fs.String("id", "", "print the report with this id instead of the list")
	})
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return errors.New("no report store configured")
	}

	reports, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer reports.Close()

	if id, _ := fs.GetString("id"); id != "" {
		r, err := reports.Get(id)
		if err != nil {
			return err
		}
		out, err := r.Encode()
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}

	list, err := reports.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tGRID\tESTIMATES\tRMSE UNFILTERED\tRMSE PLAIN\tRMSE SECURE")
	for _, r := range list {
		secure := "-"
		if r.RMSE.Encrypted != nil {
			secure = fmt.Sprintf("%.4f", *r.RMSE.Encrypted)
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%.4f\t%.4f\t%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Config.GridWidth, r.Config.GridHeight,
			r.Estimates, r.RMSE.Unfiltered, r.RMSE.Plain, secure)
	}
	return tw.Flush()
}
