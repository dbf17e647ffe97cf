package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"eqrtools/internal/eqr"
	"eqrtools/internal/prompt"
)

var cli struct {
	Start     string        `help:"Start date (MM/DD/YYYY)." env:"EQRDL_START"`
	End       string        `help:"End date (MM/DD/YYYY)." env:"EQRDL_END"`
	Seller    string        `help:"Seller name, or 'all' for every seller." env:"EQRDL_SELLER"`
	Authority string        `help:"Balancing authority." env:"EQRDL_AUTHORITY"`
	Dir       string        `help:"Download directory (default: current directory)." env:"EQRDL_DIR"`
	Headless  bool          `help:"Run Chrome headless." env:"EQRDL_HEADLESS"`
	Timeout   time.Duration `help:"Per-seller download timeout." default:"45s" env:"EQRDL_TIMEOUT"`
	Debug     bool          `help:"Save stage screenshots under <dir>/debug." env:"EQRDL_DEBUG"`
	Default   bool          `help:"No prompts; current quarter, all sellers, CISO."`
}

func main() {
	_ = godotenv.Load()
	kong.Parse(&cli,
		kong.Name("eqrdl"),
		kong.Description("Downloads FERC EQR transaction data as CSV from the EQR Report Viewer."),
	)

	query, err := resolveQuery()
	if err != nil {
		log.Fatal("invalid parameters", "err", err)
	}

	log.Info("starting download",
		"start", query.Start.Format(eqr.DateLayout),
		"end", query.End.Format(eqr.DateLayout),
		"seller", query.Seller,
		"authority", query.Authority,
		"headless", cli.Headless,
	)

	dl, err := eqr.New(eqr.Options{
		DownloadDir:     cli.Dir,
		Headless:        cli.Headless,
		Debug:           cli.Debug,
		DownloadTimeout: cli.Timeout,
	})
	if err != nil {
		log.Fatal("could not start browser, ensure Chrome is installed and up to date", "err", err)
	}

	res, err := dl.Run(context.Background(), query)
	dl.Close()
	if err != nil {
		log.Error("download failed", "err", err)
		os.Exit(1)
	}

	log.Info("data download completed",
		"sellers", len(res.Sellers),
		"succeeded", len(res.Succeeded),
		"failed", len(res.Failed),
	)
	for _, f := range res.Files {
		fmt.Println(f)
	}
}

// resolveQuery merges flags, environment, and the interactive prompt
// sequence into a validated query. Dates are checked here, before any
// browser or network activity.
func resolveQuery() (eqr.Query, error) {
	var q eqr.Query
	var err error

	interactive := !cli.Default && (cli.Start == "" || cli.End == "")
	if interactive {
		p := prompt.New(os.Stdin, os.Stdout)
		if q.Start, err = p.Date("Enter start date (MM/DD/YYYY): ", eqr.DateLayout); err != nil {
			return q, err
		}
		if q.End, err = p.Date("Enter end date (MM/DD/YYYY): ", eqr.DateLayout); err != nil {
			return q, err
		}
		q.Seller = p.String("Enter seller name (or press Enter for all sellers): ", eqr.SellerAll)
		q.Authority = p.String("Enter balancing authority (default CISO): ", "CISO")
		cli.Dir = p.String("Enter download directory (or press Enter for current directory): ", cli.Dir)
		cli.Headless = p.Bool("Run in headless mode? (y/n, default n): ", cli.Headless)
	} else {
		now := time.Now()
		if cli.Start == "" {
			q.Start = eqr.QuarterStart(now)
		} else if q.Start, err = time.Parse(eqr.DateLayout, cli.Start); err != nil {
			return q, fmt.Errorf("invalid --start: %w", err)
		}
		if cli.End == "" {
			q.End = now
		} else if q.End, err = time.Parse(eqr.DateLayout, cli.End); err != nil {
			return q, fmt.Errorf("invalid --end: %w", err)
		}
		q.Seller = cli.Seller
		q.Authority = cli.Authority
	}

	if q.Seller == "" {
		q.Seller = eqr.SellerAll
	}
	if q.Authority == "" {
		q.Authority = "CISO"
	}
	return q, q.Validate()
}
