package eqr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// ViewerURL is the FERC EQR Report Viewer entry page.
const ViewerURL = "https://eqrreportviewer.ferc.gov/"

// Options configures the browser session.
type Options struct {
	DownloadDir     string
	Headless        bool
	Debug           bool // save stage screenshots under DownloadDir/debug
	StepTimeout     time.Duration
	DownloadTimeout time.Duration
}

// Result summarizes one download run.
type Result struct {
	Sellers   []string
	Succeeded []string
	Failed    []string
	Files     []string
}

// Downloader drives the EQR Report Viewer form in Chrome and captures the
// CSV exports it produces.
type Downloader struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	debugSeq    int
}

// New starts a Chrome instance configured to drop downloads into the
// requested directory, creating the directory if needed.
func New(opts Options) (*Downloader, error) {
	if opts.DownloadDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.DownloadDir = wd
	}
	abs, err := filepath.Abs(opts.DownloadDir)
	if err != nil {
		return nil, err
	}
	opts.DownloadDir = abs
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 30 * time.Second
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 45 * time.Second
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-extensions", true),
	)
	if !opts.Headless {
		// DefaultExecAllocatorOptions enables headless; later flags win.
		execOpts = append(execOpts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	err = chromedp.Run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(opts.DownloadDir).
			WithEventsEnabled(true),
	)
	if err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	log.Info("files will be saved to", "dir", opts.DownloadDir)
	return &Downloader{
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

// Close shuts the browser down.
func (d *Downloader) Close() {
	d.cancel()
	d.allocCancel()
}

// Run walks the Filing Inquiries form for the query and downloads the CSV
// export for each requested seller. It fails fast on an invalid query, before
// the first navigation.
func (d *Downloader) Run(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	log.Info("opening EQR report viewer", "url", ViewerURL)
	err := d.run(ctx,
		chromedp.Navigate(ViewerURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("loading report viewer: %w", err)
	}
	d.snapshot("initial_page")

	if err := d.click(ctx, reportsTabID); err != nil {
		return nil, fmt.Errorf("opening Reports tab: %w", err)
	}
	if err := d.click(ctx, filingTabID); err != nil {
		return nil, fmt.Errorf("opening Filing Inquiries tab: %w", err)
	}
	d.snapshot("after_tab_click")

	// Report Type kicks off the partial postback that builds out the rest
	// of the form, so everything below waits for controls to come back.
	if err := d.selectOption(ctx, reportTypeID, "Transactions"); err != nil {
		return nil, fmt.Errorf("setting report type: %w", err)
	}
	if err := d.selectOption(ctx, groupingID, "BA and HUB"); err != nil {
		return nil, fmt.Errorf("setting grouping: %w", err)
	}

	period := ReportPeriod(q.Start, q.End)
	log.Info("using report period", "period", period)
	if err := d.selectOptionOrFirst(ctx, reportPeriodID, period); err != nil {
		return nil, fmt.Errorf("setting report period: %w", err)
	}
	if err := d.selectOptionOrFirst(ctx, authorityID, q.Authority); err != nil {
		return nil, fmt.Errorf("setting balancing authority: %w", err)
	}

	err = d.run(ctx,
		chromedp.WaitVisible("#"+startDateFieldID, chromedp.ByQuery),
		chromedp.SetValue("#"+startDateFieldID, q.Start.Format(DateLayout), chromedp.ByQuery),
		chromedp.SetValue("#"+endDateFieldID, q.End.Format(DateLayout), chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("setting date range: %w", err)
	}

	sellers, err := d.resolveSellers(ctx, q.Seller)
	if err != nil {
		return nil, err
	}

	if err := d.selectOption(ctx, exportFormatID, "CSV"); err != nil {
		return nil, fmt.Errorf("setting export format: %w", err)
	}
	d.snapshot("before_submit")

	res := &Result{Sellers: sellers}
	for i, seller := range sellers {
		log.Info("processing seller", "seller", seller, "n", i+1, "total", len(sellers))
		files, err := d.downloadSeller(ctx, seller)
		if err != nil {
			log.Error("download failed", "seller", seller, "err", err)
			res.Failed = append(res.Failed, seller)
			d.snapshot(fmt.Sprintf("after_submit_%d", i))
			continue
		}
		log.Info("downloaded", "seller", seller, "files", files)
		res.Succeeded = append(res.Succeeded, seller)
		res.Files = append(res.Files, files...)

		// Brief pause between sellers so the form settles.
		if i < len(sellers)-1 {
			if err := d.run(ctx, chromedp.Sleep(3*time.Second)); err != nil {
				return res, err
			}
		}
	}

	log.Info("download process completed",
		"succeeded", len(res.Succeeded), "total", len(sellers))
	if len(res.Succeeded) == 0 {
		return res, errors.New("no seller produced a download")
	}
	return res, nil
}

// downloadSeller selects one seller, submits the form, and waits for the
// export to land in the download directory.
func (d *Downloader) downloadSeller(ctx context.Context, seller string) ([]string, error) {
	if err := d.selectOption(ctx, sellerDropdownID, seller); err != nil {
		return nil, fmt.Errorf("selecting seller: %w", err)
	}

	var disabled bool
	if err := d.run(ctx, chromedp.Evaluate(submitDisabledJS(submitButtonID), &disabled)); err != nil {
		return nil, fmt.Errorf("checking submit button: %w", err)
	}
	if disabled {
		return nil, errors.New("submit button is disabled")
	}

	// Snapshot the directory before the click so a fast download is not
	// mistaken for a pre-existing file.
	watch, err := WatchDir(d.opts.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("watching download directory: %w", err)
	}

	if err := d.run(ctx, chromedp.Click("#"+submitButtonID, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("clicking submit: %w", err)
	}

	sp := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	sp.Suffix = fmt.Sprintf(" waiting for download: %s", seller)
	sp.Start()
	defer sp.Stop()

	return watch.Wait(ctx, d.opts.DownloadTimeout)
}

// resolveSellers expands SellerAll into every entry the seller dropdown
// offers; a named seller passes through untouched.
func (d *Downloader) resolveSellers(ctx context.Context, seller string) ([]string, error) {
	if seller != "" && seller != SellerAll {
		log.Info("processing single seller", "seller", seller)
		return []string{seller}, nil
	}
	texts, err := d.optionTexts(ctx, sellerDropdownID)
	if err != nil {
		return nil, fmt.Errorf("listing sellers: %w", err)
	}
	if len(texts) == 0 {
		return nil, errors.New("seller dropdown has no entries")
	}
	log.Info("processing all sellers", "count", len(texts))
	return texts, nil
}

// selectOption waits for the dropdown to become active, picks the option by
// visible text, and rides out the postback the change triggers.
func (d *Downloader) selectOption(ctx context.Context, id, text string) error {
	if err := d.waitActive(ctx, id); err != nil {
		return err
	}
	var failure string
	if err := d.run(ctx, chromedp.Evaluate(selectOptionJS(id, text), &failure)); err != nil {
		return err
	}
	if failure != "" {
		return fmt.Errorf("selecting %q in %s: %s", text, id, failure)
	}
	d.awaitPostback(ctx)
	return nil
}

// selectOptionOrFirst falls back to the first real option when the wanted
// one is not offered, logging the substitution. Placeholder entries (blank
// or dash-prefixed) are skipped.
func (d *Downloader) selectOptionOrFirst(ctx context.Context, id, text string) error {
	options, err := d.optionTexts(ctx, id)
	if err != nil {
		return err
	}
	for _, o := range options {
		if o == text {
			return d.selectOption(ctx, id, text)
		}
	}
	for _, o := range options {
		if strings.HasPrefix(o, "-") {
			continue
		}
		log.Warn("option not offered, falling back", "want", text, "using", o)
		return d.selectOption(ctx, id, o)
	}
	return fmt.Errorf("%s has no selectable options", id)
}

func (d *Downloader) optionTexts(ctx context.Context, id string) ([]string, error) {
	if err := d.waitActive(ctx, id); err != nil {
		return nil, err
	}
	var texts []string
	if err := d.run(ctx, chromedp.Evaluate(optionTextsJS(id), &texts)); err != nil {
		return nil, err
	}
	return texts, nil
}

// waitActive polls until the control is visible, enabled, and no longer
// carrying the aspNetDisabled class a partial postback leaves behind.
func (d *Downloader) waitActive(ctx context.Context, id string) error {
	var active bool
	err := d.run(ctx, chromedp.Poll(elementActiveJS(id), &active,
		chromedp.WithPollingInterval(500*time.Millisecond)))
	if err != nil {
		return fmt.Errorf("%s did not become active: %w", id, err)
	}
	return nil
}

// awaitPostback waits for the ASP.NET round trip a dropdown change starts.
// Detection is best effort: pages without a PageRequestManager flag
// completion immediately, and a timeout here is not fatal.
func (d *Downloader) awaitPostback(ctx context.Context) {
	var done bool
	err := d.run(ctx, chromedp.Poll(postbackDoneExpr, &done,
		chromedp.WithPollingInterval(500*time.Millisecond),
		chromedp.WithPollingTimeout(10*time.Second)))
	if err != nil {
		log.Debug("postback wait ended early", "err", err)
	}
}

// click waits for an element and clicks it, giving the page a moment to
// react the way the tab containers need.
func (d *Downloader) click(ctx context.Context, id string) error {
	return d.run(ctx,
		chromedp.WaitVisible("#"+id, chromedp.ByQuery),
		chromedp.Click("#"+id, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
}

// run executes browser actions against the session with the step timeout,
// honoring cancellation of the caller's context as well.
func (d *Downloader) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, d.opts.StepTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// snapshot saves a full-page screenshot under DownloadDir/debug. The debug
// subdirectory keeps the artifacts away from the watched download area.
func (d *Downloader) snapshot(stage string) {
	if !d.opts.Debug {
		return
	}
	var buf []byte
	if err := chromedp.Run(d.ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		log.Debug("screenshot failed", "stage", stage, "err", err)
		return
	}
	dir := filepath.Join(d.opts.DownloadDir, "debug")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debug("could not create debug directory", "err", err)
		return
	}
	d.debugSeq++
	name := filepath.Join(dir, fmt.Sprintf("%02d_%s.png", d.debugSeq, stage))
	if err := os.WriteFile(name, buf, 0644); err != nil {
		log.Debug("could not write screenshot", "file", name, "err", err)
	}
}
