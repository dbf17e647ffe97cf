package sankey

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderPNG loads a rendered chart page in headless Chrome and captures a
// full-page screenshot. ECharts draws to a canvas, so rasterization happens
// in the browser rather than in this process.
func RenderPNG(ctx context.Context, htmlPath, outPath string, timeout time.Duration) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	var buf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitVisible("canvas", chromedp.ByQuery),
		// Let the entry animation settle before capturing.
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", filepath.Base(htmlPath), err)
	}
	if len(buf) == 0 {
		return fmt.Errorf("empty screenshot for %s", htmlPath)
	}
	return os.WriteFile(outPath, buf, 0644)
}
