package eqr

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chromeAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// The form helpers are plain JavaScript, so they can be exercised against a
// synthetic page without touching the real report viewer.
func TestSelectOptionJS(t *testing.T) {
	if !chromeAvailable() {
		t.Skip("chrome not installed")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer timeoutCancel()

	const setup = `(() => {
		document.body.innerHTML =
			'<select id="ddl">' +
			'<option value="">Select One</option>' +
			'<option value="a">Alpha</option>' +
			'<option value="b">Beta</option>' +
			'</select>';
		window.__changes = 0;
		document.getElementById("ddl").addEventListener("change", () => { window.__changes++; });
		return true;
	})()`

	var ok bool
	require.NoError(t, chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(setup, &ok),
	))

	var failure string
	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(selectOptionJS("ddl", "Beta"), &failure)))
	assert.Empty(t, failure)

	var value string
	var changes int
	require.NoError(t, chromedp.Run(ctx,
		chromedp.Evaluate(`document.getElementById("ddl").value`, &value),
		chromedp.Evaluate(`window.__changes`, &changes),
	))
	assert.Equal(t, "b", value)
	assert.Equal(t, 1, changes, "change event should fire exactly once")

	// Without a PageRequestManager the done flag flips immediately.
	var done bool
	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(postbackDoneExpr, &done)))
	assert.True(t, done)

	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(selectOptionJS("ddl", "Gamma"), &failure)))
	assert.Equal(t, "option not found", failure)

	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(selectOptionJS("missing", "Beta"), &failure)))
	assert.Equal(t, "element not found", failure)

	var texts []string
	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(optionTextsJS("ddl"), &texts)))
	assert.Equal(t, []string{"Select One", "Alpha", "Beta"}, texts)

	var active bool
	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(elementActiveJS("ddl"), &active)))
	assert.True(t, active)
	require.NoError(t, chromedp.Run(ctx, chromedp.Evaluate(elementActiveJS("missing"), &active)))
	assert.False(t, active)
}
