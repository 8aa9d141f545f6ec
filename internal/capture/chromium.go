package capture

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for the month view.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 960
	DefaultTimeoutSec = 30

	// readySelector matches the month grid once the UI has rendered it.
	readySelector = `[data-ready="true"]`
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// BaseURL of a running `kalender serve`, e.g. "http://127.0.0.1:8080".
	BaseURL string

	// Month to show, "YYYY-MM". Empty means the current month.
	Month string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero,
	// DefaultTimeoutSec is used.
	Timeout time.Duration
}

// MonthURL builds the address of the month view page.
func (o Options) MonthURL() (string, error) {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("capture: base url must be http or https")
	}
	u.Path = "/"
	q := url.Values{}
	q.Set("view", "month")
	if o.Month != "" {
		if _, err := time.Parse("2006-01", o.Month); err != nil {
			return "", fmt.Errorf("capture: month must be YYYY-MM: %w", err)
		}
		q.Set("month", o.Month)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
}

// CaptureMonthPNG launches a headless Chromium instance via chromedp,
// opens the month view, waits for the grid to signal data-ready="true" and
// writes a PNG screenshot to opts.OutputPath.
func CaptureMonthPNG(parentCtx context.Context, opts Options) error {
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	target, err := opts.MonthURL()
	if err != nil {
		return err
	}
	opts.applyDefaults()

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	// Apply timeout to the entire capture sequence.
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(target),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
