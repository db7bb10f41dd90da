package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRenderer converts a rendered HTML document into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// ChromeRenderer drives a headless Chrome instance over the DevTools
// protocol. Each call spins up a fresh browser context so a crashed
// render cannot poison later ones.
type ChromeRenderer struct {
	allocatorOpts []chromedp.ExecAllocatorOption
}

func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{
		allocatorOpts: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		),
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	dataURL := "data:text/html;charset=utf-8," + percentEncode(html)

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// A4 in inches. Margins come from the document's @page rule.
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return pdf, nil
}

// percentEncode escapes the characters that break a data URL while
// leaving the bulk of the markup readable in devtools.
func percentEncode(s string) string {
	replacer := strings.NewReplacer(
		"%", "%25",
		"#", "%23",
		"\n", "%0A",
		"\r", "%0D",
	)
	return replacer.Replace(s)
}
