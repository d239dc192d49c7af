package stealth

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromedpAction registers the masking script for every new document of the
// current chromedp target.
func ChromedpAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := page.AddScriptToEvaluateOnNewDocument(Source()).Do(ctx); err != nil {
			return fmt.Errorf("register masking script: %w", err)
		}
		return nil
	})
}

// ChromedpProbe fills dst with the masked properties of the current document.
func ChromedpProbe(dst *Report) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var raw string
		if err := chromedp.Evaluate("("+ProbeFunc()+")()", &raw).Do(ctx); err != nil {
			return fmt.Errorf("probe page: %w", err)
		}
		r, err := ParseReport(raw)
		if err != nil {
			return err
		}
		*dst = *r
		return nil
	})
}
