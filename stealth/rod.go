package stealth

import (
	"fmt"

	"github.com/go-rod/rod"
)

// Apply registers the masking script for every new document of page (frames
// included) and also runs it in the document that is already loaded.
// The returned remove func unregisters it for future documents.
func Apply(page *rod.Page) (remove func() error, err error) {
	remove, err = page.EvalOnNewDocument(Source())
	if err != nil {
		return nil, fmt.Errorf("register masking script: %w", err)
	}

	if _, err := page.Eval(Func()); err != nil {
		_ = remove()
		return nil, fmt.Errorf("mask current document: %w", err)
	}

	return remove, nil
}

// Probe reads the masked properties from the page's current document.
func Probe(page *rod.Page) (*Report, error) {
	res, err := page.Eval(ProbeFunc())
	if err != nil {
		return nil, fmt.Errorf("probe page: %w", err)
	}
	return ParseReport(res.Value.Str())
}
