// Package fetch loads pages in a real browser with the masking script applied
// to every document before any page script runs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"page-stealth/config"
	"page-stealth/stealth"
)

var ErrInvalidURL = errors.New("invalid url")

// Result is a snapshot of one fetched page.
type Result struct {
	RequestedURL string          `json:"requestedUrl"`
	URL          string          `json:"url"`
	Title        string          `json:"title"`
	HTML         string          `json:"html,omitempty"`
	Report       *stealth.Report `json:"report"`
	Issues       []string        `json:"issues,omitempty"`
	Partial      bool            `json:"partialMasking"`
	FetchedAt    time.Time       `json:"fetchedAt"`
	Elapsed      string          `json:"elapsed"`
}

// Key names the snapshot for storage: the host plus the UTC fetch time.
func (r *Result) Key() string {
	host := "page"
	if u, err := url.Parse(r.RequestedURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	host = strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			return c
		default:
			return '_'
		}
	}, host)
	return host + "-" + r.FetchedAt.UTC().Format("20060102T150405Z")
}

// Fetcher owns one browser process. Fetch may be called concurrently; every
// call uses its own page.
type Fetcher struct {
	cfg      config.FetchConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	log      *zap.SugaredLogger
	width    int
	height   int
}

// New launches and connects to a browser configured from cfg.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Fetcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	width, height := randomViewport(cfg.Browser.MinViewport, cfg.Browser.MaxViewport)
	ua := pickUserAgent(cfg.Browser.UserAgents)

	l := newLauncher(cfg.Browser, ua, width, height)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser, err := connectBrowser(l, controlURL)
	if err != nil {
		return nil, err
	}

	log.Infow("browser ready",
		"userAgent", ua,
		"viewportWidth", width,
		"viewportHeight", height,
		"headless", cfg.Browser.Headless,
		"proxy", cfg.Browser.Proxy != "",
	)

	return &Fetcher{
		cfg:      cfg.Fetch,
		launcher: l,
		browser:  browser,
		log:      log,
		width:    width,
		height:   height,
	}, nil
}

// connectBrowser attaches to the launched browser. On failure the browser
// process is killed and its profile directory removed.
func connectBrowser(l *launcher.Launcher, controlURL string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return browser, nil
}

// Close shuts the browser down and removes its profile directory.
func (f *Fetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// Fetch opens target in a fresh page, masks it, waits for load plus a short
// settle pause, and returns the snapshot with a masking report.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	if err := validateURL(target); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(f.cfg.TimeoutSec)*time.Second)
	defer cancel()

	start := time.Now()
	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             f.width,
		Height:            f.height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		f.log.Warnw("set viewport", "error", err)
	}

	if _, err := stealth.Apply(page); err != nil {
		return nil, err
	}

	if err := page.Navigate(target); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if err := settle(ctx, f.cfg); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("page html: %w", err)
	}
	report, err := stealth.Probe(page)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RequestedURL: target,
		URL:          info.URL,
		Title:        info.Title,
		HTML:         html,
		Report:       report,
		Issues:       report.Verify(),
		Partial:      report.Partial(),
		FetchedAt:    start.UTC(),
		Elapsed:      time.Since(start).Round(time.Millisecond).String(),
	}

	if len(res.Issues) > 0 {
		f.log.Warnw("masking incomplete", "url", target, "issues", res.Issues)
	} else if res.Partial {
		f.log.Warnw("plugin list not rooted at native prototypes", "url", target)
	}
	f.log.Infow("page fetched",
		"url", res.URL,
		"title", res.Title,
		"bytes", len(html),
		"elapsed", res.Elapsed,
	)

	return res, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
