package fetch

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-rod/rod/lib/launcher"

	"page-stealth/config"
)

// newLauncher builds a launcher with the switches that hide the most obvious
// automation bits. The masking script covers what flags cannot.
func newLauncher(cfg config.BrowserConfig, ua string, width, height int) *launcher.Launcher {
	l := launcher.New().
		Bin(cfg.Bin).
		Leakless(false).
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		// Keep frames in-process so new-document scripts reach them too.
		Set("disable-features", "IsolateOrigins,site-per-process").
		Set("disable-extensions").
		Set("disable-component-update").
		Set("disable-client-side-phishing-detection").
		Set("window-size", fmt.Sprintf("%d,%d", width, height)).
		Set("user-agent", ua)

	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	return l
}

func randomViewport(min, max int) (int, int) {
	if min <= 0 {
		min = 1024
	}
	if max <= min {
		max = min + 200
	}

	w := min + randomInt(max-min+1)
	// Keep a common desktop aspect ratio to avoid anomalous sizes.
	h := int(math.Round(float64(w) * 0.5625)) // ~16:9

	return w, h
}

func pickUserAgent(agents []string) string {
	if len(agents) == 0 {
		return ""
	}
	return agents[randomInt(len(agents))]
}

func randomInt(limit int) int {
	if limit <= 1 {
		return 0
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	n := binary.BigEndian.Uint64(b[:])
	return int(n % uint64(limit))
}
