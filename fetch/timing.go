package fetch

import (
	"context"
	"math/rand"
	"time"

	"page-stealth/config"
)

// RandomDelay returns a duration between the given bounds (ms).
func RandomDelay(minMs, maxMs int) time.Duration {
	if minMs < 0 {
		minMs = 0
	}
	if maxMs < minMs {
		maxMs = minMs
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	n := r.Intn(maxMs-minMs+1) + minMs
	return time.Duration(n) * time.Millisecond
}

// settle waits a randomized pause after load so late scripts get to run
// before the snapshot. It returns early with ctx's error.
func settle(ctx context.Context, cfg config.FetchConfig) error {
	d := RandomDelay(cfg.SettleMinMs, cfg.SettleMaxMs)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
