// Package dedupe guards automations against running twice for the same lead
// and trigger inside a time window.
package dedupe

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Guard claims idempotency keys in Redis with SETNX.
type Guard struct {
	client redis.Cmdable
	window time.Duration
	now    func() time.Time
}

// New returns a guard over client. A zero window disables the guard.
func New(client redis.Cmdable, window time.Duration) *Guard {
	return &Guard{client: client, window: window, now: time.Now}
}

// NewClient opens a Redis client for redisURL, relaxing TLS verification when
// tlsInsecure is set.
func NewClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if tlsInsecure {
		if opt.TLSConfig != nil {
			opt.TLSConfig = opt.TLSConfig.Clone()
			opt.TLSConfig.InsecureSkipVerify = true
		} else {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	return redis.NewClient(opt), nil
}

// Enabled reports whether claims are checked at all.
func (g *Guard) Enabled() bool {
	return g != nil && g.client != nil && g.window > 0
}

// Key builds automation:{automation}:{lead}:{trigger}:{bucket}, where bucket
// is the window-sized slot containing at. Without a positive window every
// instant is its own bucket.
func (g *Guard) Key(automationID, leadID uuid.UUID, trigger string, at time.Time) string {
	bucket := at.UnixNano()
	if g != nil && g.window > 0 {
		bucket /= int64(g.window)
	}
	return fmt.Sprintf("automation:%s:%s:%s:%d", automationID, leadID, trigger, bucket)
}

// Claim reports whether this is the first run of the automation for the lead
// and trigger in the current window. A disabled guard always claims.
func (g *Guard) Claim(ctx context.Context, automationID, leadID uuid.UUID, trigger string) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}
	key := g.Key(automationID, leadID, trigger, g.now())
	return g.client.SetNX(ctx, key, 1, g.window).Result()
}
