// Package spam throttles connection requests per (requester session, target
// code) pair: a short spacing between consecutive requests, a longer cooldown
// after an explicit rejection, and a sliding-window rate cap.
package spam

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/config"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/utils"
)

type Options struct {
	RequestCooldown      time.Duration
	RejectionCooldown    time.Duration
	RateWindow           time.Duration
	MaxRequestsPerWindow int
	StaleAfter           time.Duration
}

func DefaultOptions() Options {
	return Options{
		RequestCooldown:      5 * time.Second,
		RejectionCooldown:    30 * time.Second,
		RateWindow:           60 * time.Second,
		MaxRequestsPerWindow: 10,
		StaleAfter:           120 * time.Second,
	}
}

// OptionsFromConfig parses the string durations of the spam config block,
// falling back to defaults for anything missing or unparsable.
func OptionsFromConfig(cfg config.SpamConfig) Options {
	opts := DefaultOptions()
	if d := utils.ParseStringTime(cfg.RequestCooldown); d > 0 {
		opts.RequestCooldown = d
	}
	if d := utils.ParseStringTime(cfg.RejectionCooldown); d > 0 {
		opts.RejectionCooldown = d
	}
	if d := utils.ParseStringTime(cfg.RateWindow); d > 0 {
		opts.RateWindow = d
	}
	if cfg.MaxRequestsPerWindow > 0 {
		opts.MaxRequestsPerWindow = cfg.MaxRequestsPerWindow
	}
	if d := utils.ParseStringTime(cfg.StaleAfter); d > 0 {
		opts.StaleAfter = d
	}
	return opts
}

type trackingKey struct {
	sessionID  string
	targetCode string
}

type tracking struct {
	timestamp time.Time
	count     int
	rejected  bool
}

type Guard struct {
	mu     sync.Mutex
	opts   Options
	clock  clock.Clock
	recent map[trackingKey]*tracking
}

func NewGuard(opts Options) *Guard {
	return NewGuardWithClock(opts, clock.New())
}

func NewGuardWithClock(opts Options, clk clock.Clock) *Guard {
	return &Guard{
		opts:   opts,
		clock:  clk,
		recent: make(map[trackingKey]*tracking),
	}
}

// IsAllowed evaluates the throttles in priority order: rejection cooldown
// first, then request spacing, then the sliding-window rate cap.
func (g *Guard) IsAllowed(sessionID, targetCode string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	info, ok := g.recent[trackingKey{sessionID, targetCode}]
	if !ok {
		return true
	}

	elapsed := g.clock.Now().Sub(info.timestamp)

	if info.rejected && elapsed < g.opts.RejectionCooldown {
		logger.InfoF("Request blocked: %s still in rejection cooldown for %s", sessionID, targetCode)
		return false
	}

	if elapsed < g.opts.RequestCooldown {
		return false
	}

	// window expired, the next attempt starts a fresh counter
	if elapsed > g.opts.RateWindow {
		return true
	}

	return info.count < g.opts.MaxRequestsPerWindow
}

// RecordAttempt updates the tracking entry for an attempt that passed the
// gates. An attempt after the window expired resets the counter to 1 and
// implicitly clears the rejected flag.
func (g *Guard) RecordAttempt(sessionID, targetCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	key := trackingKey{sessionID, targetCode}
	info, ok := g.recent[key]

	if !ok || now.Sub(info.timestamp) > g.opts.RateWindow {
		g.recent[key] = &tracking{timestamp: now, count: 1}
		return
	}
	g.recent[key] = &tracking{timestamp: now, count: info.count + 1}
}

// RecordRejection marks the pair rejected and restarts the cooldown clock.
func (g *Guard) RecordRejection(sessionID, targetCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	key := trackingKey{sessionID, targetCode}
	info, ok := g.recent[key]

	if ok {
		g.recent[key] = &tracking{timestamp: now, count: info.count, rejected: true}
	} else {
		g.recent[key] = &tracking{timestamp: now, count: 1, rejected: true}
	}
	logger.InfoF("Request marked as rejected: %s -> %s, cooldown activated", sessionID, targetCode)
}

// ForgetSession purges every tracking entry owned by the session.
func (g *Guard) ForgetSession(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key := range g.recent {
		if key.sessionID == sessionID {
			delete(g.recent, key)
		}
	}
}

// Sweep removes entries untouched for longer than the staleness bound and
// returns how many were dropped.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	removed := 0
	for key, info := range g.recent {
		if now.Sub(info.timestamp) > g.opts.StaleAfter {
			delete(g.recent, key)
			removed++
		}
	}
	return removed
}

func (g *Guard) trackedPairs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.recent)
}
